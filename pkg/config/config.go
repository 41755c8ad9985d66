// Package config reads the deployment configuration: vehicle constants,
// where the station dataset comes from, and HTTP server settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"

	"ev_router/pkg/cost"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Vehicle Vehicle `yaml:"vehicle"`
	Dataset Dataset `yaml:"dataset"`
	Server  Server  `yaml:"server"`
}

// Vehicle holds the cost model constants. They apply to every query.
type Vehicle struct {
	MaxRangeKm   float64       `yaml:"max_range_km"`
	RoadSpeedKmh float64       `yaml:"road_speed_kmh"`
	TimeUnit     time.Duration `yaml:"time_unit"`
}

type Dataset struct {
	Stations string `yaml:"stations"` // YAML or JSON station list
	Cache    string `yaml:"cache"`    // binary network cache, preferred when present
	Neo4j    Neo4j  `yaml:"neo4j"`
}

type Neo4j struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Enabled reports whether stations should be read from Neo4j.
func (n Neo4j) Enabled() bool { return n.URI != "" }

type Server struct {
	Addr           string        `yaml:"addr"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxConcurrent  int           `yaml:"max_concurrent"` // 0 = 2 × NumCPU
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Vehicle: Vehicle{
			MaxRangeKm:   cost.DefaultMaxRangeKm,
			RoadSpeedKmh: cost.DefaultRoadSpeedKmh,
			TimeUnit:     cost.DefaultUnit,
		},
		Dataset: Dataset{
			Stations: "stations.yaml",
		},
		Server: Server{
			Addr:           ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
	}
}

// Load reads a YAML config file. Keys missing from the file keep their
// default values; unknown keys are an error. An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	slog.Info("reading config file", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data over the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Model returns the cost model described by the vehicle section.
func (c Config) Model() cost.Model {
	return cost.Model{
		MaxRangeKm:   c.Vehicle.MaxRangeKm,
		RoadSpeedKmh: c.Vehicle.RoadSpeedKmh,
		Unit:         c.Vehicle.TimeUnit,
	}
}

func (c Config) Validate() error {
	if err := c.Model().Validate(); err != nil {
		return fmt.Errorf("%w: vehicle: %v", ErrInvalidConfig, err)
	}
	if c.Dataset.Stations == "" && c.Dataset.Cache == "" && !c.Dataset.Neo4j.Enabled() {
		return fmt.Errorf("%w: dataset: no stations file, cache or neo4j uri", ErrInvalidConfig)
	}
	s := c.Server
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.RequestTimeout < 0 {
		return fmt.Errorf("%w: server: negative timeout", ErrInvalidConfig)
	}
	if s.MaxConcurrent < 0 {
		return fmt.Errorf("%w: server: max_concurrent %d", ErrInvalidConfig, s.MaxConcurrent)
	}
	return nil
}
