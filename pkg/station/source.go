package station

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source produces an unvalidated station table.
type Source interface {
	Load(ctx context.Context) ([]Station, error)
}

// FileSource reads a YAML or JSON list of stations.
type FileSource struct {
	Path string
}

// Load reads and decodes the file.
func (f FileSource) Load(ctx context.Context) ([]Station, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read stations: %w", err)
	}
	stations, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return stations, nil
}

// Decode parses a YAML (or JSON) sequence of station records.
func Decode(data []byte) ([]Station, error) {
	var stations []Station
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// WriteFile encodes stations as YAML, replacing path atomically.
func WriteFile(path string, stations []Station) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(stations); err != nil {
		return fmt.Errorf("encode stations: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode stations: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write stations: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// LoadNetwork loads stations from src and validates them.
func LoadNetwork(ctx context.Context, src Source) (*Network, error) {
	stations, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NewNetwork(stations)
}
