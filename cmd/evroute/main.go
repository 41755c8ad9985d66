package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"ev_router/pkg/config"
	"ev_router/pkg/dataset"
	"ev_router/pkg/logging"
	"ev_router/pkg/routing"
	"ev_router/pkg/station"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty = defaults)")
	stationsPath := flag.String("stations", "", "Station file, overrides dataset.stations")
	cachePath := flag.String("cache", "", "Binary network cache, overrides dataset.cache")
	bench := flag.Int("bench", 0, "Run N random source/target queries instead of one")
	seed := flag.Int64("seed", 1, "Random seed for -bench")
	out := flag.String("out", "", "With -bench, write every route to this file")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: evroute [flags] SOURCE TARGET")
		fmt.Fprintln(os.Stderr, "       evroute [flags] -bench N")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *bench == 0 {
		if flag.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "Error: requires initial and final station names")
			os.Exit(1)
		}
		if flag.Arg(0) == flag.Arg(1) {
			fmt.Fprintln(os.Stderr, "Error: initial and final stations cannot be identical")
			os.Exit(1)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *stationsPath != "" {
		cfg.Dataset.Stations = *stationsPath
	}
	if *cachePath != "" {
		cfg.Dataset.Cache = *cachePath
	}

	ctx := context.Background()
	model := cfg.Model()
	net, g, err := dataset.Load(ctx, cfg.Dataset, model)
	if err != nil {
		fatal(err)
	}
	engine, err := routing.NewEngine(net, g, model)
	if err != nil {
		fatal(err)
	}

	if *bench > 0 {
		if err := runBench(ctx, engine, net, *bench, *seed, *out); err != nil {
			fatal(err)
		}
		return
	}

	r, err := engine.Route(ctx, flag.Arg(0), flag.Arg(1))
	if err != nil {
		fatal(err)
	}
	fmt.Println(r)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// runBench times n queries between random station pairs and prints the
// total and average search time. Pairs with source == target are skipped.
func runBench(ctx context.Context, router routing.Router, net *station.Network, n int, seed int64, outPath string) error {
	if net.Len() < 2 {
		return errors.New("benchmark needs at least two stations")
	}

	var w io.Writer = io.Discard
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		defer bw.Flush()
		w = bw
	}

	rng := rand.New(rand.NewSource(seed))
	var total time.Duration
	var queries, unreachable int
	for i := 0; i < n; i++ {
		s := net.At(uint32(rng.Intn(net.Len()))).Name
		t := net.At(uint32(rng.Intn(net.Len()))).Name
		if s == t {
			continue
		}

		begin := time.Now()
		r, err := router.Route(ctx, s, t)
		total += time.Since(begin)
		queries++

		switch {
		case errors.Is(err, routing.ErrUnreachable):
			unreachable++
			fmt.Fprintf(w, "%s, %s: unreachable\n", s, t)
		case err != nil:
			return err
		default:
			fmt.Fprintln(w, r)
		}
	}

	if queries == 0 {
		return errors.New("no queries ran")
	}
	slog.Debug("benchmark finished", "queries", queries, "seed", seed)
	fmt.Printf("Queries: %d (%d unreachable)\n", queries, unreachable)
	fmt.Printf("Total search time: %s - Average search time: %s\n",
		total.Round(time.Microsecond), (total / time.Duration(queries)).Round(time.Microsecond))
	return nil
}
