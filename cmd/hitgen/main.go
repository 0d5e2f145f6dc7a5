// Package main provides the hitgen CLI entry point.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TomTonic/hitgen"
	"github.com/TomTonic/hitgen/slicefile"
	"github.com/TomTonic/hitgen/slicestore"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hitgen",
		Short: "hitgen - synthetic detector hit streams",
		Long: `hitgen synthesizes timestamped hit streams for every module of a
detector array: Poisson background hits, injected coincidence bursts and a
packed pulse/sensor/module record per hit.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hitgen v%s (%s)\n", version, commit)
		},
	})

	genCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate hit slices",
		Long: `Generate one or more consecutive time slices. Slice i uses the seeds
(seed0, seed1+i), so a run is reproducible from its first seeds.`,
		RunE: runGenerate,
	}
	addConfigFlags(genCmd)
	genCmd.Flags().Int64("start", 0, "Start of the first slice in ns")
	genCmd.Flags().Duration("duration", getEnvDuration("HITGEN_DURATION", 10*time.Millisecond), "Length of each slice")
	genCmd.Flags().Int("slices", 1, "Number of consecutive slices")
	genCmd.Flags().String("out", "", "Write the first slice to this file")
	genCmd.Flags().String("store", getEnvStr("HITGEN_STORE_DIR", ""), "Store all slices in this Badger directory")
	genCmd.Flags().String("run-id", "", "Run id (default: random)")
	rootCmd.AddCommand(genCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Print a stored slice",
		Long:  "Print a slice from a file, or from a store with --store, --run-id and --start",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDecode,
	}
	decodeCmd.Flags().Int("n", 10, "Number of records to print")
	decodeCmd.Flags().String("store", getEnvStr("HITGEN_STORE_DIR", ""), "Badger store directory")
	decodeCmd.Flags().String("run-id", "", "Run id in the store")
	decodeCmd.Flags().Int64("start", 0, "Slice start in the store")
	rootCmd.AddCommand(decodeCmd)

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs in a store, or the slices of one run",
		RunE:  runRuns,
	}
	runsCmd.Flags().String("store", getEnvStr("HITGEN_STORE_DIR", ""), "Badger store directory")
	runsCmd.Flags().String("run-id", "", "List the slice starts of this run")
	rootCmd.AddCommand(runsCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare the vek and portable backends",
		RunE:  runBench,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().Duration("duration", getEnvDuration("HITGEN_DURATION", 10*time.Millisecond), "Window length per run")
	benchCmd.Flags().Int("runs", 21, "Runs per backend")
	benchCmd.Flags().String("speedups", "0,0.1,0.25,0.5", "Relative speedups to test, comma separated")
	benchCmd.Flags().Uint64("reps", 10000, "Bootstrap replicates")
	rootCmd.AddCommand(benchCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show vector backend and CPU information",
		Run: func(cmd *cobra.Command, args []string) {
			info := hitgen.Info()
			fmt.Printf("arch:        %s\n", info.Arch)
			fmt.Printf("accelerated: %v\n", info.Accelerated)
			fmt.Printf("avx2+fma:    %v\n", info.AVX2)
			fmt.Printf("neon:        %v\n", info.NEON)
			fmt.Printf("features:    %s\n", strings.Join(info.Features, " "))
			fmt.Printf("auto:        %s\n", info.Auto)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", getEnvStr("HITGEN_CONFIG", ""), "YAML config file")
	cmd.Flags().String("backend", hitgen.BackendAuto, "Vector backend: auto, vek, portable")
	cmd.Flags().Int("workers", 1, "Module workers (>1 implies per-module streams)")
	cmd.Flags().Uint64("seed0", 0, "First seed (0 with seed1=0: random)")
	cmd.Flags().Uint64("seed1", 0, "Second seed")
	cmd.Flags().Bool("verbose", getEnvBool("HITGEN_VERBOSE", false), "Log progress")
}

// loadConfig builds the config from defaults, file, environment and the flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*hitgen.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := hitgen.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = hitgen.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("seed0") {
		cfg.Seeds[0], _ = flags.GetUint64("seed0")
	}
	if flags.Changed("seed1") {
		cfg.Seeds[1], _ = flags.GetUint64("seed1")
	}
	return cfg, nil
}

func logger(cmd *cobra.Command) *log.Logger {
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		return log.New(os.Stderr, "hitgen: ", log.LstdFlags)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	start, _ := cmd.Flags().GetInt64("start")
	duration, _ := cmd.Flags().GetDuration("duration")
	slices, _ := cmd.Flags().GetInt("slices")
	outPath, _ := cmd.Flags().GetString("out")
	storeDir, _ := cmd.Flags().GetString("store")
	runIDStr, _ := cmd.Flags().GetString("run-id")
	if slices < 1 {
		return fmt.Errorf("slices must be >= 1, got %d", slices)
	}

	runID := uuid.New()
	if runIDStr != "" {
		if runID, err = uuid.Parse(runIDStr); err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}
	}

	g, gens, err := cfg.Build(logger(cmd))
	if err != nil {
		return err
	}

	var store *slicestore.Store
	if storeDir != "" {
		if store, err = slicestore.Open(slicestore.Options{Dir: storeDir}); err != nil {
			return err
		}
		defer store.Close()
	}

	seeds := gens.Seeds()
	fmt.Printf("run %s seeds %d %d backend %s\n", runID, seeds[0], seeds[1], g.Backend().Name())
	for i := range slices {
		sliceGens, err := hitgen.NewGenerators(seeds[0], seeds[1]+uint64(i), gens.Rates())
		if err != nil {
			return err
		}
		from := start + int64(i)*duration.Nanoseconds()
		res, err := g.Generate(from, from+duration.Nanoseconds(), sliceGens)
		if err != nil {
			return err
		}
		printSummary(res)

		frame := slicefile.FromResult(runID, res)
		if i == 0 && outPath != "" {
			if err := writeFrame(outPath, frame); err != nil {
				return err
			}
		}
		if store != nil {
			if err := store.Put(frame); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFrame(path string, f *slicefile.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := slicefile.Encode(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func printSummary(res *hitgen.Result) {
	s := hitgen.Summarize(res)
	fmt.Printf("[%d, %d) ns: %d hits in %d modules, %.1f ± %.1f per module (%.0f Hz), %d coincident",
		res.Window.Start, res.Window.End, s.Hits, s.Modules, s.MeanHits, s.StdDevHits, s.RateHz, s.Coincident)
	if s.HitsPerSecond > 0 {
		fmt.Printf(", %.1f Mhits/s", s.HitsPerSecond/1e6)
	}
	fmt.Println()
	if s.Truncated > 0 {
		fmt.Printf("⚠️ %d modules ran out of capacity\n", s.Truncated)
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("n")
	storeDir, _ := cmd.Flags().GetString("store")

	var frame *slicefile.Frame
	switch {
	case len(args) == 1:
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()
		if frame, err = slicefile.Decode(file); err != nil {
			return err
		}
	case storeDir != "":
		runIDStr, _ := cmd.Flags().GetString("run-id")
		start, _ := cmd.Flags().GetInt64("start")
		runID, err := uuid.Parse(runIDStr)
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}
		store, err := slicestore.Open(slicestore.Options{Dir: storeDir})
		if err != nil {
			return err
		}
		defer store.Close()
		if frame, err = store.Get(runID, start); err != nil {
			return err
		}
	default:
		return fmt.Errorf("need a file argument or --store")
	}

	backend := frame.Backend
	if backend == "" {
		backend = "unknown"
	}
	fmt.Printf("run %s window [%d, %d) ns, %d hits, backend %s\n", frame.RunID, frame.Start, frame.End, frame.Len(), backend)
	for i := range min(n, frame.Len()) {
		rec := hitgen.Unpack(frame.Values[i])
		dom, mod := hitgen.SplitModuleCode(rec.Module)
		fmt.Printf("%20d  dom %3d mod %2d  %s\n", frame.Times[i], dom, mod, rec)
	}
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	storeDir, _ := cmd.Flags().GetString("store")
	runIDStr, _ := cmd.Flags().GetString("run-id")
	if storeDir == "" {
		return fmt.Errorf("--store is required")
	}
	store, err := slicestore.Open(slicestore.Options{Dir: storeDir})
	if err != nil {
		return err
	}
	defer store.Close()

	if runIDStr != "" {
		runID, err := uuid.Parse(runIDStr)
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}
		starts, err := store.List(runID)
		if err != nil {
			return err
		}
		for _, start := range starts {
			fmt.Println(start)
		}
		return nil
	}

	runs, err := store.Runs()
	if err != nil {
		return err
	}
	for _, id := range runs {
		starts, err := store.List(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %d slices\n", id, len(starts))
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	duration, _ := cmd.Flags().GetDuration("duration")
	runs, _ := cmd.Flags().GetInt("runs")
	reps, _ := cmd.Flags().GetUint64("reps")
	speedupsStr, _ := cmd.Flags().GetString("speedups")
	speedups, err := parseSpeedups(speedupsStr)
	if err != nil {
		return err
	}

	fmt.Printf("timer precision: %d ns\n", hitgen.TimerPrecision())
	w := hitgen.Window{Start: 0, End: duration.Nanoseconds()}
	samples := make(map[string][]float64, 2)
	for _, name := range []string{hitgen.BackendVek, hitgen.BackendPortable} {
		cfg.Backend = name
		g, gens, err := cfg.Build(logger(cmd))
		if err != nil {
			return err
		}
		if samples[name], err = hitgen.TimeRuns(g, w, gens, runs); err != nil {
			return err
		}
		fmt.Printf("%-9s median %.3f ms\n", name, hitgen.Median(samples[name])/1e6)
	}

	conf, err := hitgen.CompareRuntimes(samples[hitgen.BackendVek], samples[hitgen.BackendPortable], speedups, reps)
	if err != nil {
		return err
	}
	for _, c := range conf {
		fmt.Printf("vek faster than portable by ≥ %.0f%%: confidence %.4f\n", c.RelativeSpeedup*100, c.Confidence)
	}
	return nil
}

func parseSpeedups(s string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid speedup %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// getEnvStr returns environment variable or default
func getEnvStr(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvBool returns environment variable as bool or default
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns environment variable as duration or default
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
