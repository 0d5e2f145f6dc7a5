package hitgen

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the file form of a generator setup.
//
// Configuration precedence: defaults, then the YAML file, then HITGEN_* environment
// variables, then command line flags (applied by the caller).
//
//	layout:
//	  doms: 115
//	  mods: 18
//	  capacity: 8388608
//	pulse:
//	  tau_l0: 4608
//	  tot_mean: 26.5
//	  tot_sigma: 10.5
//	seeds: [1, 2]
//	rates: [600, 60, 7, 0.8]
//	coincidence_jitter_ns: 10
//	backend: auto
//	workers: 1
//	streams: shared
type Config struct {
	Layout struct {
		Doms     int `yaml:"doms"`
		Mods     int `yaml:"mods"`
		Capacity int `yaml:"capacity"`
	} `yaml:"layout"`
	Pulse struct {
		TauL0    float64 `yaml:"tau_l0"`
		ToTMean  float64 `yaml:"tot_mean"`
		ToTSigma float64 `yaml:"tot_sigma"`
	} `yaml:"pulse"`
	Seeds             [2]uint64 `yaml:"seeds"`
	Rates             []float64 `yaml:"rates"`
	CoincidenceJitter int64     `yaml:"coincidence_jitter_ns"`
	// Coincidences disables the burst injector when false.
	Coincidences bool   `yaml:"coincidences"`
	Backend      string `yaml:"backend"`
	Workers      int    `yaml:"workers"`
	Streams      string `yaml:"streams"`
}

// DefaultConfig returns the built-in configuration. Its seeds are zero, which makes
// every run draw fresh seeds.
func DefaultConfig() *Config {
	c := &Config{}
	c.Layout.Doms = DefaultNDom
	c.Layout.Mods = DefaultNMod
	c.Layout.Capacity = DefaultCapacity
	c.Pulse.TauL0 = DefaultTauL0
	c.Pulse.ToTMean = DefaultToTMean
	c.Pulse.ToTSigma = DefaultToTSigma
	c.Rates = DefaultRates()
	c.CoincidenceJitter = DefaultJitter
	c.Coincidences = true
	c.Backend = BackendAuto
	c.Workers = 1
	c.Streams = StreamShared.String()
	return c
}

// LoadConfig reads a YAML file over DefaultConfig. Keys missing from the file keep
// their defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overrides c from HITGEN_SEED0, HITGEN_SEED1, HITGEN_BACKEND, HITGEN_WORKERS
// and HITGEN_STREAMS. Unparsable numbers are logged and ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HITGEN_SEED0"); v != "" {
		if n, err := strconv.ParseUint(v, 0, 64); err == nil {
			c.Seeds[0] = n
		} else {
			log.Printf("⚠️ ignoring HITGEN_SEED0=%q: %v", v, err)
		}
	}
	if v := os.Getenv("HITGEN_SEED1"); v != "" {
		if n, err := strconv.ParseUint(v, 0, 64); err == nil {
			c.Seeds[1] = n
		} else {
			log.Printf("⚠️ ignoring HITGEN_SEED1=%q: %v", v, err)
		}
	}
	if v := os.Getenv("HITGEN_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("HITGEN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		} else {
			log.Printf("⚠️ ignoring HITGEN_WORKERS=%q: %v", v, err)
		}
	}
	if v := os.Getenv("HITGEN_STREAMS"); v != "" {
		c.Streams = v
	}
}

// GeneratorLayout returns the layout section as a Layout.
func (c *Config) GeneratorLayout() Layout {
	return Layout{NDom: c.Layout.Doms, NMod: c.Layout.Mods, Capacity: c.Layout.Capacity}
}

// GeneratorParams returns the pulse section as Params.
func (c *Config) GeneratorParams() Params {
	return Params{TauL0: c.Pulse.TauL0, ToTMean: c.Pulse.ToTMean, ToTSigma: c.Pulse.ToTSigma}
}

func (c *Config) streamMode() (StreamMode, error) {
	switch c.Streams {
	case "", StreamShared.String():
		return StreamShared, nil
	case StreamPerModule.String():
		return StreamPerModule, nil
	}
	return 0, fmt.Errorf("unknown stream mode %q (want %q or %q)", c.Streams, StreamShared, StreamPerModule)
}

// Validate checks the settings that New and NewGenerators do not see.
func (c *Config) Validate() error {
	if _, err := BackendByName(c.Backend); err != nil {
		return err
	}
	if _, err := c.streamMode(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.CoincidenceJitter < 0 {
		return fmt.Errorf("coincidence_jitter_ns must be >= 0, got %d", c.CoincidenceJitter)
	}
	return nil
}

// Build validates c and returns the generator and its state. logger may be nil.
func (c *Config) Build(logger *log.Logger) (*Generator, *Generators, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	backend, _ := BackendByName(c.Backend)
	streams, _ := c.streamMode()
	var injector Injector = NoInjector{}
	if c.Coincidences {
		injector = BurstInjector{Jitter: c.CoincidenceJitter}
	}
	g, err := New(c.GeneratorLayout(), c.GeneratorParams(),
		WithBackend(backend),
		WithInjector(injector),
		WithWorkers(c.Workers),
		WithStreams(streams),
		WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	gens, err := NewGenerators(c.Seeds[0], c.Seeds[1], c.Rates)
	if err != nil {
		return nil, nil, err
	}
	return g, gens, nil
}
