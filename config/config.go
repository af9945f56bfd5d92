// Package config reads the benchmark's tunables from the environment.
//
// Every variable carries the SAMPLEFLOW_ prefix, so the thread budget for a
// run is set with e.g. SAMPLEFLOW_NUM_THREADS=8.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const prefix = "sampleflow"

// Config collects every knob of a sampling run.
type Config struct {
	// NumThreads caps the worker threads used for posterior evaluations.
	// Zero means use every hardware thread.
	NumThreads int `envconfig:"NUM_THREADS" default:"0"`

	// Chains is the number of coupled Markov chains.
	Chains int `envconfig:"CHAINS" default:"64"`

	// SamplesPerChain is the number of samples each chain produces. The
	// crossover phase starts once every chain has produced this many.
	SamplesPerChain uint64 `envconfig:"SAMPLES_PER_CHAIN" default:"1000"`

	// Seed feeds the single random number generator of the run; two runs
	// with equal seeds produce identical sample streams.
	Seed uint64 `envconfig:"SEED" default:"1"`

	// LogEvery is the sample-count stride of progress log lines.
	LogEvery uint64 `envconfig:"LOG_EVERY" default:"1000"`

	// Development switches the logger to a human-readable console format.
	Development bool `envconfig:"DEVELOPMENT" default:"false"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Chains < 3 {
		return fmt.Errorf("need at least 3 chains, got %d", c.Chains)
	}
	if c.SamplesPerChain == 0 {
		return fmt.Errorf("samples per chain must be positive")
	}
	if c.LogEvery == 0 {
		return fmt.Errorf("log stride must be positive")
	}
	if c.NumThreads < 0 {
		return fmt.Errorf("thread cap must not be negative, got %d", c.NumThreads)
	}
	return nil
}

// Logger builds the process logger matching the configuration.
func (c Config) Logger() (*zap.Logger, error) {
	if c.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
