package project

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/piwi3910/PlantLayout/internal/engine"
	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/routing"
)

// EnvPrefix is prepended to every environment override, e.g.
// PLANTLAYOUT_GENETIC_SEED or PLANTLAYOUT_FACTORY_WIDTH.
const EnvPrefix = "PLANTLAYOUT_"

var validate = validator.New(validator.WithRequiredStructEnabled())

// FactoryConfig is the floor size in grid cells.
type FactoryConfig struct {
	Width  int `toml:"width" env:"WIDTH" validate:"gt=0"`
	Height int `toml:"height" env:"HEIGHT" validate:"gt=0"`
}

// RunConfig is everything one optimize/route run needs.
type RunConfig struct {
	// Sequence lists station ids in flow order. Empty means catalogue order.
	Sequence        []int                `toml:"sequence" env:"SEQUENCE"`
	ShuffleSequence bool                 `toml:"shuffle_sequence" env:"SHUFFLE_SEQUENCE"`
	Factory         FactoryConfig        `toml:"factory" envPrefix:"FACTORY_"`
	Genetic         engine.GeneticConfig `toml:"genetic" envPrefix:"GENETIC_"`
	Fitness         engine.FitnessConfig `toml:"fitness" envPrefix:"FITNESS_"`
	Routing         routing.Options      `toml:"routing" envPrefix:"ROUTING_"`
	Stations        []model.StationSpec  `toml:"stations" validate:"required,min=1,dive"`
}

// DefaultConfigDir returns the default directory for run configuration.
// On all platforms this is ~/.plantlayout/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".plantlayout")
}

// DefaultConfigPath returns the default path for the run config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "plantlayout.toml")
}

// DefaultRunConfig returns the demo line on a 28x28 floor.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Factory:  FactoryConfig{Width: 28, Height: 28},
		Genetic:  engine.DefaultGeneticConfig(),
		Fitness:  engine.DefaultFitnessConfig(),
		Routing:  routing.DefaultOptions(),
		Stations: model.DefaultStations(),
	}
}

// ProcessSequence returns the configured sequence, or the catalogue order
// when none is set.
func (c RunConfig) ProcessSequence() []int {
	if len(c.Sequence) > 0 {
		return append([]int(nil), c.Sequence...)
	}
	return model.IdentitySequence(c.Stations)
}

// Validate checks field ranges and the search parameters.
func (c RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}
	return c.Genetic.Validate()
}

// Problem builds the layout problem described by the config. With
// ShuffleSequence set the flow order is shuffled using the search seed, or
// the clock when the seed is 0.
func (c RunConfig) Problem() (*engine.Problem, error) {
	seq := c.ProcessSequence()
	if c.ShuffleSequence {
		seed := c.Genetic.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	}
	return engine.NewProblem(c.Factory.Width, c.Factory.Height, c.Stations, seq)
}

// SaveRunConfig persists a RunConfig to the given path as TOML.
// It creates any missing parent directories automatically.
func SaveRunConfig(path string, config RunConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadRunConfig reads a RunConfig from the given path, applies environment
// overrides and validates the result. Keys missing from the file keep their
// defaults. If the file does not exist, the defaults are used.
func LoadRunConfig(path string) (RunConfig, error) {
	config := DefaultRunConfig()
	// Decoding reuses slice storage, so stations from the file must not
	// land on top of the default catalogue.
	config.Stations = nil

	if path != "" {
		if _, err := toml.DecodeFile(path, &config); err != nil && !errors.Is(err, os.ErrNotExist) {
			return RunConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if len(config.Stations) == 0 {
		config.Stations = model.DefaultStations()
	}

	if err := env.ParseWithOptions(&config, env.Options{Prefix: EnvPrefix}); err != nil {
		return RunConfig{}, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return RunConfig{}, err
	}
	return config, nil
}
