// Package config assembles the balance tables of every simulation package
// into one document that can be loaded from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/terraform-garden/internal/economy"
	"github.com/talgya/terraform-garden/internal/garden"
	"github.com/talgya/terraform-garden/internal/plants"
	"github.com/talgya/terraform-garden/internal/survival"
	"github.com/talgya/terraform-garden/internal/weather"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Seed     int64           `yaml:"seed"` // 0 draws a fresh seed
	Manifest string          `yaml:"manifest"`
	Garden   Garden          `yaml:"garden"`
	Plants   plants.Config   `yaml:"plants"`
	Weather  weather.Config  `yaml:"weather"`
	Economy  economy.Config  `yaml:"economy"`
	Survival survival.Config `yaml:"survival"`
}

type Garden struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
	// CraterLifetime clears craters after this long; 0 keeps them for the run.
	CraterLifetime time.Duration `yaml:"crater_lifetime"`
}

// Default returns the stock game balance.
func Default() Config {
	return Config{
		Manifest: "plants.csv",
		Garden: Garden{
			Rows: garden.DefaultRows,
			Cols: garden.DefaultCols,
		},
		Plants:   plants.DefaultConfig(),
		Weather:  weather.DefaultConfig(),
		Economy:  economy.DefaultConfig(),
		Survival: survival.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Decode(bytes.NewReader(data)); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML from r onto c and validates the result. Unknown keys
// are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode: %w", err)
	}
	return c.Validate()
}

// Encode writes c as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Validate checks every section and wraps failures in ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	if c.Garden.Rows <= 0 || c.Garden.Cols <= 0 {
		errs = append(errs, fmt.Errorf("garden: %dx%d grid", c.Garden.Rows, c.Garden.Cols))
	}
	if c.Garden.CraterLifetime < 0 {
		errs = append(errs, errors.New("garden: crater_lifetime is negative"))
	}
	if err := c.Plants.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("plants: %w", err))
	}
	if err := c.Weather.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("weather: %w", err))
	}
	if err := c.Economy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("economy: %w", err))
	}
	if err := c.Survival.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("survival: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
