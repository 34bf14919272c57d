// Package config holds the per-variant settings needed to locate and
// interpret the boot MMU table of a firmware image.
package config

import (
	"os"

	"github.com/go-errors/errors"
	"github.com/ranmrdrakono/mmutable/mmu"
	"gopkg.in/yaml.v3"
)

const DefaultTableSymbol = "boot_mmu_table"

type Config struct {
	// SoC forces the SoC name; empty means guess it from the image.
	SoC string `yaml:"soc"`

	// LoadAddress of raw images. ELF images carry their own.
	LoadAddress uint32 `yaml:"load_address"`

	// TableAddress of the MMU table. Zero means look up TableSymbol.
	TableAddress uint32 `yaml:"table_address"`
	TableSymbol  string `yaml:"table_symbol"`
	Slots        int    `yaml:"slots"`

	// FallbackTable replaces the table with the single RAM entry used for
	// images whose table cannot be located.
	FallbackTable bool `yaml:"fallback_table"`

	// Privileged selects whose permissions are registered for each region.
	Privileged bool `yaml:"privileged"`
}

func Default() Config {
	return Config{
		TableSymbol: DefaultTableSymbol,
		Slots:       mmu.DefaultSlots,
		Privileged:  true,
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, 0)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WrapPrefix(err, path, 0)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Slots <= 0 {
		return errors.Errorf("slots must be positive, got %d", c.Slots)
	}
	if !c.FallbackTable && c.TableAddress == 0 && c.TableSymbol == "" {
		return errors.Errorf("need table_address, table_symbol or fallback_table")
	}
	return nil
}
