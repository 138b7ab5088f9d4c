package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Defaults mirrors the TOML defaults file. Every field is optional; explicit
// flags always win over file values.
type Defaults struct {
	APIHost     string   `toml:"api_host"`
	OutputDir   string   `toml:"output_dir"`
	PreferSSH   bool     `toml:"prefer_ssh"`
	Languages   []string `toml:"languages"`
	Concurrency int      `toml:"concurrency"`
}

// LoadDefaults reads a TOML defaults file. A missing file is not an error;
// it simply yields zero defaults.
func LoadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Defaults{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read defaults file: %w", err)
	}

	var d Defaults
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("config: parse defaults file: %w", err)
	}
	return &d, nil
}

// Apply fills zero-valued Config fields from the defaults file.
func (d *Defaults) Apply(c *Config) {
	if c.APIHost == "" && d.APIHost != "" {
		c.APIHost = d.APIHost
	}
	if c.OutputDir == "" && d.OutputDir != "" {
		c.OutputDir = d.OutputDir
	}
	if !c.PreferSSH && d.PreferSSH {
		c.PreferSSH = true
	}
	if len(c.Languages) == 0 && len(d.Languages) > 0 {
		c.Languages = d.Languages
	}
	if c.Concurrency == 0 && d.Concurrency > 0 {
		c.Concurrency = d.Concurrency
	}
}
