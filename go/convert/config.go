package convert

import (
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rmmh/blockbridge/go/mappings"
	"github.com/rmmh/blockbridge/go/region"
)

// Config describes one conversion run. It is usually read from YAML with
// command line flags layered on top.
type Config struct {
	From        mappings.Target `yaml:"from"`
	To          mappings.Target `yaml:"to"`
	RegionDir   string          `yaml:"region_dir"`
	AllowCustom bool            `yaml:"allow_custom"`
	Workers     int             `yaml:"workers"`
	MappingFile string          `yaml:"mapping_file,omitempty"`
	CoverageDB  string          `yaml:"coverage_db,omitempty"`
	Report      string          `yaml:"report,omitempty"`

	// Filters keeps only region files whose name contains one of them.
	Filters []string `yaml:"filters,omitempty"`

	// Open reads region files; nil means region.Open.
	Open region.Opener `yaml:"-"`
}

// LoadConfig reads a YAML config. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.WithStack(err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "%s", path)
	}
	cfg.Normalize()
	return cfg, nil
}

func (c *Config) Normalize() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Open == nil {
		c.Open = region.Open
	}
}

func (c *Config) Validate() error {
	if c.From.Platform == "" || c.To.Platform == "" {
		return errors.New("both a source and a target platform are required")
	}
	if c.From.Platform != mappings.Java {
		return errors.Errorf("region files are read from java worlds, not %s", c.From.Platform)
	}
	for _, t := range []mappings.Target{c.From, c.To} {
		if !mappings.Supported(t) {
			return errors.Errorf("no mappings for %s", t)
		}
	}
	if c.RegionDir == "" {
		return errors.New("no region directory")
	}
	return nil
}
