package shared

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Rules struct {
		Path         string   `yaml:"path"`           // ".cursorrules"
		MinSeverity  string   `yaml:"min_severity"`   // "LOW"|"MEDIUM"|"HIGH"
		Disabled     []string `yaml:"disabled"`       // check IDs
		MaxFileLines int      `yaml:"max_file_lines"` // 300
	} `yaml:"rules"`

	Analysis struct {
		Sources []string `yaml:"sources"` // empty = directory of the rule file
		Exclude []string `yaml:"exclude"` // globs on top of the defaults
	} `yaml:"analysis"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "./reports"
		Format string `yaml:"format"`  // "text"|"json"|"html"|"sarif"
	} `yaml:"reporting"`

	Database struct {
		DSN string `yaml:"dsn"` // "" disables history
	} `yaml:"database"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"console"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`

	Workers struct {
		PoolSize int `yaml:"pool_size"` // 0 = GOMAXPROCS
	} `yaml:"workers"`
}

func DefaultConfig() Config {
	var c Config
	c.Rules.Path = ".cursorrules"
	c.Rules.MinSeverity = "LOW"
	c.Rules.MaxFileLines = 300
	c.Reporting.OutDir = "./reports"
	c.Reporting.Format = "text"
	c.Logging.Format = "console"
	c.Logging.Level = "warn"
	return c
}

// LoadConfig layers defaults, the optional YAML file at path, then
// ARCHCHECK_* environment overrides. A missing file is not an error; a file
// that exists but does not parse is.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&c)
	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("ARCHCHECK_RULES"); v != "" {
		c.Rules.Path = v
	}
	if v := os.Getenv("ARCHCHECK_MIN_SEVERITY"); v != "" {
		c.Rules.MinSeverity = strings.ToUpper(v)
	}
	if v := os.Getenv("ARCHCHECK_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("ARCHCHECK_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("ARCHCHECK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ARCHCHECK_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("ARCHCHECK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Workers.PoolSize = n
		}
	}
}
