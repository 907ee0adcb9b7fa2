package config

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/snykops/orgreap/purge"
	"github.com/snykops/orgreap/snykapi"
)

const FileName = ".orgreap.yml"

// Config is the optional per-project tuning file. Everything has a
// default; the file exists so operators can add private region endpoints
// and adjust the retry bounds without rebuilding.
type Config struct {
	Version string `yaml:"version" validate:"required,oneof=1"`

	// Regions adds or overrides region to API endpoint mappings.
	Regions map[string]string `yaml:"regions" validate:"omitempty,dive,url"`

	Retry   RetryConfig   `yaml:"retry"`
	Listing ListingConfig `yaml:"listing"`
}

// RetryConfig tunes per-organization deletion retries.
type RetryConfig struct {
	Attempts            int `yaml:"attempts" validate:"omitempty,min=1,max=10"`
	InitialDelaySeconds int `yaml:"initial_delay_seconds" validate:"omitempty,min=1,max=300"`
	MaxDelaySeconds     int `yaml:"max_delay_seconds" validate:"omitempty,min=1,max=600"`
}

// ListingConfig tunes how long listing waits out rate limiting.
type ListingConfig struct {
	WaitBudgetSeconds int `yaml:"wait_budget_seconds" validate:"omitempty,min=1,max=3600"`
}

func Default() Config {
	return Config{Version: "1"}
}

// RetryPolicy converts the file values to the executor's policy, falling
// back to the defaults for unset fields.
func (c Config) RetryPolicy() purge.RetryPolicy {
	policy := purge.DefaultRetryPolicy()
	if c.Retry.Attempts > 0 {
		policy.Attempts = c.Retry.Attempts
	}
	if c.Retry.InitialDelaySeconds > 0 {
		policy.InitialDelay = time.Duration(c.Retry.InitialDelaySeconds) * time.Second
	}
	if c.Retry.MaxDelaySeconds > 0 {
		policy.MaxDelay = time.Duration(c.Retry.MaxDelaySeconds) * time.Second
	}
	return policy
}

// ListBackoff converts the file values to the client's listing backoff.
func (c Config) ListBackoff() snykapi.ListBackoff {
	backoff := snykapi.DefaultListBackoff()
	if c.Listing.WaitBudgetSeconds > 0 {
		backoff.WaitBudget = time.Duration(c.Listing.WaitBudgetSeconds) * time.Second
	}
	return backoff
}

type Loader interface {
	Load(path string) (Config, error)
}

type yamlLoader struct {
	validate *validator.Validate
}

func NewLoader() Loader {
	return &yamlLoader{
		validate: validator.New(),
	}
}

func (l *yamlLoader) Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Mark(errors.Wrap(err, "failed to read config file"), purge.ErrConfiguration)
	}

	dec := yaml.NewDecoder(
		bytes.NewReader(data),
		yaml.Validator(l.validate),
		yaml.Strict(),
	)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Mark(errors.Wrap(err, "failed to parse config file"), purge.ErrConfiguration)
	}

	return cfg, nil
}

// Find walks from startDir to the filesystem root looking for the config
// file. Unlike a required config this one is optional: no file means
// defaults.
func Find(startDir string) (Config, error) {
	loader := NewLoader()

	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return loader.Load(configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
