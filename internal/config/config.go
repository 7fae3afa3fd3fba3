package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"epias-report/internal/epias"
	report "epias-report/internal/report/domain"
)

var (
	ErrUnknownCategory = errors.New("config: unknown category")
	ErrInvalidConfig   = errors.New("config: invalid value")
)

// CategoryOverride replaces parts of a default catalog entry.
type CategoryOverride struct {
	Label    string         `yaml:"label"`
	Endpoint string         `yaml:"endpoint"`
	Prefix   string         `yaml:"prefix"`
	Extra    map[string]any `yaml:"extra"`
	Disabled bool           `yaml:"disabled"`
}

// Config holds runtime settings for the report tool.
type Config struct {
	AuthURL        string                      `yaml:"auth_url"`
	BaseURL        string                      `yaml:"base_url"`
	RequestTimeout time.Duration               `yaml:"request_timeout"`
	RequestDelay   time.Duration               `yaml:"request_delay"`
	OutputDir      string                      `yaml:"output_dir"`
	HTTPAddr       string                      `yaml:"http_addr"`
	Categories     map[string]CategoryOverride `yaml:"categories"`

	// Secrets are read from the environment only.
	Username  string `yaml:"-"`
	Password  string `yaml:"-"`
	JWTSecret string `yaml:"-"`
}

// Load reads the .env file (when present), the environment and the optional
// YAML file named by EPIAS_CONFIG.
func Load() (Config, error) {
	envFile := getenvDefault("EPIAS_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	cfg := Config{
		AuthURL:        getenvDefault("EPIAS_AUTH_URL", epias.DefaultAuthURL),
		BaseURL:        getenvDefault("EPIAS_BASE_URL", epias.DefaultBaseURL),
		RequestTimeout: getenvDuration("EPIAS_REQUEST_TIMEOUT", epias.DefaultRequestTimeout),
		RequestDelay:   getenvDuration("EPIAS_REQUEST_DELAY", epias.DefaultRequestDelay),
		OutputDir:      getenvDefault("EPIAS_OUTPUT_DIR", "."),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		Username:       os.Getenv("EPIAS_USERNAME"),
		Password:       os.Getenv("EPIAS_PASSWORD"),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}

	if path := os.Getenv("EPIAS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values the client depends on.
func (c Config) Validate() error {
	if c.AuthURL == "" || c.BaseURL == "" {
		return fmt.Errorf("%w: auth and base url required", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("%w: request delay must not be negative", ErrInvalidConfig)
	}
	for id := range c.Categories {
		if _, ok := report.FindCategory(report.DefaultCatalog(), report.CategoryID(id)); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCategory, id)
		}
	}
	return nil
}

// Catalog returns the default catalog with overrides applied, in default order.
func (c Config) Catalog() ([]report.Category, error) {
	defaults := report.DefaultCatalog()
	ids := make([]string, 0, len(c.Categories))
	for id := range c.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := report.FindCategory(defaults, report.CategoryID(id)); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, id)
		}
	}

	catalog := make([]report.Category, 0, len(defaults))
	for _, cat := range defaults {
		override, ok := c.Categories[string(cat.ID)]
		if !ok {
			catalog = append(catalog, cat)
			continue
		}
		if override.Disabled {
			continue
		}
		catalog = append(catalog, applyOverride(cat, override))
	}
	return catalog, nil
}

func applyOverride(cat report.Category, override CategoryOverride) report.Category {
	if override.Label != "" {
		cat.Label = override.Label
	}
	if override.Endpoint != "" {
		cat.Endpoint = override.Endpoint
	}
	if override.Prefix != "" {
		cat.Prefix = override.Prefix
	}
	if len(override.Extra) > 0 {
		extra := make(map[string]any, len(cat.Extra)+len(override.Extra))
		for k, v := range cat.Extra {
			extra[k] = v
		}
		for k, v := range override.Extra {
			extra[k] = v
		}
		cat.Extra = extra
	}
	return cat
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
