package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/taskview/internal/sse"
	"github.com/starford/taskview/internal/tasklist"
)

// Config represents the application configuration.
type Config struct {
	App  ApplicationConfig `yaml:"app"`
	API  APIConfig         `yaml:"api"`
	View ViewConfig        `yaml:"view"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.View.Validate(); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

var urlPattern = regexp.MustCompile(`^https?://[^\s/]+`)

// APIConfig points at the remote task API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the task API configuration.
func (c *APIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.Match(urlPattern).Error("must be an http(s) URL")),
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

// ViewConfig controls how task lists are presented.
//
// DefaultSort applies when a request names no sort mode. SummaryThrottle
// bounds how often summary.updated is pushed to SSE clients; zero means
// sse.DefaultSummaryThrottle and negative values are rejected.
type ViewConfig struct {
	DefaultSort     tasklist.SortMode `yaml:"default_sort"`
	SummaryThrottle time.Duration     `yaml:"summary_throttle"`
}

// Validate validates the view configuration.
func (c *ViewConfig) Validate() error {
	if c.DefaultSort == "" {
		c.DefaultSort = tasklist.DefaultSortMode
	}
	if c.SummaryThrottle == 0 {
		c.SummaryThrottle = sse.DefaultSummaryThrottle
	}
	modes := make([]any, 0, len(tasklist.SortModes()))
	for _, m := range tasklist.SortModes() {
		modes = append(modes, m)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultSort, validation.In(modes...)),
		validation.Field(&c.SummaryThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 10 * time.Second,
		},
		View: ViewConfig{
			DefaultSort:     tasklist.DefaultSortMode,
			SummaryThrottle: sse.DefaultSummaryThrottle,
		},
	}
}
