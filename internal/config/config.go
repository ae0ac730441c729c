// Package config loads runtime settings from defaults, an optional
// deckenrich.yaml, an optional .env file and the process environment, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/genclient"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Production endpoints.
const (
	DefaultTextURL    = "https://web-production-e3796.up.railway.app"
	DefaultChartURL   = "https://analytics-v30-production.up.railway.app"
	DefaultImageURL   = "https://web-production-1b5df.up.railway.app"
	DefaultDiagramURL = "https://web-production-e0ad0.up.railway.app"
)

// Service holds the settings of one generation service.
type Service struct {
	URL          string
	Timeout      time.Duration
	PollInterval time.Duration // job services only
}

// Config is the resolved runtime configuration.
type Config struct {
	Text    Service
	Chart   Service
	Image   Service
	Diagram Service

	LogLevel  string
	LogFormat string

	ValidationThreshold float64
	MaxConcurrency      int
	RunDeadline         time.Duration
}

// LoadOptions locates optional configuration files.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. When empty, deckenrich.yaml is
	// looked up in the working directory and skipped if absent.
	ConfigFile string

	// EnvFiles are dotenv files loaded before reading the environment.
	// Missing files are ignored. Variables already set are not overridden.
	EnvFiles []string
}

var keys = []string{
	"text_service_url", "text_service_timeout",
	"chart_service_url", "chart_service_timeout", "chart_poll_interval",
	"image_service_url", "image_service_timeout",
	"diagram_service_url", "diagram_service_timeout", "diagram_poll_interval",
	"log_level", "log_format",
	"validation_threshold", "dispatch_max_concurrency", "run_deadline",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("text_service_url", DefaultTextURL)
	v.SetDefault("text_service_timeout", "60")
	v.SetDefault("chart_service_url", DefaultChartURL)
	v.SetDefault("chart_service_timeout", "60")
	v.SetDefault("chart_poll_interval", "2")
	v.SetDefault("image_service_url", DefaultImageURL)
	v.SetDefault("image_service_timeout", "60")
	v.SetDefault("diagram_service_url", DefaultDiagramURL)
	v.SetDefault("diagram_service_timeout", "60")
	v.SetDefault("diagram_poll_interval", "2")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("validation_threshold", "2.0")
	v.SetDefault("dispatch_max_concurrency", "0")
	v.SetDefault("run_deadline", "0")
}

// Load resolves the configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	for _, path := range opts.EnvFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", k, err)
		}
	}

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("deckenrich")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read deckenrich.yaml: %w", err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	p := parser{v: v}
	cfg := &Config{
		Text: Service{
			URL:     p.url("text_service_url"),
			Timeout: p.duration("text_service_timeout"),
		},
		Chart: Service{
			URL:          p.url("chart_service_url"),
			Timeout:      p.duration("chart_service_timeout"),
			PollInterval: p.duration("chart_poll_interval"),
		},
		Image: Service{
			URL:     p.url("image_service_url"),
			Timeout: p.duration("image_service_timeout"),
		},
		Diagram: Service{
			URL:          p.url("diagram_service_url"),
			Timeout:      p.duration("diagram_service_timeout"),
			PollInterval: p.duration("diagram_poll_interval"),
		},
		LogLevel:            strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:           strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		ValidationThreshold: p.float("validation_threshold"),
		MaxConcurrency:      p.int("dispatch_max_concurrency"),
		RunDeadline:         p.duration("run_deadline"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// parser reads typed values, keeping the first error.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) fail(key string, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("config: %s=%q: %w", strings.ToUpper(key), raw, err)
	}
}

func (p *parser) url(key string) string {
	return strings.TrimRight(strings.TrimSpace(p.v.GetString(key)), "/")
}

// duration accepts whole seconds ("60") or a Go duration ("1m30s").
func (p *parser) duration(key string) time.Duration {
	raw := strings.TrimSpace(p.v.GetString(key))
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
	}
	return d
}

func (p *parser) float(key string) float64 {
	raw := strings.TrimSpace(p.v.GetString(key))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
	}
	return f
}

func (p *parser) int(key string) int {
	raw := strings.TrimSpace(p.v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
	}
	return n
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	for _, s := range []struct {
		name string
		svc  Service
		poll bool
	}{
		{"TEXT", c.Text, false},
		{"CHART", c.Chart, true},
		{"IMAGE", c.Image, false},
		{"DIAGRAM", c.Diagram, true},
	} {
		if s.svc.URL == "" {
			errs = append(errs, fmt.Errorf("%s_SERVICE_URL is empty", s.name))
		}
		if s.svc.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("%s_SERVICE_TIMEOUT must be positive", s.name))
		}
		if s.poll {
			if s.svc.PollInterval <= 0 {
				errs = append(errs, fmt.Errorf("%s_POLL_INTERVAL must be positive", s.name))
			} else if s.svc.PollInterval > s.svc.Timeout {
				errs = append(errs, fmt.Errorf("%s_POLL_INTERVAL exceeds %s_SERVICE_TIMEOUT", s.name, s.name))
			}
		}
	}
	if c.ValidationThreshold < 1 {
		errs = append(errs, errors.New("VALIDATION_THRESHOLD must be at least 1"))
	}
	if c.MaxConcurrency < 0 {
		errs = append(errs, errors.New("DISPATCH_MAX_CONCURRENCY must not be negative"))
	}
	if c.RunDeadline < 0 {
		errs = append(errs, errors.New("RUN_DEADLINE must not be negative"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not json or console", c.LogFormat))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// ServiceConfig converts the settings of service t for genclient.
func (c *Config) ServiceConfig(t deck.ServiceType) genclient.ServiceConfig {
	var s Service
	switch t {
	case deck.ServiceText:
		s = c.Text
	case deck.ServiceChart:
		s = c.Chart
	case deck.ServiceImage:
		s = c.Image
	case deck.ServiceDiagram:
		s = c.Diagram
	}
	return genclient.ServiceConfig{
		Name:         string(t),
		BaseURL:      s.URL,
		Timeout:      s.Timeout,
		PollInterval: s.PollInterval,
	}
}

// Clients builds HTTP clients for the four services.
func (c *Config) Clients(opts ...genclient.Option) genclient.Set {
	return genclient.Set{
		Text:    genclient.NewTextClient(c.ServiceConfig(deck.ServiceText), opts...),
		Chart:   genclient.NewChartClient(c.ServiceConfig(deck.ServiceChart), opts...),
		Image:   genclient.NewImageClient(c.ServiceConfig(deck.ServiceImage), opts...),
		Diagram: genclient.NewDiagramClient(c.ServiceConfig(deck.ServiceDiagram), opts...),
	}
}
