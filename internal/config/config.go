package config

import (
	"fmt"
	"time"

	"github.com/loykin/devlaunch/internal/logger"
	"github.com/loykin/devlaunch/internal/process"
	"github.com/loykin/devlaunch/internal/toolcheck"
	"github.com/spf13/viper"
)

// Service describes one launchable service and how to probe it.
type Service struct {
	Name         string        `toml:"name" mapstructure:"name"`
	Command      string        `toml:"command" mapstructure:"command"`
	WorkDir      string        `toml:"workdir" mapstructure:"workdir"`
	Env          []string      `toml:"env" mapstructure:"env"`
	URL          string        `toml:"url" mapstructure:"url"`             // base URL shown in the summary
	HealthURL    string        `toml:"health_url" mapstructure:"health_url"` // endpoint polled for readiness
	ProbeTimeout time.Duration `toml:"probe_timeout" mapstructure:"probe_timeout"`
}

// Spec converts the service into a process spec.
func (s Service) Spec() process.Spec {
	return process.Spec{Name: s.Name, Command: s.Command, WorkDir: s.WorkDir, Env: s.Env}
}

// Endpoint is one URL smoke-tested after the backend probe.
type Endpoint struct {
	Name string `toml:"name" mapstructure:"name"`
	URL  string `toml:"url" mapstructure:"url"`
}

// EnvFile describes the key-value file written once for the frontend.
type EnvFile struct {
	Path    string            `toml:"path" mapstructure:"path"`
	Entries map[string]string `toml:"entries" mapstructure:"entries"`
}

// Server configures the optional local status API.
type Server struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// History configures the optional run-history database.
type History struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" mapstructure:"path"`
}

// Config is the full launcher configuration. All values have working defaults
// so a config file is optional.
type Config struct {
	Backend  Service `toml:"backend" mapstructure:"backend"`
	Frontend Service `toml:"frontend" mapstructure:"frontend"`

	PreemptNames    []string      `toml:"preempt_names" mapstructure:"preempt_names"`
	Grace           time.Duration `toml:"grace" mapstructure:"grace"`
	ProbeInterval   time.Duration `toml:"probe_interval" mapstructure:"probe_interval"`
	MonitorInterval time.Duration `toml:"monitor_interval" mapstructure:"monitor_interval"`
	OpenBrowser     bool          `toml:"open_browser" mapstructure:"open_browser"`

	Tools     []toolcheck.Tool `toml:"tools" mapstructure:"tools"`
	Endpoints []Endpoint       `toml:"endpoints" mapstructure:"endpoints"`
	EnvFile   EnvFile          `toml:"env_file" mapstructure:"env_file"`

	Log     logger.Config `toml:"log" mapstructure:"log"`
	Server  *Server       `toml:"server" mapstructure:"server"`
	History *History      `toml:"history" mapstructure:"history"`
}

// Default returns the built-in configuration: a Node backend on :3002 and an
// npm dev frontend on :3000, matching the conventional project layout.
func Default() *Config {
	return &Config{
		Backend: Service{
			Name:         "backend",
			Command:      "node working-server.js",
			WorkDir:      ".",
			URL:          "http://localhost:3002",
			HealthURL:    "http://localhost:3002/api/health",
			ProbeTimeout: 30 * time.Second,
		},
		Frontend: Service{
			Name:         "frontend",
			Command:      "npm run dev",
			WorkDir:      "frontend",
			URL:          "http://localhost:3000",
			HealthURL:    "http://localhost:3000/",
			ProbeTimeout: 45 * time.Second,
		},
		PreemptNames:    []string{"node", "npm"},
		Grace:           5 * time.Second,
		ProbeInterval:   time.Second,
		MonitorInterval: 10 * time.Second,
		OpenBrowser:     true,
		Tools: []toolcheck.Tool{
			{Name: "node", Command: "node --version", Hint: "install Node.js first"},
			{Name: "npm", Command: "npm --version", Hint: "install npm or restart your terminal"},
		},
		Endpoints: []Endpoint{
			{Name: "Health Check", URL: "http://localhost:3002/api/health"},
			{Name: "Categories API", URL: "http://localhost:3002/api/categories"},
		},
		EnvFile: EnvFile{
			Path: "frontend/.env.local",
			Entries: map[string]string{
				"NEXT_PUBLIC_APP_NAME":             "ExpenseFlow Pro",
				"NEXT_PUBLIC_APP_URL":              "http://localhost:3000",
				"NEXT_PUBLIC_API_URL":              "http://localhost:3002",
				"NODE_ENV":                         "development",
				"NEXT_PUBLIC_FEATURE_OCR":          "true",
				"NEXT_PUBLIC_FEATURE_NOTIFICATIONS": "true",
				"NEXT_PUBLIC_FEATURE_ANALYTICS":    "true",
			},
		},
		Log: logger.Config{
			Slog: logger.SlogConfig{Level: logger.LevelInfo, Color: true, TimeStamps: false},
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	for _, s := range []Service{c.Backend, c.Frontend} {
		if s.Name == "" {
			return fmt.Errorf("service name must not be empty")
		}
		if s.Command == "" {
			return fmt.Errorf("service %s: command must not be empty", s.Name)
		}
		if s.HealthURL == "" {
			return fmt.Errorf("service %s: health_url must not be empty", s.Name)
		}
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("probe_interval must be positive")
	}
	if c.Grace <= 0 {
		return fmt.Errorf("grace must be positive")
	}
	return nil
}
