// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads adapter settings.
//
// Sources are applied in order, each overriding the previous one:
// built-in defaults, the YAML config file, a .env file, then the process
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/tracing"
	pkgerrors "github.com/hrmless/adapter/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Environment variables read by Load.
const (
	EnvBaseURL       = "BASE_URL"
	EnvBaseLoginURL  = "BASE_LOGIN_URL"
	EnvRealm         = "HRMLESS_REALM"
	EnvClientID      = "HRMLESS_CLIENT_ID"
	EnvHTTPTimeout   = "HRMLESS_HTTP_TIMEOUT"
	EnvUserAgent     = "HRMLESS_USER_AGENT"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"
	EnvTraceExporter = "HRMLESS_TRACE_EXPORTER"
	EnvOTLPEndpoint  = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Config represents the complete adapter configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

// APIConfig locates the HRMLESS API and identity provider.
type APIConfig struct {
	// BaseURL is the REST API root.
	// Environment: BASE_URL
	BaseURL string `yaml:"base_url"`

	// LoginURL is the identity provider root.
	// Environment: BASE_LOGIN_URL
	LoginURL string `yaml:"login_url"`

	// Realm is the identity provider realm.
	// Environment: HRMLESS_REALM
	// Default: nervai
	Realm string `yaml:"realm"`

	// ClientID is the OAuth client.
	// Environment: HRMLESS_CLIENT_ID
	// Default: zapier
	ClientID string `yaml:"client_id"`

	// Timeout bounds each HTTP request.
	// Environment: HRMLESS_HTTP_TIMEOUT
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent on every request.
	UserAgent string `yaml:"user_agent"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`

	// AddSource adds source file and line to records.
	AddSource bool `yaml:"add_source"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Exporter is none, console or otlp-http.
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector host:port.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.hrmless.com",
			LoginURL:  "https://auth.hrmless.com",
			Realm:     "nervai",
			ClientID:  "zapier",
			Timeout:   30 * time.Second,
			UserAgent: "hrmless-adapter/1.0",
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(log.FormatText),
		},
		Tracing: TracingConfig{
			Exporter: tracing.ExporterNone,
		},
	}
}

// Options control where Load reads from.
type Options struct {
	// ConfigPath is the YAML file. Empty uses ConfigPath() when that file
	// exists.
	ConfigPath string

	// EnvFile is a dotenv file. Empty uses ".env" when it exists.
	EnvFile string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load reads configuration from configPath (optional), ./.env (optional)
// and the environment.
func Load(configPath string) (*Config, error) {
	return LoadWith(Options{ConfigPath: configPath})
}

// LoadWith reads configuration from the sources in opts.
func LoadWith(opts Options) (*Config, error) {
	cfg := Default()

	path, explicit := opts.ConfigPath, opts.ConfigPath != ""
	if !explicit {
		if p, err := ConfigPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.loadFromFile(path); err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return nil, &pkgerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", path),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return nil, &pkgerrors.ConfigError{Key: "env_file", Reason: "failed to read dotenv file", Cause: err}
	}
	if err := cfg.loadFromEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &pkgerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}
	return cfg, nil
}

// applyDefaults fills zero values so minimal files work.
func (c *Config) applyDefaults() {
	defaults := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.LoginURL == "" {
		c.API.LoginURL = defaults.API.LoginURL
	}
	if c.API.Realm == "" {
		c.API.Realm = defaults.API.Realm
	}
	if c.API.ClientID == "" {
		c.API.ClientID = defaults.API.ClientID
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaults.API.UserAgent
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = defaults.Tracing.Exporter
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return values, nil
}

// loadFromEnv applies environment overrides.
func (c *Config) loadFromEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(EnvBaseURL, &c.API.BaseURL)
	set(EnvBaseLoginURL, &c.API.LoginURL)
	set(EnvRealm, &c.API.Realm)
	set(EnvClientID, &c.API.ClientID)
	set(EnvUserAgent, &c.API.UserAgent)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvLogFormat, &c.Log.Format)
	set(EnvTraceExporter, &c.Tracing.Exporter)
	set(EnvOTLPEndpoint, &c.Tracing.Endpoint)

	if v, ok := lookup(EnvHTTPTimeout); ok && v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return &pkgerrors.ConfigError{Key: EnvHTTPTimeout, Reason: err.Error()}
		}
		c.API.Timeout = d
	}
	return nil
}

// parseTimeout accepts a Go duration or a whole number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error

	for key, value := range map[string]string{"api.base_url": c.API.BaseURL, "api.login_url": c.API.LoginURL} {
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, value))
		}
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %v", c.API.Timeout))
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error", c.Log.Level))
	}
	switch log.Format(strings.ToLower(c.Log.Format)) {
	case log.FormatText, log.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	switch c.Tracing.Exporter {
	case tracing.ExporterNone, tracing.ExporterConsole:
	case tracing.ExporterOTLPHTTP:
		if c.Tracing.Endpoint == "" {
			errs = append(errs, fmt.Errorf("tracing.endpoint is required for the otlp-http exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q is not one of none, console, otlp-http", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() *log.Config {
	lc := log.DefaultConfig()
	lc.Level = strings.ToLower(c.Log.Level)
	lc.Format = log.Format(strings.ToLower(c.Log.Format))
	lc.AddSource = c.Log.AddSource
	return lc
}

// TracingSetup returns the tracer provider configuration.
func (c *Config) TracingSetup(version string) tracing.Config {
	return tracing.Config{
		Exporter:       c.Tracing.Exporter,
		Endpoint:       c.Tracing.Endpoint,
		Insecure:       c.Tracing.Insecure,
		ServiceName:    "hrmless",
		ServiceVersion: version,
	}
}

// Write saves c as YAML to path, creating the parent directory.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
