package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for qlikfox.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"5740"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Qlik tenant configuration
	Tenant TenantConfig `yaml:"tenant"`

	// Model builder defaults
	Modeler ModelerConfig `yaml:"modeler"`

	// MCPBearerKey gates the /mcp endpoint. Empty disables the check
	// (local development only).
	MCPBearerKey string `yaml:"-" env:"MCP_BEARER_KEY"` // Secret - not in YAML
}

// TenantConfig holds connection settings for the Qlik Cloud tenant.
type TenantConfig struct {
	// URL is the tenant base URL, e.g. https://your-tenant.eu.qlikcloud.com
	URL string `yaml:"url" env:"QLIK_TENANT_URL" env-default:""`

	// APIKey authenticates against the tenant REST APIs.
	APIKey string `yaml:"-" env:"QLIK_API_KEY"` // Secret - not in YAML

	// TimeoutSeconds bounds every tenant API call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"QLIK_TIMEOUT_SECONDS" env-default:"30"`
}

// ModelerConfig holds defaults for model builder sessions. Sessions
// can override these per project via the update_model_config tool.
type ModelerConfig struct {
	// DestinationPath is the default data connection path used in
	// generated LOAD and STORE statements.
	DestinationPath string `yaml:"destination_path" env:"MODELER_DESTINATION_PATH" env-default:"lib://DataFiles"`

	// CalendarLanguage selects month/day names for the generated
	// master calendar (en, de, fr, es, sv).
	CalendarLanguage string `yaml:"calendar_language" env:"MODELER_CALENDAR_LANGUAGE" env-default:"en"`

	// DateFormat is the script-level date format declaration.
	DateFormat string `yaml:"date_format" env:"MODELER_DATE_FORMAT" env-default:"YYYY-MM-DD"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set
// on the returned Config. Secrets (QLIK_API_KEY, MCP_BEARER_KEY) must
// come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks fields that cleanenv defaults cannot guarantee.
func (c *Config) validate() error {
	if c.Tenant.URL != "" {
		u, err := url.Parse(c.Tenant.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("tenant url %q is not a valid absolute URL", c.Tenant.URL)
		}
		c.Tenant.URL = strings.TrimRight(c.Tenant.URL, "/")
	}

	if c.Tenant.TimeoutSeconds <= 0 {
		return fmt.Errorf("tenant timeout_seconds must be positive, got %d", c.Tenant.TimeoutSeconds)
	}

	if !validCalendarLanguages[c.Modeler.CalendarLanguage] {
		return fmt.Errorf("unsupported calendar_language %q", c.Modeler.CalendarLanguage)
	}

	return nil
}

// validCalendarLanguages lists languages the calendar stage can label.
var validCalendarLanguages = map[string]bool{
	"en": true,
	"de": true,
	"fr": true,
	"es": true,
	"sv": true,
}

// IsCalendarLanguageSupported reports whether lang has month/day
// labels available for calendar generation.
func IsCalendarLanguageSupported(lang string) bool {
	return validCalendarLanguages[lang]
}
