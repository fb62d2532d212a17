// Package config provides configuration loading and validation for the form
// filler. Values come from defaults, an optional config file, and environment
// variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/llm"
	"github.com/jonathan/form-filler/internal/matching"
	"github.com/jonathan/form-filler/internal/upload"
	"github.com/jonathan/form-filler/internal/wizard"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "FORM_FILLER"

// Config represents the application configuration.
type Config struct {
	APIKey            string        `mapstructure:"api_key" json:"-"`                             // Gemini API key
	DatabaseURL       string        `mapstructure:"database_url" json:"database_url,omitempty"`   // PostgreSQL connection URL, optional
	Port              int           `mapstructure:"port" json:"port"`                             // HTTP port for serve
	LogLevel          string        `mapstructure:"log_level" json:"log_level"`                   // debug, info, warn, error
	LogFormat         string        `mapstructure:"log_format" json:"log_format"`                 // auto, console or json
	MatchMode         string        `mapstructure:"match_mode" json:"match_mode"`                 // per_source or merged
	ModelTier         string        `mapstructure:"model_tier" json:"model_tier"`                 // lite, standard, advanced
	Model             string        `mapstructure:"model" json:"model,omitempty"`                 // overrides the model used for model_tier
	LocalForms        bool          `mapstructure:"local_forms" json:"local_forms"`               // read fillable PDF fields before calling the model
	SessionTTL        time.Duration `mapstructure:"session_ttl" json:"session_ttl"`               // idle session lifetime
	ExtractionTimeout time.Duration `mapstructure:"extraction_timeout" json:"extraction_timeout"` // per model call
	MaxFileSize       int64         `mapstructure:"max_file_size" json:"max_file_size"`           // bytes per uploaded file
	RateLimit         int           `mapstructure:"rate_limit" json:"rate_limit"`                 // extraction requests per client per minute; 0 disables
	Steps             []wizard.Step `mapstructure:"steps" json:"steps,omitempty"`                 // wizard sequence; empty means default
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Port:              8080,
		LogLevel:          "info",
		LogFormat:         "auto",
		MatchMode:         string(matching.ModePerSource),
		ModelTier:         string(llm.TierStandard),
		LocalForms:        true,
		SessionTTL:        time.Hour,
		ExtractionTimeout: 60 * time.Second,
		MaxFileSize:       upload.DefaultMaxFileSize,
		RateLimit:         30,
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply. GEMINI_API_KEY and DATABASE_URL are honored
// alongside their prefixed forms.
func Load(path string) (*Config, error) {
	v := viper.New()
	d := Defaults()

	v.SetDefault("api_key", "")
	v.SetDefault("database_url", "")
	v.SetDefault("port", d.Port)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("match_mode", d.MatchMode)
	v.SetDefault("model_tier", d.ModelTier)
	v.SetDefault("model", "")
	v.SetDefault("local_forms", d.LocalForms)
	v.SetDefault("session_ttl", d.SessionTTL)
	v.SetDefault("extraction_timeout", d.ExtractionTimeout)
	v.SetDefault("max_file_size", d.MaxFileSize)
	v.SetDefault("rate_limit", d.RateLimit)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("file", fmt.Sprintf("failed to read config file %s", path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError("file", "failed to decode configuration", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values. The API key is
// not checked here since only commands that call the model need it.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.NewConfigError("port", fmt.Sprintf("port %d out of range", c.Port), nil)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return errors.NewConfigError("log_level", fmt.Sprintf("unknown log level %q", c.LogLevel), err)
	}
	switch c.LogFormat {
	case "", "auto", "console", "json":
	default:
		return errors.NewConfigError("log_format", fmt.Sprintf("unknown log format %q", c.LogFormat), nil)
	}
	if _, err := matching.ParseMode(c.MatchMode); err != nil {
		return errors.NewConfigError("match_mode", err.Error(), err)
	}
	if _, err := llm.ParseModelTier(c.ModelTier); err != nil {
		return errors.NewConfigError("model_tier", err.Error(), err)
	}
	if c.SessionTTL <= 0 {
		return errors.NewConfigError("session_ttl", "must be positive", nil)
	}
	if c.ExtractionTimeout <= 0 {
		return errors.NewConfigError("extraction_timeout", "must be positive", nil)
	}
	if c.MaxFileSize <= 0 {
		return errors.NewConfigError("max_file_size", "must be positive", nil)
	}
	if c.RateLimit < 0 {
		return errors.NewConfigError("rate_limit", "must not be negative", nil)
	}
	if len(c.Steps) > 0 {
		if err := wizard.ValidateSteps(c.Steps); err != nil {
			return errors.NewConfigError("steps", err.Error(), err)
		}
	}
	return nil
}

// RequireAPIKey fails when no model API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return errors.NewConfigError("api_key", "set GEMINI_API_KEY or "+EnvPrefix+"_API_KEY", errors.ErrAPIKeyRequired)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// This is used to apply CLI flag values over a loaded config.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.MatchMode == "" {
		result.MatchMode = defaults.MatchMode
	}
	if result.ModelTier == "" {
		result.ModelTier = defaults.ModelTier
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.SessionTTL == 0 {
		result.SessionTTL = defaults.SessionTTL
	}
	if result.ExtractionTimeout == 0 {
		result.ExtractionTimeout = defaults.ExtractionTimeout
	}
	if result.MaxFileSize == 0 {
		result.MaxFileSize = defaults.MaxFileSize
	}
	if len(result.Steps) == 0 {
		result.Steps = defaults.Steps
	}

	return result
}

// Matcher builds the field matcher for the configured mode.
func (c *Config) Matcher() (*matching.Matcher, error) {
	mode, err := matching.ParseMode(c.MatchMode)
	if err != nil {
		return nil, err
	}
	return matching.New(mode, nil), nil
}

// Tier returns the configured model tier.
func (c *Config) Tier() llm.ModelTier {
	tier, err := llm.ParseModelTier(c.ModelTier)
	if err != nil {
		return llm.TierStandard
	}
	return tier
}

// LLMConfig returns the model configuration, with Model replacing the
// default model of the configured tier.
func (c *Config) LLMConfig() *llm.Config {
	lc := llm.DefaultConfig()
	if c.Model != "" {
		lc = lc.WithModel(c.Tier(), c.Model)
	}
	return lc
}

// WizardSteps returns the configured steps, or the defaults, with the file
// size limit applied to upload steps that do not set their own.
func (c *Config) WizardSteps() []wizard.Step {
	steps := c.Steps
	if len(steps) == 0 {
		steps = wizard.DefaultSteps()
	}
	out := make([]wizard.Step, len(steps))
	for i, s := range steps {
		if s.IsUpload() {
			if s.MaxFileSize == 0 || (len(c.Steps) == 0 && c.MaxFileSize > 0) {
				s.MaxFileSize = c.MaxFileSize
			}
			if len(s.AcceptedTypes) == 0 {
				s.AcceptedTypes = upload.DefaultAcceptedTypes
			}
		}
		out[i] = s
	}
	return out
}
