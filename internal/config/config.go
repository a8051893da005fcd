package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Data sources.
const (
	SourceCSV        = "csv"
	SourceXLSX       = "xlsx"
	SourceSQLite     = "sqlite"
	SourcePostgres   = "postgres"
	SourceSalesforce = "salesforce"
)

// Answer providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultSystemPrompt is the system message sent with every question.
const DefaultSystemPrompt = "You are a helpful CRM and RevOps assistant."

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Answer     AnswerConfig     `yaml:"answer" mapstructure:"answer"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig selects and locates the CRM tables.
type DataConfig struct {
	Source           string  `yaml:"source" mapstructure:"source"`
	Dir              string  `yaml:"dir" mapstructure:"dir"`
	Workbook         string  `yaml:"workbook" mapstructure:"workbook"`
	DatabaseURL      string  `yaml:"database_url" mapstructure:"database_url"`
	CacheTTLSecs     int     `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	FetchTimeoutSecs int     `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	FetchRetries     int     `yaml:"fetch_retries" mapstructure:"fetch_retries"`
	FetchRateLimit   float64 `yaml:"fetch_rate_limit" mapstructure:"fetch_rate_limit"`
}

// CacheTTL returns the table cache lifetime.
func (d DataConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheTTLSecs) * time.Second
}

// AnswerConfig configures the answer service.
type AnswerConfig struct {
	Provider         string   `yaml:"provider" mapstructure:"provider"`
	Model            string   `yaml:"model" mapstructure:"model"`
	MaxTokens        int      `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature      *float64 `yaml:"temperature" mapstructure:"temperature"`
	SystemPrompt     string   `yaml:"system_prompt" mapstructure:"system_prompt"`
	TimeoutSecs      int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	BreakerThreshold int      `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int      `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REVOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so AutomaticEnv can fill them.
	v.SetDefault("data.source", SourceCSV)
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.workbook", "")
	v.SetDefault("data.database_url", "")
	v.SetDefault("data.cache_ttl_secs", 3600)
	v.SetDefault("data.fetch_timeout_secs", 30)
	v.SetDefault("data.fetch_retries", 2)
	v.SetDefault("data.fetch_rate_limit", 0)
	v.SetDefault("answer.provider", ProviderAnthropic)
	v.SetDefault("answer.model", "")
	v.SetDefault("answer.max_tokens", 2048)
	v.SetDefault("answer.system_prompt", DefaultSystemPrompt)
	v.SetDefault("answer.timeout_secs", 60)
	v.SetDefault("answer.max_attempts", 1)
	v.SetDefault("answer.breaker_threshold", 5)
	v.SetDefault("answer.breaker_reset_secs", 30)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1/")
	v.SetDefault("openai.model", "gpt-4")
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	// Optional with no default; bound so the env var is seen by Unmarshal.
	_ = v.BindEnv("answer.temperature")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is "ask", "serve" or
// "tables".
func (c *Config) Validate(mode string) error {
	var errs []string

	sources := []string{SourceCSV, SourceXLSX, SourceSQLite, SourcePostgres, SourceSalesforce}
	switch c.Data.Source {
	case SourceXLSX:
		if c.Data.Workbook == "" {
			errs = append(errs, "data.workbook is required for xlsx")
		}
	case SourceSQLite, SourcePostgres:
		if c.Data.DatabaseURL == "" {
			errs = append(errs, "data.database_url is required for "+c.Data.Source)
		}
	case SourceSalesforce:
		if c.Salesforce.ClientID == "" || c.Salesforce.Username == "" || c.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.client_id, salesforce.username and salesforce.key_path are required")
		}
	case SourceCSV:
	default:
		errs = append(errs, fmt.Sprintf("data.source %q must be one of %s", c.Data.Source, strings.Join(sources, ", ")))
	}

	switch mode {
	case "ask", "serve":
		errs = append(errs, c.validateAnswer()...)
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "tables":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateAnswer() []string {
	var errs []string
	switch c.Answer.Provider {
	case ProviderAnthropic:
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case ProviderOpenAI:
		if c.OpenAI.Key == "" {
			errs = append(errs, "openai.key is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("answer.provider %q must be anthropic or openai", c.Answer.Provider))
	}
	if c.Answer.MaxTokens <= 0 {
		errs = append(errs, "answer.max_tokens must be > 0")
	}
	if c.Answer.MaxAttempts < 1 {
		errs = append(errs, "answer.max_attempts must be >= 1")
	}
	return errs
}

// AnswerModel returns the model for the configured provider. answer.model
// overrides the provider default.
func (c *Config) AnswerModel() string {
	if c.Answer.Model != "" {
		return c.Answer.Model
	}
	if c.Answer.Provider == ProviderOpenAI {
		return c.OpenAI.Model
	}
	return c.Anthropic.Model
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
