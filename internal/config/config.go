// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingCredential is returned when no API key is configured for the oracle.
// A run never starts without it.
var ErrMissingCredential = errors.New("oracle API credential is not configured")

// ErrMissingTargetURL is returned when no application URL is configured.
var ErrMissingTargetURL = errors.New("target application URL is not configured")

// Config holds the entire application configuration. It is built once per
// process and passed by reference to the components that need it.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Target  TargetConfig  `mapstructure:"target" yaml:"target"`
	Oracle  OracleConfig  `mapstructure:"oracle" yaml:"oracle"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	EnvFile string        `mapstructure:"env_file" yaml:"env_file"`
}

type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

type BrowserConfig struct {
	Headless        bool              `mapstructure:"headless" yaml:"headless"`
	ExecPath        string            `mapstructure:"exec_path" yaml:"exec_path"`
	IgnoreTLSErrors bool              `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string          `mapstructure:"args" yaml:"args"`
	WindowWidth     int               `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int               `mapstructure:"window_height" yaml:"window_height"`
	Headers         map[string]string `mapstructure:"headers" yaml:"headers"`
}

type TargetConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// LLMProvider names a supported oracle backend.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
)

type OracleConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	CountTokens       bool          `mapstructure:"count_tokens" yaml:"count_tokens"`
}

// AgentConfig parameterizes the phase controller.
type AgentConfig struct {
	MaxPhases           int           `mapstructure:"max_phases" yaml:"max_phases"`
	ElementTimeout      time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	NavigationTimeout   time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SnapshotTimeout     time.Duration `mapstructure:"snapshot_timeout" yaml:"snapshot_timeout"`
	NavigationSettle    time.Duration `mapstructure:"navigation_settle" yaml:"navigation_settle"`
	ActionSettle        time.Duration `mapstructure:"action_settle" yaml:"action_settle"`
	FinalWait           time.Duration `mapstructure:"final_wait" yaml:"final_wait"`
	SubmitKeyword       string        `mapstructure:"submit_keyword" yaml:"submit_keyword"`
	SummaryLimit        int           `mapstructure:"summary_limit" yaml:"summary_limit"`
	OracleFailureBudget int           `mapstructure:"oracle_failure_budget" yaml:"oracle_failure_budget"`
	ArtifactsDir        string        `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// NewDefaultConfig returns a configuration populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default on the given viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "formpilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 900)

	// -- Oracle --
	v.SetDefault("oracle.provider", string(ProviderOpenAI))
	v.SetDefault("oracle.model", "gpt-4.1")
	v.SetDefault("oracle.api_timeout", "60s")
	v.SetDefault("oracle.temperature", 0.0)
	v.SetDefault("oracle.max_tokens", 0)
	v.SetDefault("oracle.requests_per_minute", 0.0)
	v.SetDefault("oracle.count_tokens", false)

	// -- Agent --
	v.SetDefault("agent.max_phases", 8)
	v.SetDefault("agent.element_timeout", "4s")
	v.SetDefault("agent.navigation_timeout", "30s")
	v.SetDefault("agent.snapshot_timeout", "10s")
	v.SetDefault("agent.navigation_settle", "500ms")
	v.SetDefault("agent.action_settle", "1s")
	v.SetDefault("agent.final_wait", "2s")
	v.SetDefault("agent.submit_keyword", "login")
	v.SetDefault("agent.summary_limit", 100)
	v.SetDefault("agent.oracle_failure_budget", 0)
	v.SetDefault("agent.artifacts_dir", ".")

	// -- Store --
	v.SetDefault("store.path", "shortcuts.json")

	v.SetDefault("env_file", ".env")
}

// BindEnvironment wires the FORMPILOT_ prefixed variables plus the legacy
// variable names the tool has always honoured.
func BindEnvironment(v *viper.Viper) {
	v.SetEnvPrefix("FORMPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Later names win only when earlier ones are unset.
	_ = v.BindEnv("oracle.api_key", "FORMPILOT_ORACLE_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("target.url", "FORMPILOT_TARGET_URL", "APP_URL")
}

// NewConfigFromViper creates a validated configuration from a viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Oracle.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Target.URL) == "" {
		return ErrMissingTargetURL
	}
	return c.Agent.Validate()
}

// Validate checks the oracle settings.
func (o *OracleConfig) Validate() error {
	if strings.TrimSpace(o.APIKey) == "" {
		return ErrMissingCredential
	}
	switch o.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported oracle.provider '%s' (supported: %s, %s)", o.Provider, ProviderOpenAI, ProviderGemini)
	}
	if o.APITimeout <= 0 {
		return fmt.Errorf("oracle.api_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the phase controller settings.
func (a *AgentConfig) Validate() error {
	if a.MaxPhases <= 0 {
		return fmt.Errorf("agent.max_phases must be a positive integer")
	}
	if a.ElementTimeout <= 0 {
		return fmt.Errorf("agent.element_timeout must be a positive duration")
	}
	if a.NavigationTimeout <= 0 {
		return fmt.Errorf("agent.navigation_timeout must be a positive duration")
	}
	if a.SnapshotTimeout <= 0 {
		return fmt.Errorf("agent.snapshot_timeout must be a positive duration")
	}
	if a.SummaryLimit <= 0 {
		return fmt.Errorf("agent.summary_limit must be a positive integer")
	}
	if a.OracleFailureBudget < 0 {
		return fmt.Errorf("agent.oracle_failure_budget cannot be negative")
	}
	return nil
}
