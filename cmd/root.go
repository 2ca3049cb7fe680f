// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/agent"
	"github.com/xkilldash9x/formpilot/internal/browser"
	"github.com/xkilldash9x/formpilot/internal/config"
	"github.com/xkilldash9x/formpilot/internal/llmclient"
	"github.com/xkilldash9x/formpilot/internal/observability"
)

// LLMFactory builds the oracle transport for a run.
type LLMFactory func(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (schemas.LLMClient, error)

// LauncherFactory builds the browser launcher for a run.
type LauncherFactory func(cfg config.BrowserConfig, logger *zap.Logger) agent.Launcher

// app is the state shared by one command tree. A fresh tree, and so a fresh
// viper instance, is built for every invocation.
type app struct {
	cfgFile string
	envFile string

	v   *viper.Viper
	cfg *config.Config

	newLLM      LLMFactory
	newLauncher LauncherFactory
}

// Option customizes a command tree.
type Option func(*app)

// WithLLMFactory replaces the oracle transport constructor.
func WithLLMFactory(f LLMFactory) Option {
	return func(a *app) { a.newLLM = f }
}

// WithLauncherFactory replaces the browser launcher constructor.
func WithLauncherFactory(f LauncherFactory) Option {
	return func(a *app) { a.newLauncher = f }
}

func defaultLauncher(cfg config.BrowserConfig, logger *zap.Logger) agent.Launcher {
	l := browser.NewLauncher(cfg, logger)
	return agent.LauncherFunc(func(ctx context.Context) (agent.Page, error) {
		session, err := l.Launch(ctx)
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}

// NewRootCommand builds the formpilot command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		newLLM:      llmclient.NewClient,
		newLauncher: defaultLauncher,
	}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "formpilot",
		Short: "formpilot drives login flows in a real browser from plain-language scenarios.",
		Long: `formpilot reads a scenario from a feature file, opens the target application
in Chrome and fills the described fields phase by phase, asking a language model
for the concrete UI actions on each screen.

Run without arguments for an interactive prompt.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.interactive(cmd)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file read before the environment (default is env_file from config, .env)")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newShortcutsCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with os.Args and the given context.
func Execute(ctx context.Context, opts ...Option) error {
	rootCmd := NewRootCommand(opts...)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initialize loads the configuration and dotenv file, then starts the
// logger. Validation is left to the commands that need a complete config.
func (a *app) initialize() error {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnvironment(v)

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment lookups are lazy, so variables exported here still reach
	// the unmarshal below.
	envFile := a.envFile
	if envFile == "" {
		envFile = v.GetString("env_file")
	}
	if _, err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		observability.InitializeLogger(config.NewDefaultConfig().Logger)
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	a.v, a.cfg = v, &cfg

	observability.InitializeLogger(cfg.Logger)
	observability.GetLogger().Debug("Configuration loaded.",
		zap.String("version", Version),
		zap.String("config_file", v.ConfigFileUsed()))
	return nil
}

// reload re-reads the config after command flags were bound.
func (a *app) reload() error {
	var cfg config.Config
	if err := a.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to re-unmarshal config with flag overrides: %w", err)
	}
	a.cfg = &cfg
	return nil
}
