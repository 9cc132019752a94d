// Package cli provides the command-line interface for genefit.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/genefit/genefit-link/internal/config"
	"github.com/genefit/genefit-link/internal/logging"
	"github.com/genefit/genefit-link/internal/version"
)

var (
	// Global flags
	cfgFile    string
	apiBaseURL string
	apiToken   string
	logFile    string
	verbose    bool
	debug      bool

	// Global logger
	logger *logging.Logger

	// Configuration merged from file, .env, environment and flags
	loadedConfig *config.Config

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "genefit",
		Short: "GeneFit client - upload DNA reports and follow their analysis",
		Long: `GeneFit ` + version.Version + ` - Built: ` + version.BuildTime + `
Command-line client for the GeneFit health platform.

Upload a raw DNA export, follow its analysis until it completes, and browse
the health plans, insights and wearable data generated for your profile.

Configuration is read from ` + config.DefaultConfigPath() + `,
then .env and GENEFIT_* environment variables, then flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				// config init must be able to replace a broken file
				if cmd.Name() != "init" {
					return err
				}
				cfg = config.NewConfig()
				cfg.MergeWithFlags(apiBaseURL, apiToken, logFile)
			}
			loadedConfig = cfg

			logger = logging.NewLogger(logging.Options{LogFile: cfg.LogFile})
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				logger.Warn().Err(err).Msg("Falling back to info level")
			}
			if verbose || debug {
				level = zerolog.DebugLevel
			}
			logging.SetGlobalLevel(level)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Close()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "GeneFit API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "api-token", "", "Bearer token for the GeneFit API (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\n\n🛑 Received signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newDNACmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newPlansCmd())
	rootCmd.AddCommand(newInsightsCmd())
	rootCmd.AddCommand(newWearablesCmd())
	rootCmd.AddCommand(newProvidersCmd())
	rootCmd.AddCommand(newConfigCmd())

	AddShortcuts(rootCmd)
}

// loadConfig merges configuration sources.
// Priority (highest to lowest): flags, environment (.env included), config file, defaults.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(""); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.MergeWithFlags(apiBaseURL, apiToken, logFile)
	return cfg, nil
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	loadedConfig = cfg
	return cfg, nil
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
