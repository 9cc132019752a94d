// Package cli provides configuration management commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/genefit/genefit-link/internal/api"
	"github.com/genefit/genefit-link/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage genefit configuration",
		Long: `Configuration management commands for genefit.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test API connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// prompt prints label and returns the trimmed answer, or def when it is empty.
func prompt(r *bufio.Reader, w io.Writer, label, def string) string {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

func promptInt(r *bufio.Reader, w io.Writer, label string, def int) int {
	input := prompt(r, w, label, strconv.Itoa(def))
	if v, err := strconv.Atoi(input); err == nil && v >= 0 {
		return v
	}
	return def
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for genefit.

The configuration will be saved to ` + config.DefaultConfigPath() + `

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()
			path := configPath()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Fprintln(out, "GeneFit Configuration Setup")
			fmt.Fprintln(out, "===========================")
			fmt.Fprintln(out)

			reader := bufio.NewReader(cmd.InOrStdin())
			cfg := config.NewConfig()

			cfg.APIBaseURL = prompt(reader, out, "API Base URL", cfg.APIBaseURL)
			cfg.APIToken = prompt(reader, out, "API Token (optional)", "")

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Tracking Settings (press Enter for defaults)")
			fmt.Fprintln(out, "--------------------------------------------")
			cfg.Tracking.PollIntervalSeconds = promptInt(reader, out, "Status poll interval (seconds)", cfg.Tracking.PollIntervalSeconds)
			cfg.Tracking.PollTimeoutMinutes = promptInt(reader, out, "Give up polling after (minutes, 0 = never)", cfg.Tracking.PollTimeoutMinutes)

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Session storage: file, redis, memory")
			cfg.SessionBackend = prompt(reader, out, "Session backend", cfg.SessionBackend)
			if cfg.SessionBackend == "redis" {
				cfg.RedisURL = prompt(reader, out, "Redis URL", "redis://localhost:6379/0")
			}

			fmt.Fprintln(out)
			proxyInput := strings.ToLower(prompt(reader, out, "Configure proxy? [y/N]", ""))
			if proxyInput == "y" || proxyInput == "yes" {
				fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
				cfg.ProxyMode = prompt(reader, out, "Proxy mode", "system")
				if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
					cfg.ProxyHost = prompt(reader, out, "Proxy host", "")
					cfg.ProxyPort = promptInt(reader, out, "Proxy port", 8080)
					cfg.ProxyUser = prompt(reader, out, "Proxy user (optional)", "")
				}
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			logger.Info().Str("path", path).Msg("Configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			fmt.Fprintln(out, "Test your configuration with: genefit config test")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (` + config.DefaultConfigPath() + `)
  2. .env and environment variables (GENEFIT_API_URL, GENEFIT_API_TOKEN, ...)
  3. Command-line flags (--api-url, --api-token, --log-file)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := GetConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			printConfig(cmd.OutOrStdout(), cfg, configPath())
			return nil
		},
	}

	return cmd
}

func printConfig(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, "Current Configuration")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "API Settings:")
	fmt.Fprintf(w, "  API Base URL: %s\n", cfg.APIBaseURL)
	if cfg.APIToken != "" {
		// Never display any portion of the token
		fmt.Fprintf(w, "  API Token:    <set (%d chars)>\n", len(cfg.APIToken))
	} else {
		fmt.Fprintln(w, "  API Token:    <not set>")
	}
	fmt.Fprintf(w, "  Retry Max:    %d\n", cfg.RetryMax)
	fmt.Fprintf(w, "  Rate Limit:   %g req/s\n", cfg.RequestsPerSecond)
	fmt.Fprintln(w)

	t := cfg.Tracking
	fmt.Fprintln(w, "Tracking:")
	fmt.Fprintf(w, "  Upload Tick:      %s (+%d%%)\n", t.UploadTick(), t.UploadIncrement)
	fmt.Fprintf(w, "  Poll Interval:    %s\n", t.PollInterval())
	if t.PollTimeoutMinutes > 0 {
		fmt.Fprintf(w, "  Poll Timeout:     %s\n", t.PollTimeout())
	} else {
		fmt.Fprintln(w, "  Poll Timeout:     none")
	}
	if t.MaxPollErrors > 0 {
		fmt.Fprintf(w, "  Max Poll Errors:  %d\n", t.MaxPollErrors)
	} else {
		fmt.Fprintln(w, "  Max Poll Errors:  unlimited")
	}
	fmt.Fprintf(w, "  Completion Delay: %s\n", t.CompletionDelay())
	fmt.Fprintf(w, "  Analysis Steps:   %d\n", t.AnalysisSteps)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Session:")
	fmt.Fprintf(w, "  Backend: %s\n", cfg.SessionBackend)
	if cfg.SessionBackend == "redis" {
		fmt.Fprintln(w, "  Redis:   <set>")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Proxy Settings:")
	fmt.Fprintf(w, "  Proxy Mode: %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(w, "  Proxy Host: %s\n", cfg.ProxyHost)
		fmt.Fprintf(w, "  Proxy Port: %d\n", cfg.ProxyPort)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Notifications: %t\n", cfg.Notify)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Logging:")
	fmt.Fprintf(w, "  Level: %s\n", cfg.LogLevel)
	if cfg.LogFile != "" {
		fmt.Fprintf(w, "  File:  %s\n", cfg.LogFile)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Configuration file: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(w, "  (file does not exist - using defaults)")
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test API connection",
		Long: `Test the API connection with current configuration.

Use this to verify the API URL and network connectivity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			cfg, err := GetConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			fmt.Fprintf(out, "API URL: %s\n", cfg.APIBaseURL)
			fmt.Fprintln(out, "Testing connection...")

			apiClient, err := api.NewClient(cfg, logger.Component("api"))
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			resp, err := apiClient.HealthCheck(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Connection FAILED")
				fmt.Fprintf(out, "  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			logger.Info().Msg("Connection test successful")
			fmt.Fprintln(out, "✓ Connection SUCCESSFUL")
			if resp.Message != "" {
				fmt.Fprintf(out, "  Server: %s\n", resp.Message)
			}
			return nil
		},
	}

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()
			if cfgFile == "" {
				fmt.Fprintln(out, "Default configuration path:")
			} else {
				fmt.Fprintln(out, "Configuration path (from --config flag):")
			}

			fmt.Fprintf(out, "  %s\n", path)
			fmt.Fprintln(out)

			if fileInfo, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: ✓ File exists")
				fmt.Fprintf(out, "Size:   %d bytes\n", fileInfo.Size())
				fmt.Fprintf(out, "Modified: %s\n", fileInfo.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Create a configuration file with: genefit config init")
			}

			return nil
		},
	}

	return cmd
}
