// Package cli provides command shortcuts for common operations.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
// Shortcuts provide convenient aliases for commonly-used operations.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newUploadShortcut())
	rootCmd.AddCommand(newStatusShortcut())
	rootCmd.AddCommand(newLsShortcut())
}

// newUploadShortcut creates the 'upload' shortcut command.
// Shortcut for: dna upload
func newUploadShortcut() *cobra.Command {
	var providerTag string
	var noWait, notifyDone bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a DNA export (shortcut for 'dna upload')",
		Long: `Shortcut for uploading a DNA export and following its analysis.

Equivalent to: genefit dna upload --file <file> --provider <tag>

Examples:
  genefit upload genome.txt --provider 23andme
  genefit upload s3://my-bucket/ancestry.txt -p ancestry_dna --no-wait`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeDNAUpload(GetContext(), args[0], providerTag, noWait, notifyDone)
		},
	}

	cmd.Flags().StringVarP(&providerTag, "provider", "p", "", "Provider tag (see 'genefit providers')")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once the upload is accepted")
	cmd.Flags().BoolVar(&notifyDone, "notify", false, "Show a desktop notification when the analysis finishes")

	return cmd
}

// newStatusShortcut creates the 'status' shortcut command.
// Shortcut for: dna status --watch
func newStatusShortcut() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Watch an analysis until it finishes (shortcut for 'dna status --watch')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := GetConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}
			return watchJob(GetContext(), cmd.OutOrStdout(), apiClient, args[0], analysisSteps(cfg.Tracking.AnalysisSteps))
		},
	}

	return cmd
}

// newLsShortcut creates the 'ls' shortcut command.
// Shortcut for: dna reports
func newLsShortcut() *cobra.Command {
	cmd := newDNAReportsCmd()
	cmd.Use = "ls"
	cmd.Short = "List DNA reports (shortcut for 'dna reports')"
	return cmd
}
