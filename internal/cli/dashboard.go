package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// newDashboardCmd creates the 'dashboard' command group.
func newDashboardCmd() *cobra.Command {
	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the aggregated dashboard of the current profile",
	}
	dashboardCmd.AddCommand(newDashboardShowCmd())
	return dashboardCmd
}

func newDashboardShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show reports, plans, insights and wearable summary",
		Long: `Show the dashboard for the current profile: DNA reports, health plans,
recent insights, risk assessments, wearable summary and wellness score.

Examples:
  genefit dashboard show
  genefit dashboard show -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			ctx := GetContext()

			user, err := requireUser(ctx)
			if err != nil {
				return err
			}
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			snap, err := apiClient.RequestAggregateRefresh(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to load dashboard: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output, snap, func(w io.Writer) { renderDashboard(w, snap) })
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
