package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// newInsightsCmd creates the 'insights' command group.
func newInsightsCmd() *cobra.Command {
	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "AI insight operations (list, daily)",
	}

	insightsCmd.AddCommand(newInsightsListCmd())
	insightsCmd.AddCommand(newInsightsDailyCmd())

	return insightsCmd
}

func newInsightsListCmd() *cobra.Command {
	var limit int
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
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

			insights, err := apiClient.ListInsights(ctx, user.ID, limit)
			if err != nil {
				return fmt.Errorf("failed to list insights: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output, insights, func(w io.Writer) { renderInsights(w, insights) })
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of insights")
	addOutputFlag(cmd, &output)

	return cmd
}

func newInsightsDailyCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Generate today's insight",
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

			daily, err := apiClient.GenerateDailyInsight(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to generate daily insight: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output, daily, func(w io.Writer) { renderDailyInsight(w, daily) })
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
