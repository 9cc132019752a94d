package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/genefit/genefit-link/internal/models"
)

// newPlansCmd creates the 'plans' command group.
func newPlansCmd() *cobra.Command {
	plansCmd := &cobra.Command{
		Use:   "plans",
		Short: "Health plan operations (create, list, show)",
		Long:  `Commands for AI-generated health plans of the current profile.`,
	}

	plansCmd.AddCommand(newPlansCreateCmd())
	plansCmd.AddCommand(newPlansListCmd())
	plansCmd.AddCommand(newPlansShowCmd())

	return plansCmd
}

func newPlansCreateCmd() *cobra.Command {
	var planType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a new health plan",
		Long: `Generate a health plan from the current profile's analyzed DNA data.

Plan types: nutrition, fitness, mental_wellness, disease_prevention

Example:
  genefit plans create --type nutrition`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			pt := models.PlanType(planType)
			if !pt.Valid() {
				return fmt.Errorf("invalid plan type %q (expected nutrition, fitness, mental_wellness or disease_prevention)", planType)
			}

			user, err := requireUser(ctx)
			if err != nil {
				return err
			}
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			plan, err := apiClient.CreateHealthPlan(ctx, user.ID, pt)
			if err != nil {
				return fmt.Errorf("failed to create plan: %w", err)
			}

			GetLogger().Info().Str("plan_id", plan.ID).Str("type", string(plan.PlanType)).Msg("Health plan created")
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s plan %q (id %s)\n", plan.PlanType, plan.Title, plan.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&planType, "type", "t", "", "Plan type (required)")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newPlansListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List health plans",
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

			plans, err := apiClient.ListHealthPlans(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output, plans, func(w io.Writer) { renderPlans(w, plans) })
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}

func newPlansShowCmd() *cobra.Command {
	var planID, output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one health plan with its content",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			plan, err := apiClient.GetHealthPlan(GetContext(), planID)
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output, plan, func(w io.Writer) { renderPlanDetail(w, plan) })
		},
	}

	cmd.Flags().StringVar(&planID, "id", "", "Plan id (required)")
	addOutputFlag(cmd, &output)
	cmd.MarkFlagRequired("id")

	return cmd
}
