package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/genefit/genefit-link/internal/models"
)

// newWearablesCmd creates the 'wearables' command group.
func newWearablesCmd() *cobra.Command {
	wearablesCmd := &cobra.Command{
		Use:   "wearables",
		Short: "Wearable data operations (sync, show)",
	}

	wearablesCmd.AddCommand(newWearablesSyncCmd())
	wearablesCmd.AddCommand(newWearablesShowCmd())

	return wearablesCmd
}

func newWearablesSyncCmd() *cobra.Command {
	var device string
	var steps, heartRate, sleep, calories, active float64

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Send wearable readings for the current profile",
		Long: `Send one set of wearable readings. Only the metrics you pass are sent.

Example:
  genefit wearables sync --device "Fitbit Charge 6" --steps 8432 --heart-rate 64 --sleep 7.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			in := models.WearableSync{DeviceName: device}
			set := func(name string, v float64, dst **float64) {
				if cmd.Flags().Changed(name) {
					val := v
					*dst = &val
				}
			}
			set("steps", steps, &in.Steps)
			set("heart-rate", heartRate, &in.HeartRate)
			set("sleep", sleep, &in.SleepHours)
			set("calories", calories, &in.Calories)
			set("active-minutes", active, &in.ActiveMinutes)

			user, err := requireUser(ctx)
			if err != nil {
				return err
			}
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			resp, err := apiClient.SyncWearables(ctx, user.ID, in)
			if err != nil {
				return fmt.Errorf("failed to sync wearables: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", orDash(resp.Message))
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "Device name (required)")
	cmd.Flags().Float64Var(&steps, "steps", 0, "Step count")
	cmd.Flags().Float64Var(&heartRate, "heart-rate", 0, "Resting heart rate (bpm)")
	cmd.Flags().Float64Var(&sleep, "sleep", 0, "Sleep (hours)")
	cmd.Flags().Float64Var(&calories, "calories", 0, "Calories burned")
	cmd.Flags().Float64Var(&active, "active-minutes", 0, "Active minutes")
	cmd.MarkFlagRequired("device")

	return cmd
}

func newWearablesShowCmd() *cobra.Command {
	var days int
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show recent wearable readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
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

			readings, err := apiClient.GetWearableData(ctx, user.ID, days)
			if err != nil {
				return fmt.Errorf("failed to get wearable data: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output, readings, func(w io.Writer) { renderWearables(w, readings) })
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 7, "Number of days to show")
	addOutputFlag(cmd, &output)

	return cmd
}
