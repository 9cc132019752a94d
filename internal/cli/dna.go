package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/genefit/genefit-link/internal/api"
	"github.com/genefit/genefit-link/internal/constants"
	"github.com/genefit/genefit-link/internal/dashboard"
	"github.com/genefit/genefit-link/internal/events"
	internalhttp "github.com/genefit/genefit-link/internal/http"
	"github.com/genefit/genefit-link/internal/models"
	"github.com/genefit/genefit-link/internal/notify"
	"github.com/genefit/genefit-link/internal/progress"
	"github.com/genefit/genefit-link/internal/scheduler"
	"github.com/genefit/genefit-link/internal/source"
	"github.com/genefit/genefit-link/internal/tracker"
)

// newDNACmd creates the 'dna' command group.
func newDNACmd() *cobra.Command {
	dnaCmd := &cobra.Command{
		Use:   "dna",
		Short: "DNA report operations (upload, status, reports)",
		Long:  `Commands for uploading raw DNA exports and following their analysis.`,
	}

	dnaCmd.AddCommand(newDNAUploadCmd())
	dnaCmd.AddCommand(newDNAStatusCmd())
	dnaCmd.AddCommand(newDNAReportsCmd())

	return dnaCmd
}

func newDNAUploadCmd() *cobra.Command {
	var fileArg, providerTag string
	var noWait, notifyDone bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a raw DNA export and follow its analysis",
		Long: `Upload a raw DNA export for the current profile and follow the analysis
until it succeeds or fails.

The file may be a local path, an s3://bucket/key URL, or an Azure blob URL
(https://<account>.blob.core.windows.net/<container>/<blob>?<sas>).

Press Ctrl+C to stop following; the analysis continues on the server and can
be checked later with 'genefit dna status'.

Examples:
  genefit dna upload --file genome.txt --provider 23andme
  genefit dna upload --file s3://my-bucket/exports/ancestry.txt --provider ancestry_dna
  genefit dna upload --file genome.txt --provider 23andme --no-wait`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeDNAUpload(GetContext(), fileArg, providerTag, noWait, notifyDone)
		},
	}

	cmd.Flags().StringVarP(&fileArg, "file", "f", "", "DNA export: local path, s3:// URL or Azure blob URL")
	cmd.Flags().StringVarP(&providerTag, "provider", "p", "", "Provider tag (see 'genefit providers')")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once the upload is accepted instead of following the analysis")
	cmd.Flags().BoolVar(&notifyDone, "notify", false, "Show a desktop notification when the analysis finishes")

	return cmd
}

// executeDNAUpload runs one tracking flow: upload, simulated progress,
// status polling and the dashboard refresh. Desktop notifications are sent
// when notifyDone or the [notify] setting is on.
func executeDNAUpload(ctx context.Context, fileArg, providerTag string, noWait, notifyDone bool) error {
	logger := GetLogger()

	cfg, err := GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	provider, err := models.ParseProvider(providerTag)
	if err != nil {
		return err
	}

	user, err := currentUser(ctx)
	if err != nil {
		return err
	}
	var ownerID string
	if user != nil {
		ownerID = user.ID
	}

	apiClient, err := getAPIClient()
	if err != nil {
		return err
	}

	var file source.File
	if fileArg != "" {
		httpClient, err := internalhttp.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to create HTTP client: %w", err)
		}
		file, err = source.NewResolver(cfg.Sources, httpClient).Resolve(ctx, fileArg)
		if err != nil {
			return err
		}
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	fileName := fileArg
	if file != nil {
		fileName = file.Name()
	}
	ui := progress.NewTrackerUI(os.Stdout, fileName, analysisSteps(cfg.Tracking.AnalysisSteps))
	uiDone := ui.Attach(bus)

	notifier := notify.NewNotifier(cfg.Notify || notifyDone, logger.Component("notify"))

	store := dashboard.NewStore(0)
	opts := tracker.OptionsFromConfig(cfg.Tracking)
	opts.Bus = bus
	opts.Logger = logger
	opts.Store = store
	opts.OnComplete = func(ownerID, jobID string) {
		notifier.AnalysisComplete(fileName, jobID)
	}
	ctrl := tracker.NewController(apiClient, opts)

	finish := func() {
		bus.Close()
		<-uiDone
		ui.Close()
	}

	err = ctrl.Submit(ctx, tracker.Submission{OwnerID: ownerID, Provider: provider, File: file})
	if err != nil {
		finish()
		notifier.AnalysisFailed(fileName, api.Message(err))
		if api.IsValidation(err) {
			return errors.New(api.Message(err))
		}
		return fmt.Errorf("upload failed: %s", api.Message(err))
	}

	jobID := ctrl.State().JobID
	if noWait {
		ctrl.Reset()
		finish()
		fmt.Printf("Job %s submitted. Check progress with: genefit dna status --job-id %s --watch\n", jobID, jobID)
		return nil
	}

	state, err := ctrl.Wait(ctx)
	if ctx.Err() != nil {
		ctrl.Reset()
		finish()
		fmt.Printf("Stopped following job %s; the analysis continues on the server.\n", jobID)
		return ctx.Err()
	}
	finish()

	if err != nil {
		notifier.AnalysisFailed(fileName, state.LastError)
		return fmt.Errorf("job %s: %s", jobID, state.LastError)
	}

	if entry, ok := store.Get(ownerID); ok {
		snap := entry.Snapshot
		fmt.Printf("Wellness score: %.0f  DNA reports: %d  Insights: %d\n",
			snap.WellnessScore, len(snap.DNAReports), len(snap.Insights))
	}
	logger.Info().Str("job_id", jobID).Msg("Analysis complete")
	return nil
}

// analysisSteps returns n step descriptions, extending the default table when
// more steps are configured.
func analysisSteps(n int) []models.AnalysisStep {
	def := models.DefaultAnalysisSteps
	if n <= 0 || n == len(def) {
		return def
	}
	if n < len(def) {
		return def[:n]
	}
	steps := make([]models.AnalysisStep, n)
	copy(steps, def)
	for i := len(def); i < n; i++ {
		steps[i] = models.AnalysisStep{Title: fmt.Sprintf("Step %d", i+1)}
	}
	return steps
}

func newDNAStatusCmd() *cobra.Command {
	var jobID, output string
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the analysis status of an uploaded report",
		Long: `Show the analysis status of an uploaded DNA report.

With --watch, keep polling until the analysis succeeds or fails.

Examples:
  genefit dna status --job-id 6f1c...
  genefit dna status --job-id 6f1c... --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			ctx := GetContext()

			cfg, err := GetConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}
			steps := analysisSteps(cfg.Tracking.AnalysisSteps)

			if watch {
				return watchJob(ctx, cmd.OutOrStdout(), apiClient, jobID, steps)
			}

			job, err := apiClient.GetJobStatus(ctx, jobID)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			step := tracker.StepIndex(job.ProgressPercent, len(steps))
			return writeOutput(cmd.OutOrStdout(), output, job, func(w io.Writer) { renderJob(w, job, steps, step) })
		},
	}

	cmd.Flags().StringVarP(&jobID, "job-id", "j", "", "Job id returned by 'dna upload' (required)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the analysis reaches a terminal status")
	addOutputFlag(cmd, &output)
	cmd.MarkFlagRequired("job-id")

	return cmd
}

// watchJob polls jobID until it succeeds, fails or ctx is cancelled.
func watchJob(ctx context.Context, w io.Writer, client tracker.StatusClient, jobID string, steps []models.AnalysisStep) error {
	cfg, err := GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := GetLogger()

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	ui := progress.NewTextUI(w, jobID, steps)
	uiDone := ui.Attach(bus)
	defer func() {
		bus.Close()
		<-uiDone
	}()

	poller := tracker.NewPoller(client, scheduler.New(nil), tracker.PollerConfig{
		Interval:  cfg.Tracking.PollInterval(),
		Timeout:   cfg.Tracking.PollTimeout(),
		MaxErrors: cfg.Tracking.MaxPollErrors,
		Steps:     len(steps),
	}, logger.Component("poller"), bus)

	done := make(chan error, 1)
	start := time.Now()
	err = poller.Start(ctx, jobID, tracker.PollCallbacks{
		OnProgress: func(job *models.Job, step int) {
			bus.PublishAnalysisStep(job.JobID, string(job.Status), job.ProgressPercent, step, len(steps))
		},
		OnSucceeded: func(job *models.Job) { done <- nil },
		OnFailed:    func(err error) { done <- err },
	})
	if err != nil {
		return err
	}
	defer poller.Stop()

	fmt.Fprintf(w, "Watching job %s (every %s)...\n", jobID, cfg.Tracking.PollInterval())
	select {
	case err := <-done:
		if err != nil {
			if errors.Is(err, tracker.ErrAnalysisFailed) {
				return fmt.Errorf("job %s: %s", jobID, tracker.MsgAnalysisFailed)
			}
			return fmt.Errorf("job %s: %s", jobID, api.Message(err))
		}
		fmt.Fprintf(w, "✓ Analysis complete for job %s in %s\n", jobID, time.Since(start).Round(time.Second))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newDNAReportsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List the DNA reports of the current profile",
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
			reports, err := apiClient.ListDNAReports(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output, reports, func(w io.Writer) { renderReports(w, reports) })
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
