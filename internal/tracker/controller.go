// Package tracker drives a DNA upload from submission to a terminal analysis
// outcome: simulated upload progress, status polling, and the dashboard
// refresh that follows a successful analysis.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/genefit/genefit-link/internal/api"
	"github.com/genefit/genefit-link/internal/config"
	"github.com/genefit/genefit-link/internal/constants"
	"github.com/genefit/genefit-link/internal/dashboard"
	"github.com/genefit/genefit-link/internal/events"
	"github.com/genefit/genefit-link/internal/logging"
	"github.com/genefit/genefit-link/internal/models"
	"github.com/genefit/genefit-link/internal/scheduler"
	"github.com/genefit/genefit-link/internal/source"
)

// Phase is the controller state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseUploaded  Phase = "uploaded"
	PhasePolling   Phase = "polling"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// User-facing messages stored in TrackingState.LastError.
const (
	MsgMissingInput   = "Please select a file and provider"
	MsgMissingOwner   = "Please create or load a user profile first"
	MsgAnalysisFailed = "Analysis failed. Please try again."
)

// ErrReset is returned by Wait when the flow was abandoned by Reset or a new Submit.
var ErrReset = errors.New("tracking flow was reset")

// JobClient is the remote API used by the controller.
type JobClient interface {
	SubmitJob(ctx context.Context, ownerID string, provider models.Provider, file source.File) (string, error)
	StatusClient
	Refresher
}

// Submission is one upload request. It is not modified after Submit.
type Submission struct {
	OwnerID  string
	Provider models.Provider
	File     source.File
}

// TrackingState is a snapshot of the controller.
type TrackingState struct {
	Phase             Phase
	SimulatedProgress int // meaningful only while uploading
	CurrentStepIndex  int
	TotalSteps        int
	JobID             string
	LastError         string
}

// Options configures a Controller. Zero values use the defaults.
type Options struct {
	UploadTick      time.Duration
	UploadIncrement int
	PollInterval    time.Duration
	PollTimeout     time.Duration // 0 polls until a terminal status
	MaxPollErrors   int
	CompletionDelay time.Duration
	Steps           int

	Clock  scheduler.Clock
	Bus    *events.EventBus
	Logger *logging.Logger
	Store  *dashboard.Store

	// OnComplete runs once per successful flow, after the completion delay.
	OnComplete func(ownerID, jobID string)
}

// OptionsFromConfig maps the [tracking] config section onto Options.
func OptionsFromConfig(t config.TrackingConfig) Options {
	return Options{
		UploadTick:      t.UploadTick(),
		UploadIncrement: t.UploadIncrement,
		PollInterval:    t.PollInterval(),
		PollTimeout:     t.PollTimeout(),
		MaxPollErrors:   t.MaxPollErrors,
		CompletionDelay: t.CompletionDelay(),
		Steps:           t.AnalysisSteps,
	}
}

// Controller owns one TrackingState and the timers that advance it.
// All state changes happen under mu; network calls are made without it and
// their results are dropped if the flow generation changed meanwhile.
type Controller struct {
	client   JobClient
	sched    *scheduler.Scheduler
	notifier *Notifier
	opts     Options
	logger   *logging.Logger

	mu         sync.Mutex
	state      TrackingState
	gen        uint64
	sub        Submission
	flowCtx    context.Context
	cancelFlow context.CancelFunc
	estimator  *Estimator
	uploadTick *scheduler.Handle
	poller     *Poller
	completion *scheduler.Handle
	started    time.Time
	flow       *flowResult
}

// flowResult is what Wait observes for one submission.
type flowResult struct {
	done  chan struct{}
	state TrackingState
	err   error
}

func newFlowResult() *flowResult {
	return &flowResult{done: make(chan struct{})}
}

// NewController creates an idle controller.
func NewController(client JobClient, opts Options) *Controller {
	if opts.UploadTick <= 0 {
		opts.UploadTick = constants.UploadTickInterval
	}
	if opts.UploadIncrement <= 0 {
		opts.UploadIncrement = constants.UploadIncrement
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.StatusPollInterval
	}
	if opts.CompletionDelay <= 0 {
		opts.CompletionDelay = constants.CompletionDelay
	}
	if opts.Steps <= 0 {
		opts.Steps = constants.DefaultAnalysisSteps
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	sched := scheduler.New(opts.Clock)
	logger := opts.Logger.Component("tracker")
	idle := TrackingState{Phase: PhaseIdle, TotalSteps: opts.Steps}
	flow := &flowResult{done: make(chan struct{}), state: idle}
	close(flow.done)

	return &Controller{
		client:   client,
		sched:    sched,
		notifier: NewNotifier(client, sched, opts.CompletionDelay, opts.Store, logger, opts.Bus),
		opts:     opts,
		logger:   logger,
		state:    idle,
		flow:     flow,
	}
}

// State returns a snapshot of the tracking state.
func (c *Controller) State() TrackingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit validates sub, uploads it and starts tracking the resulting job.
// It returns after the upload request completes; tracking continues in the
// background. Any flow already in progress is reset first.
func (c *Controller) Submit(ctx context.Context, sub Submission) error {
	c.mu.Lock()
	if c.state.Phase != PhaseIdle {
		c.resetLocked()
	}
	c.state.LastError = ""

	if msg := validate(sub); msg != "" {
		c.state.LastError = msg
		c.mu.Unlock()
		c.opts.Bus.PublishLog(events.WarnLevel, msg, "", nil)
		return &api.ValidationError{Message: msg}
	}

	c.gen++
	gen := c.gen
	c.sub = sub
	c.flowCtx, c.cancelFlow = context.WithCancel(ctx)
	c.flow = newFlowResult()
	c.started = c.sched.Clock().Now()
	c.setPhaseLocked(PhaseUploading)
	flowCtx := c.flowCtx
	c.mu.Unlock()

	c.logger.Info().Str("owner_id", sub.OwnerID).Str("provider", sub.Provider.String()).Str("file", sub.File.Name()).Msg("Submitting DNA upload")
	jobID, err := c.client.SubmitJob(flowCtx, sub.OwnerID, sub.Provider, sub.File)
	if err == nil && jobID == "" {
		err = &api.ServerError{Code: 502, Message: "upload response did not include a job id"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrReset
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("Upload failed")
		c.failLocked(err)
		return err
	}

	c.state.JobID = jobID
	c.estimator = NewEstimator(c.opts.UploadIncrement)
	c.uploadTick = c.sched.Every(c.opts.UploadTick, func() { c.onUploadTick(gen) })
	c.logger.Info().Str("job_id", jobID).Msg("Upload accepted")
	return nil
}

func validate(sub Submission) string {
	if sub.File == nil || sub.Provider == "" {
		return MsgMissingInput
	}
	if sub.OwnerID == "" {
		return MsgMissingOwner
	}
	if !sub.Provider.Valid() {
		return "Unsupported provider: " + sub.Provider.String()
	}
	return ""
}

func (c *Controller) onUploadTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state.Phase != PhaseUploading {
		return
	}

	pct, ok := c.estimator.Next()
	if ok {
		c.state.SimulatedProgress = pct
		c.opts.Bus.PublishUploadTick(c.state.JobID, pct)
	}
	if !c.estimator.Done() {
		return
	}

	c.uploadTick.Dispose()
	c.uploadTick = nil
	c.setPhaseLocked(PhaseUploaded)
	c.startPollingLocked(gen)
}

func (c *Controller) startPollingLocked(gen uint64) {
	c.poller = NewPoller(c.client, c.sched, PollerConfig{
		Interval:  c.opts.PollInterval,
		Timeout:   c.opts.PollTimeout,
		MaxErrors: c.opts.MaxPollErrors,
		Steps:     c.opts.Steps,
	}, c.logger, c.opts.Bus)

	c.state.CurrentStepIndex = 0
	c.setPhaseLocked(PhasePolling)

	err := c.poller.Start(c.flowCtx, c.state.JobID, PollCallbacks{
		OnProgress:  func(job *models.Job, step int) { c.onProgress(gen, job, step) },
		OnSucceeded: func(job *models.Job) { c.onSucceeded(gen, job) },
		OnFailed:    func(err error) { c.onFailed(gen, err) },
	})
	if err != nil {
		c.failLocked(err)
	}
}

func (c *Controller) onProgress(gen uint64, job *models.Job, step int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state.Phase != PhasePolling {
		return
	}
	if step > c.state.CurrentStepIndex {
		c.state.CurrentStepIndex = step
	}
	c.opts.Bus.PublishAnalysisStep(job.JobID, string(job.Status), job.ProgressPercent, c.state.CurrentStepIndex, c.state.TotalSteps)
}

func (c *Controller) onSucceeded(gen uint64, job *models.Job) {
	c.mu.Lock()
	if gen != c.gen || c.state.Phase != PhasePolling {
		c.mu.Unlock()
		return
	}
	c.state.CurrentStepIndex = c.state.TotalSteps - 1
	c.opts.Bus.PublishAnalysisStep(job.JobID, string(job.Status), 100, c.state.CurrentStepIndex, c.state.TotalSteps)
	c.setPhaseLocked(PhaseSucceeded)
	ownerID := c.sub.OwnerID
	ctx := c.flowCtx
	c.mu.Unlock()

	c.logger.Info().Str("job_id", job.JobID).Msg("Analysis complete")
	handle := c.notifier.Notify(ctx, ownerID, func() { c.onComplete(gen) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		handle.Dispose()
		return
	}
	c.completion = handle
}

func (c *Controller) onComplete(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.completion = nil
	ownerID, jobID := c.sub.OwnerID, c.state.JobID
	elapsed := c.sched.Clock().Now().Sub(c.started)
	c.finishLocked(nil)
	c.mu.Unlock()

	c.opts.Bus.Publish(&events.CompleteEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventComplete, Time: time.Now()},
		OwnerID:   ownerID,
		JobID:     jobID,
		Duration:  elapsed,
	})
	if c.opts.OnComplete != nil {
		c.opts.OnComplete(ownerID, jobID)
	}
}

func (c *Controller) onFailed(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state.Phase != PhasePolling {
		return
	}
	c.logger.Error().Err(err).Str("job_id", c.state.JobID).Msg("Analysis did not succeed")
	c.failLocked(err)
}

// failLocked ends the flow in Failed with err surfaced as LastError.
func (c *Controller) failLocked(err error) {
	c.disposeLocked()
	if errors.Is(err, ErrAnalysisFailed) {
		c.state.LastError = MsgAnalysisFailed
	} else {
		c.state.LastError = api.Message(err)
	}
	c.setPhaseLocked(PhaseFailed)
	c.finishLocked(err)
}

// Reset abandons the current flow from any phase, cancelling every pending
// timer and in-flight request, and returns to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.gen++
	c.disposeLocked()
	c.finishLocked(ErrReset)
	old := c.state.Phase
	c.state = TrackingState{Phase: PhaseIdle, TotalSteps: c.opts.Steps}
	c.sub = Submission{}
	if old != PhaseIdle {
		c.opts.Bus.PublishPhaseChange(string(old), string(PhaseIdle), "", "")
	}
}

// disposeLocked cancels the estimator, poller and completion timer.
func (c *Controller) disposeLocked() {
	c.uploadTick.Dispose()
	c.uploadTick = nil
	if c.poller != nil {
		c.poller.Stop()
		c.poller = nil
	}
	c.completion.Dispose()
	c.completion = nil
}

// finishLocked releases Wait callers. Only the first call per flow has effect.
func (c *Controller) finishLocked(err error) {
	select {
	case <-c.flow.done:
		return
	default:
	}
	if c.cancelFlow != nil {
		c.cancelFlow()
	}
	c.flow.state = c.state
	c.flow.err = err
	close(c.flow.done)
}

func (c *Controller) setPhaseLocked(p Phase) {
	old := c.state.Phase
	if old == p {
		return
	}
	c.state.Phase = p
	if p != PhaseUploading {
		c.state.SimulatedProgress = 0
	}
	c.logger.Debug().Str("from", string(old)).Str("to", string(p)).Str("job_id", c.state.JobID).Msg("Phase change")
	c.opts.Bus.PublishPhaseChange(string(old), string(p), c.state.JobID, c.state.LastError)
}

// Done returns a channel closed when the current flow ends.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow.done
}

// Wait blocks until the current flow ends: the completion callback ran, the
// flow failed, or it was reset. It returns the state at that moment and the
// flow's error (nil on success, ErrReset if abandoned).
func (c *Controller) Wait(ctx context.Context) (TrackingState, error) {
	c.mu.Lock()
	flow := c.flow
	c.mu.Unlock()

	select {
	case <-flow.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return flow.state, flow.err
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}
