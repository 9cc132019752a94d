package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/genefit/genefit-link/internal/api"
	"github.com/genefit/genefit-link/internal/constants"
	"github.com/genefit/genefit-link/internal/events"
	"github.com/genefit/genefit-link/internal/logging"
	"github.com/genefit/genefit-link/internal/models"
	"github.com/genefit/genefit-link/internal/scheduler"
)

// ErrAnalysisFailed is returned when the server reports the job as failed.
var ErrAnalysisFailed = errors.New("analysis failed")

// StatusClient is the part of the job client the poller needs.
type StatusClient interface {
	GetJobStatus(ctx context.Context, jobID string) (*models.Job, error)
}

// StepIndex maps a progress percentage onto one of steps analysis steps:
// floor(percent/100*steps), clamped to [0, steps-1].
func StepIndex(percent float64, steps int) int {
	if steps <= 0 {
		return 0
	}
	idx := int(math.Floor(percent / 100 * float64(steps)))
	if idx < 0 {
		return 0
	}
	if idx > steps-1 {
		return steps - 1
	}
	return idx
}

// PollerConfig controls polling cadence and bounds.
type PollerConfig struct {
	Interval       time.Duration
	Timeout        time.Duration // 0 polls forever
	MaxErrors      int           // consecutive transient errors tolerated; 0 means unlimited
	Steps          int
	RequestTimeout time.Duration
}

// PollCallbacks receive poller results. Exactly one of OnSucceeded or OnFailed
// is called, at most once, and never after Stop.
type PollCallbacks struct {
	OnProgress  func(job *models.Job, stepIndex int)
	OnSucceeded func(job *models.Job)
	OnFailed    func(err error)
}

// Poller repeatedly queries a job's status until it reaches a terminal state.
type Poller struct {
	client StatusClient
	sched  *scheduler.Scheduler
	cfg    PollerConfig
	logger *logging.Logger
	bus    *events.EventBus

	mu                sync.Mutex
	handle            *scheduler.Handle
	cancel            context.CancelFunc
	stopped           bool
	jobID             string
	started           time.Time
	consecutiveErrors int
	polls             int
}

// NewPoller creates a poller. Zero config fields fall back to defaults.
func NewPoller(client StatusClient, sched *scheduler.Scheduler, cfg PollerConfig, logger *logging.Logger, bus *events.EventBus) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = constants.StatusPollInterval
	}
	if cfg.Steps <= 0 {
		cfg.Steps = constants.DefaultAnalysisSteps
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = constants.StatusRequestTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Poller{client: client, sched: sched, cfg: cfg, logger: logger, bus: bus}
}

// Start begins polling jobID. The first request is made one interval from now.
// A poller can be started once.
func (p *Poller) Start(ctx context.Context, jobID string, cb PollCallbacks) error {
	if jobID == "" {
		return fmt.Errorf("cannot poll without a job id")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle != nil || p.stopped {
		return fmt.Errorf("poller already used")
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.jobID = jobID
	p.started = p.sched.Clock().Now()
	p.handle = p.sched.Every(p.cfg.Interval, func() { p.tick(ctx, cb) })

	p.logger.Debug().Str("job_id", jobID).Dur("interval", p.cfg.Interval).Msg("Polling started")
	return nil
}

// Stop cancels polling and any in-flight request. Safe to call repeatedly.
// A response that arrives after Stop is discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.handle.Dispose()
	if p.cancel != nil {
		p.cancel()
	}
}

// Polls returns the number of status requests made.
func (p *Poller) Polls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

func (p *Poller) tick(ctx context.Context, cb PollCallbacks) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	if p.cfg.Timeout > 0 {
		if elapsed := p.sched.Clock().Now().Sub(p.started); elapsed >= p.cfg.Timeout {
			p.stopLocked()
			p.mu.Unlock()
			p.logger.Warn().Str("job_id", p.jobID).Dur("elapsed", elapsed).Msg("Polling timed out")
			if cb.OnFailed != nil {
				cb.OnFailed(&api.TimeoutError{JobID: p.jobID, Elapsed: elapsed})
			}
			return
		}
	}
	p.polls++
	jobID := p.jobID
	p.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	job, err := p.client.GetJobStatus(reqCtx, jobID)
	cancel()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}

	if err != nil {
		if fatal := p.fatal(ctx, err); fatal != nil {
			p.stopLocked()
			p.mu.Unlock()
			p.logger.Error().Str("job_id", jobID).Err(err).Msg("Polling stopped")
			if cb.OnFailed != nil {
				cb.OnFailed(fatal)
			}
			return
		}

		p.consecutiveErrors++
		n := p.consecutiveErrors
		if p.cfg.MaxErrors > 0 && n >= p.cfg.MaxErrors {
			p.stopLocked()
			p.mu.Unlock()
			if cb.OnFailed != nil {
				cb.OnFailed(fmt.Errorf("failed to get job status after %d attempts: %w", n, err))
			}
			return
		}
		p.mu.Unlock()

		p.logger.Warn().Err(err).Str("job_id", jobID).Int("consecutiveErrors", n).Msg("Failed to get job status")
		p.bus.Publish(&events.PollErrorEvent{
			BaseEvent:         events.BaseEvent{EventType: events.EventPollError, Time: time.Now()},
			JobID:             jobID,
			Error:             err,
			ConsecutiveErrors: n,
			Retryable:         true,
		})
		return
	}
	p.consecutiveErrors = 0

	switch job.Status {
	case models.JobAnalyzed:
		p.stopLocked()
		p.mu.Unlock()
		job.ProgressPercent = 100
		if cb.OnSucceeded != nil {
			cb.OnSucceeded(job)
		}
	case models.JobFailed:
		p.stopLocked()
		p.mu.Unlock()
		if cb.OnFailed != nil {
			cb.OnFailed(ErrAnalysisFailed)
		}
	default:
		p.mu.Unlock()
		if cb.OnProgress != nil {
			cb.OnProgress(job, StepIndex(job.ProgressPercent, p.cfg.Steps))
		}
	}
}

// fatal returns the error that ends polling, or nil if err is transient.
// Unknown jobs and caller cancellation are fatal; network and server errors are not.
func (p *Poller) fatal(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if api.IsNotFound(err) || api.IsValidation(err) {
		return err
	}
	return nil
}
