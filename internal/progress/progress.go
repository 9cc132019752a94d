// Package progress renders tracking events in the terminal: a progress bar for
// the simulated upload and a step bar for the analysis. When output is not a
// terminal it prints one line per change instead.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/genefit/genefit-link/internal/events"
	"github.com/genefit/genefit-link/internal/models"
)

// TrackerUI turns controller events into terminal output.
type TrackerUI struct {
	out        io.Writer
	isTerminal bool
	steps      []models.AnalysisStep
	fileName   string

	mu        sync.Mutex
	uploadBar *progressbar.ProgressBar
	progress  *mpb.Progress
	stepBar   *mpb.Bar
	step      int
	lastPct   int
	jobID     string
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewTrackerUI renders to f, with bars when f is a terminal.
func NewTrackerUI(f *os.File, fileName string, steps []models.AnalysisStep) *TrackerUI {
	isTerminal := IsTerminal(f)
	if isTerminal {
		enableANSI(f)
	}
	return newTrackerUI(f, isTerminal, fileName, steps)
}

// NewTextUI renders plain lines to w.
func NewTextUI(w io.Writer, fileName string, steps []models.AnalysisStep) *TrackerUI {
	return newTrackerUI(w, false, fileName, steps)
}

func newTrackerUI(w io.Writer, isTerminal bool, fileName string, steps []models.AnalysisStep) *TrackerUI {
	if len(steps) == 0 {
		steps = models.DefaultAnalysisSteps
	}
	return &TrackerUI{out: w, isTerminal: isTerminal, steps: steps, fileName: fileName, step: -1, lastPct: -1}
}

// IsTerminal returns true if progress bars are active.
func (u *TrackerUI) IsTerminal() bool {
	return u.isTerminal
}

// Attach consumes every event from bus until the bus is closed. The returned
// channel is closed once the consumer exits.
func (u *TrackerUI) Attach(bus *events.EventBus) <-chan struct{} {
	ch := bus.SubscribeAll()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			u.Handle(ev)
		}
	}()
	return done
}

// Handle renders one event.
func (u *TrackerUI) Handle(ev events.Event) {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch e := ev.(type) {
	case *events.PhaseChangeEvent:
		u.handlePhase(e)
	case *events.UploadTickEvent:
		u.handleUploadTick(e)
	case *events.AnalysisStepEvent:
		u.handleStep(e)
	case *events.PollErrorEvent:
		u.printf("⚠️  Status check failed (%d in a row), retrying: %v\n", e.ConsecutiveErrors, e.Error)
	case *events.RefreshEvent:
		if e.Error != nil {
			u.printf("⚠️  Dashboard refresh failed: %v\n", e.Error)
		} else {
			u.printf("Dashboard refreshed\n")
		}
	case *events.CompleteEvent:
		u.printf("✓ Done in %s\n", e.Duration.Round(100*time.Millisecond))
	}
}

func (u *TrackerUI) handlePhase(e *events.PhaseChangeEvent) {
	switch e.NewPhase {
	case "uploading":
		u.printf("Uploading %s...\n", u.fileName)
	case "uploaded":
		if u.uploadBar != nil {
			_ = u.uploadBar.Finish()
			u.uploadBar = nil
		}
		u.jobID = e.JobID
		u.printf("Upload accepted (job %s)\n", e.JobID)
	case "polling":
		u.startStepBar()
	case "succeeded":
		if u.stepBar != nil {
			u.stepBar.SetTotal(int64(len(u.steps)), true)
		}
		u.waitBars()
		u.printf("✓ Analysis complete for job %s\n", e.JobID)
	case "failed":
		u.abortBars()
		u.printf("✗ %s\n", e.LastError)
	case "idle":
		u.abortBars()
	}
}

func (u *TrackerUI) handleUploadTick(e *events.UploadTickEvent) {
	if !u.isTerminal {
		u.printf("Upload %d%%\n", e.Percent)
		return
	}
	if u.uploadBar == nil {
		u.uploadBar = progressbar.NewOptions64(100,
			progressbar.OptionSetDescription("Uploading "+u.fileName),
			progressbar.OptionSetWriter(u.out),
			progressbar.OptionSetWidth(50),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(u.out, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	_ = u.uploadBar.Set64(int64(e.Percent))
}

func (u *TrackerUI) startStepBar() {
	if !u.isTerminal {
		u.printf("Analyzing...\n")
		return
	}
	u.progress = mpb.New(
		mpb.WithOutput(u.out),
		mpb.WithRefreshRate(300*time.Millisecond),
		mpb.WithWidth(60),
	)
	total := int64(len(u.steps))
	u.stepBar = u.progress.New(total,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(s decor.Statistics) string {
				i := int(s.Current)
				if i >= len(u.steps) {
					i = len(u.steps) - 1
				}
				return fmt.Sprintf("[%d/%d] %s", i+1, len(u.steps), u.steps[i].Title)
			}, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Name("  "),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)
}

func (u *TrackerUI) handleStep(e *events.AnalysisStepEvent) {
	if e.StepIndex == u.step && int(e.ProgressPercent) == u.lastPct {
		return
	}
	changed := e.StepIndex != u.step
	u.step = e.StepIndex
	u.lastPct = int(e.ProgressPercent)

	if u.isTerminal {
		if u.stepBar != nil && e.StepIndex < len(u.steps) {
			u.stepBar.SetCurrent(int64(e.StepIndex))
		}
		return
	}
	if changed && e.StepIndex >= 0 && e.StepIndex < len(u.steps) {
		s := u.steps[e.StepIndex]
		u.printf("[%d/%d] %s: %s (%.0f%%)\n", e.StepIndex+1, e.TotalSteps, s.Title, s.Description, e.ProgressPercent)
	}
}

func (u *TrackerUI) abortBars() {
	if u.uploadBar != nil {
		_ = u.uploadBar.Exit()
		u.uploadBar = nil
	}
	if u.stepBar != nil {
		u.stepBar.Abort(false)
	}
	u.waitBars()
}

func (u *TrackerUI) waitBars() {
	if u.progress != nil {
		u.progress.Wait()
		u.progress = nil
		u.stepBar = nil
	}
}

// Close stops any bar still running.
func (u *TrackerUI) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.abortBars()
}

func (u *TrackerUI) printf(format string, args ...interface{}) {
	fmt.Fprintf(u.out, format, args...)
}
