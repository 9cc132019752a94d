package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/genefit/genefit-link/internal/events"
)

func phase(old, new, jobID, lastErr string) *events.PhaseChangeEvent {
	return &events.PhaseChangeEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventPhaseChange, Time: time.Now()},
		OldPhase:  old, NewPhase: new, JobID: jobID, LastError: lastErr,
	}
}

func step(idx int, pct float64) *events.AnalysisStepEvent {
	return &events.AnalysisStepEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventAnalysisStep, Time: time.Now()},
		JobID:     "r1", Status: "analyzing", ProgressPercent: pct, StepIndex: idx, TotalSteps: 4,
	}
}

func TestTextUISuccessFlow(t *testing.T) {
	var buf bytes.Buffer
	ui := NewTextUI(&buf, "genome.txt", nil)

	ui.Handle(phase("idle", "uploading", "", ""))
	ui.Handle(&events.UploadTickEvent{BaseEvent: events.BaseEvent{EventType: events.EventUploadTick}, JobID: "r1", Percent: 40})
	ui.Handle(phase("uploading", "uploaded", "r1", ""))
	ui.Handle(phase("uploaded", "polling", "r1", ""))
	ui.Handle(step(1, 30))
	ui.Handle(step(1, 30)) // duplicate is not printed twice
	ui.Handle(step(2, 70))
	ui.Handle(phase("polling", "succeeded", "r1", ""))
	ui.Handle(&events.CompleteEvent{BaseEvent: events.BaseEvent{EventType: events.EventComplete}, JobID: "r1", Duration: 10 * time.Second})
	ui.Close()

	out := buf.String()
	for _, want := range []string{
		"Uploading genome.txt",
		"Upload 40%",
		"Upload accepted (job r1)",
		"[2/4] AI Analysis",
		"[3/4] Personalized Insights",
		"Analysis complete for job r1",
		"Done in 10s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "[2/4]") != 1 {
		t.Errorf("duplicate step printed:\n%s", out)
	}
}

func TestTextUIFailure(t *testing.T) {
	var buf bytes.Buffer
	ui := NewTextUI(&buf, "genome.txt", nil)

	ui.Handle(&events.PollErrorEvent{BaseEvent: events.BaseEvent{EventType: events.EventPollError}, JobID: "r1", Error: errors.New("connection reset"), ConsecutiveErrors: 1})
	ui.Handle(phase("polling", "failed", "r1", "Analysis failed. Please try again."))

	out := buf.String()
	if !strings.Contains(out, "retrying: connection reset") {
		t.Errorf("missing poll error line:\n%s", out)
	}
	if !strings.Contains(out, "✗ Analysis failed. Please try again.") {
		t.Errorf("missing failure line:\n%s", out)
	}
}

func TestAttachConsumesUntilClose(t *testing.T) {
	var buf bytes.Buffer
	ui := NewTextUI(&buf, "g.txt", nil)
	bus := events.NewEventBus(16)

	done := ui.Attach(bus)
	bus.PublishPhaseChange("idle", "uploading", "", "")
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Attach did not exit after bus close")
	}
	if !strings.Contains(buf.String(), "Uploading g.txt") {
		t.Errorf("event not rendered: %q", buf.String())
	}
}
