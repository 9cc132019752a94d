// Package events carries tracking notifications from the controller to renderers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/genefit/genefit-link/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog          EventType = "log"
	EventPhaseChange  EventType = "phase_change"
	EventUploadTick   EventType = "upload_tick"   // estimator advanced
	EventAnalysisStep EventType = "analysis_step" // poller reported progress
	EventPollError    EventType = "poll_error"    // transient poll failure, polling continues
	EventRefresh      EventType = "refresh"       // dashboard snapshot refreshed (or failed to)
	EventComplete     EventType = "complete"      // completion callback fired
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	JobID   string
	Error   error
}

// PhaseChangeEvent is published on every controller phase transition.
type PhaseChangeEvent struct {
	BaseEvent
	OldPhase  string
	NewPhase  string
	JobID     string
	LastError string
}

// UploadTickEvent carries the simulated upload percentage.
type UploadTickEvent struct {
	BaseEvent
	JobID   string
	Percent int
}

// AnalysisStepEvent carries server progress and the mapped step index.
type AnalysisStepEvent struct {
	BaseEvent
	JobID           string
	Status          string
	ProgressPercent float64
	StepIndex       int
	TotalSteps      int
}

// PollErrorEvent reports a swallowed poll failure.
type PollErrorEvent struct {
	BaseEvent
	JobID             string
	Error             error
	ConsecutiveErrors int
	Retryable         bool
}

// RefreshEvent reports the outcome of the dashboard refresh.
type RefreshEvent struct {
	BaseEvent
	OwnerID string
	Error   error
}

// CompleteEvent is published when the completion callback fires.
type CompleteEvent struct {
	BaseEvent
	OwnerID  string
	JobID    string
	Duration time.Duration
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events for a full subscriber are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

func base(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message, jobID string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: base(EventLog),
		Level:     level,
		Message:   message,
		JobID:     jobID,
		Error:     err,
	})
}

// PublishPhaseChange is a convenience method for publishing phase transitions
func (eb *EventBus) PublishPhaseChange(oldPhase, newPhase, jobID, lastError string) {
	eb.Publish(&PhaseChangeEvent{
		BaseEvent: base(EventPhaseChange),
		OldPhase:  oldPhase,
		NewPhase:  newPhase,
		JobID:     jobID,
		LastError: lastError,
	})
}

// PublishUploadTick is a convenience method for publishing estimator ticks
func (eb *EventBus) PublishUploadTick(jobID string, percent int) {
	eb.Publish(&UploadTickEvent{
		BaseEvent: base(EventUploadTick),
		JobID:     jobID,
		Percent:   percent,
	})
}

// PublishAnalysisStep is a convenience method for publishing poller progress
func (eb *EventBus) PublishAnalysisStep(jobID, status string, progress float64, stepIndex, totalSteps int) {
	eb.Publish(&AnalysisStepEvent{
		BaseEvent:       base(EventAnalysisStep),
		JobID:           jobID,
		Status:          status,
		ProgressPercent: progress,
		StepIndex:       stepIndex,
		TotalSteps:      totalSteps,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
