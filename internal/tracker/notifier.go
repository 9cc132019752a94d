package tracker

import (
	"context"
	"time"

	"github.com/genefit/genefit-link/internal/constants"
	"github.com/genefit/genefit-link/internal/dashboard"
	"github.com/genefit/genefit-link/internal/events"
	"github.com/genefit/genefit-link/internal/logging"
	"github.com/genefit/genefit-link/internal/models"
	"github.com/genefit/genefit-link/internal/scheduler"
)

// Refresher is the part of the job client the notifier needs.
type Refresher interface {
	RequestAggregateRefresh(ctx context.Context, ownerID string) (*models.AggregateSnapshot, error)
}

// Notifier refreshes the owner's dashboard after a successful analysis and
// then runs the completion callback after a fixed delay.
type Notifier struct {
	client Refresher
	sched  *scheduler.Scheduler
	delay  time.Duration
	store  *dashboard.Store
	logger *logging.Logger
	bus    *events.EventBus
}

// NewNotifier creates a notifier. store may be nil; delay < 0 uses the default.
func NewNotifier(client Refresher, sched *scheduler.Scheduler, delay time.Duration, store *dashboard.Store, logger *logging.Logger, bus *events.EventBus) *Notifier {
	if delay < 0 {
		delay = constants.CompletionDelay
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{client: client, sched: sched, delay: delay, store: store, logger: logger, bus: bus}
}

// Notify requests one dashboard refresh for ownerID and schedules onComplete.
// A failed refresh is logged; onComplete still runs. The returned handle
// cancels the pending callback.
func (n *Notifier) Notify(ctx context.Context, ownerID string, onComplete func()) *scheduler.Handle {
	snap, err := n.client.RequestAggregateRefresh(ctx, ownerID)
	if err != nil {
		n.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("Dashboard refresh failed")
	} else {
		if n.store != nil {
			n.store.Put(ownerID, snap)
		}
		n.logger.Debug().Str("owner_id", ownerID).Int("reports", len(snap.DNAReports)).Msg("Dashboard refreshed")
	}

	n.bus.Publish(&events.RefreshEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventRefresh, Time: time.Now()},
		OwnerID:   ownerID,
		Error:     err,
	})

	return n.sched.After(n.delay, onComplete)
}
