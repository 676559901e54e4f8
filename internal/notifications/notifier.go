package notifications

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/metrics"
)

// SubscriberLister lists notification recipients.
type SubscriberLister interface {
	ListSubscribers(ctx context.Context) ([]domain.Subscriber, error)
}

// Notifier emails every subscriber when an incident is opened, updated or
// resolved. Delivery runs in the background and is best effort: failures are
// logged and counted, never retried.
type Notifier struct {
	subscribers SubscriberLister
	renderer    *Renderer
	sender      Sender
	wg          sync.WaitGroup
}

// NewNotifier creates a new Notifier.
func NewNotifier(subscribers SubscriberLister, renderer *Renderer, sender Sender) *Notifier {
	return &Notifier{
		subscribers: subscribers,
		renderer:    renderer,
		sender:      sender,
	}
}

// IncidentChanged implements incidents.Observer.
func (n *Notifier) IncidentChanged(ctx context.Context, change domain.IncidentChange) {
	// Edits that add no update (renames, component changes) are not announced.
	if change.Action == domain.IncidentDeleted || change.Incident == nil || change.Update == nil {
		return
	}

	subject, body, err := n.renderer.Render(change)
	if err != nil {
		slog.Error("failed to render notification", "incident_id", change.Incident.ID, "error", err)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(context.WithoutCancel(ctx), change.Incident.ID, subject, body)
	}()
}

// Wait blocks until background deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, incidentID, subject, body string) {
	subscribers, err := n.subscribers.ListSubscribers(ctx)
	if err != nil {
		slog.Error("failed to list subscribers", "incident_id", incidentID, "error", err)
		return
	}
	if len(subscribers) == 0 {
		slog.Debug("no subscribers for incident", "incident_id", incidentID)
		return
	}

	var sent, failed int
	for _, s := range subscribers {
		err := n.sender.Send(ctx, Message{To: s.Email, Subject: subject, Body: body})
		if err != nil {
			failed++
			metrics.NotificationsSent.WithLabelValues("failed").Inc()
			slog.Warn("failed to send notification",
				"incident_id", incidentID,
				"subscriber_id", s.ID,
				"error", err,
			)
			continue
		}
		sent++
		metrics.NotificationsSent.WithLabelValues("sent").Inc()
	}

	slog.Info("incident notifications sent",
		"incident_id", incidentID,
		"sent", sent,
		"failed", failed,
	)
}
