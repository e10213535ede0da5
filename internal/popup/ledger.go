package popup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event bus topics for display activity.
const (
	TopicImpression = "popupforge.display.impression"
	TopicDismissal  = "popupforge.display.dismissal"
	TopicClick      = "popupforge.display.click"
)

// Publisher emits domain events. Publishing is best-effort.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// IDFunc generates identifiers for new records.
type IDFunc func() (string, error)

// Ledger records per-viewer display activity and keeps message counters in step.
type Ledger struct {
	events    EventStore
	newID     IDFunc
	publisher Publisher
	logger    *zap.Logger
}

func NewLedger(events EventStore, newID IDFunc, publisher Publisher, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{events: events, newID: newID, publisher: publisher, logger: logger}
}

// RecordImpression appends a display event and increments impressions.
// It is not idempotent: call it once per actual presentation.
func (l *Ledger) RecordImpression(ctx context.Context, messageID, viewerID string, now time.Time) (*DisplayEvent, error) {
	id, err := l.newID()
	if err != nil {
		return nil, WrapError(ErrCodeInternal, "generate event id", err)
	}
	ev := &DisplayEvent{
		ID:          id,
		MessageID:   messageID,
		ViewerID:    viewerID,
		DisplayedAt: now,
	}
	if err := l.events.InsertImpression(ctx, ev); err != nil {
		return nil, Unavailable("record impression", err)
	}
	l.publish(ctx, TopicImpression, ev)
	return ev, nil
}

// RecordDismissal closes the viewer's most recent open impression. It
// returns false without error when there is nothing to close.
func (l *Ledger) RecordDismissal(ctx context.Context, messageID, viewerID string, now time.Time) (bool, error) {
	ok, err := l.events.CloseDismissal(ctx, messageID, viewerID, now)
	if err != nil {
		return false, Unavailable("record dismissal", err)
	}
	if !ok {
		l.logger.Debug("dismissal without open impression",
			zap.String("message_id", messageID), zap.String("viewer_id", viewerID))
		return false, nil
	}
	l.publish(ctx, TopicDismissal, map[string]any{
		"message_id": messageID, "viewer_id": viewerID, "dismissed_at": now,
	})
	return true, nil
}

// RecordClick closes the viewer's most recent unclicked impression and
// counts a conversion for goal actions.
func (l *Ledger) RecordClick(ctx context.Context, messageID, viewerID, action string, now time.Time) (bool, error) {
	ok, err := l.events.CloseClick(ctx, messageID, viewerID, action, IsConversion(action), now)
	if err != nil {
		return false, Unavailable("record click", err)
	}
	if !ok {
		l.logger.Debug("click without open impression",
			zap.String("message_id", messageID), zap.String("viewer_id", viewerID))
		return false, nil
	}
	l.publish(ctx, TopicClick, map[string]any{
		"message_id": messageID, "viewer_id": viewerID, "action": action, "clicked_at": now,
	})
	return true, nil
}

// History lists display events for a message. An empty viewerID returns
// events for every viewer.
func (l *Ledger) History(ctx context.Context, messageID, viewerID string) ([]*DisplayEvent, error) {
	events, err := l.events.History(ctx, messageID, viewerID)
	if err != nil {
		return nil, Unavailable("load display history", err)
	}
	return events, nil
}

func (l *Ledger) publish(ctx context.Context, topic string, event any) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, topic, event); err != nil {
		l.logger.Warn("failed to publish display event", zap.String("topic", topic), zap.Error(err))
	}
}
