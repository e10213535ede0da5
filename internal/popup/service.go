package popup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Message lifecycle topics.
const (
	TopicMessageCreated = "popupforge.message.created"
	TopicMessageUpdated = "popupforge.message.updated"
	TopicMessageDeleted = "popupforge.message.deleted"
	TopicMessageStatus  = "popupforge.message.status"
)

// EventKind is the presentation-layer acknowledgement type.
type EventKind string

const (
	EventImpression EventKind = "impression"
	EventDismissal  EventKind = "dismissal"
	EventClick      EventKind = "click"
)

// MessageView is what the presentation layer needs to render a message.
// It never carries counters.
type MessageView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Kind     Kind     `json:"kind"`
	Priority Priority `json:"priority"`
	Design   Design   `json:"design"`
	Actions  []Action `json:"actions,omitempty"`
}

func NewMessageView(m *Message) MessageView {
	return MessageView{
		ID:       m.ID,
		Title:    m.Title,
		Body:     m.Body,
		Kind:     m.Kind,
		Priority: m.Priority,
		Design:   m.Design,
		Actions:  m.Actions,
	}
}

type Dependencies struct {
	Store     MessageStore
	Catalog   Catalog
	Events    EventStore
	Cache     Cache // optional
	Identity  IdentityProvider
	Publisher Publisher // optional
	NewID     IDFunc    // message ids
	EventID   IDFunc    // display event ids; defaults to NewID
	Clock     func() time.Time
	Workers   int
	Logger    *zap.Logger
}

type Service struct {
	store     MessageStore
	cache     Cache
	identity  IdentityProvider
	publisher Publisher
	newID     IDFunc
	now       func() time.Time
	logger    *zap.Logger

	scheduler *Scheduler
	ledger    *Ledger
	analytics *Aggregator
}

func NewService(d Dependencies) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Catalog == nil {
		d.Catalog = storeCatalog{d.Store}
	}
	if d.EventID == nil {
		d.EventID = d.NewID
	}
	return &Service{
		store:     d.Store,
		cache:     d.Cache,
		identity:  d.Identity,
		publisher: d.Publisher,
		newID:     d.NewID,
		now:       d.Clock,
		logger:    d.Logger,
		scheduler: NewScheduler(d.Catalog, d.Events, d.Workers, d.Logger),
		ledger:    NewLedger(d.Events, d.EventID, d.Publisher, d.Logger),
		analytics: NewAggregator(d.Store, d.Events, d.Logger),
	}
}

// GetQueue returns the ordered messages to show viewerID on page.
func (s *Service) GetQueue(ctx context.Context, page, viewerID string) ([]MessageView, error) {
	viewer, err := s.identity.Viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	queue, err := s.scheduler.BuildQueue(ctx, page, viewer, s.now())
	if err != nil {
		s.logger.Error("build queue failed", zap.String("page", page), zap.String("viewer_id", viewerID), zap.Error(err))
		return nil, err
	}
	views := make([]MessageView, 0, len(queue))
	for _, m := range queue {
		views = append(views, NewMessageView(m))
	}
	return views, nil
}

// Acknowledge records a presentation event reported by the client.
func (s *Service) Acknowledge(ctx context.Context, messageID, viewerID string, event EventKind, action string) error {
	if messageID == "" || viewerID == "" {
		return NewError(ErrCodeInvalid, "message id and viewer id are required")
	}
	now := s.now()
	switch event {
	case EventImpression:
		_, err := s.ledger.RecordImpression(ctx, messageID, viewerID, now)
		return err
	case EventDismissal:
		_, err := s.ledger.RecordDismissal(ctx, messageID, viewerID, now)
		return err
	case EventClick:
		if action == "" {
			return NewError(ErrCodeInvalid, "click action is required")
		}
		_, err := s.ledger.RecordClick(ctx, messageID, viewerID, action, now)
		return err
	}
	return NewError(ErrCodeInvalid, "unknown event "+string(event))
}

func (s *Service) GetSummary(ctx context.Context, messageID string) (*Summary, error) {
	return s.analytics.Summarize(ctx, messageID)
}

func (s *Service) History(ctx context.Context, messageID, viewerID string) ([]*DisplayEvent, error) {
	return s.ledger.History(ctx, messageID, viewerID)
}

// --- Admin ---

func (s *Service) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		id, err := s.newID()
		if err != nil {
			return WrapError(ErrCodeInternal, "generate message id", err)
		}
		m.ID = id
	}
	switch m.Status {
	case "":
		m.Status = StatusDraft
	case StatusDraft:
	default:
		return NewError(ErrCodeInvalid, "new messages start in draft; publish to activate")
	}
	now := s.now()
	m.Counters = Counters{}
	m.CreatedAt, m.UpdatedAt = now, now
	if err := m.Validate(); err != nil {
		return err
	}

	// 1. Save to DB (single source of truth)
	if err := s.store.Create(ctx, m); err != nil {
		return Unavailable("create message", err)
	}
	// 2. Sync cache
	if err := s.saveCache(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, TopicMessageCreated, m)
	return nil
}

// UpdateMessage replaces content and targeting. Status, counters and
// authorship are kept from the stored record.
func (s *Service) UpdateMessage(ctx context.Context, m *Message) error {
	existing, err := s.GetMessage(ctx, m.ID)
	if err != nil {
		return err
	}
	m.Status = existing.Status
	m.Counters = existing.Counters
	m.CreatedBy = existing.CreatedBy
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.now()
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.store.Update(ctx, m); err != nil {
		return Unavailable("update message", err)
	}
	if err := s.saveCache(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, TopicMessageUpdated, m)
	return nil
}

func (s *Service) DeleteMessage(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return Unavailable("delete message", err)
	}
	if s.cache != nil {
		if err := s.cache.RemoveMessage(ctx, id); err != nil {
			return Unavailable("remove cached message", err)
		}
	}
	s.publish(ctx, TopicMessageDeleted, map[string]string{"message_id": id})
	return nil
}

// GetMessage loads a message and applies lazy expiry.
func (s *Service) GetMessage(ctx context.Context, id string) (*Message, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, Unavailable("load message", err)
	}
	if m == nil {
		return nil, ErrMessageNotFound
	}
	s.observe(ctx, m)
	return m, nil
}

func (s *Service) ListMessages(ctx context.Context) ([]*Message, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, Unavailable("list messages", err)
	}
	for _, m := range list {
		s.observe(ctx, m)
	}
	return list, nil
}

func (s *Service) Publish(ctx context.Context, id string) (*Message, error) {
	return s.transition(ctx, id, StatusActive, StatusDraft)
}

func (s *Service) Pause(ctx context.Context, id string) (*Message, error) {
	return s.transition(ctx, id, StatusPaused, StatusActive)
}

func (s *Service) Resume(ctx context.Context, id string) (*Message, error) {
	return s.transition(ctx, id, StatusActive, StatusPaused)
}

// SyncCache pushes every stored message to the cache.
func (s *Service) SyncCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	// 1. Fetch all from DB
	list, err := s.ListMessages(ctx)
	if err != nil {
		return err
	}
	// 2. Push to cache
	for _, m := range list {
		if err := s.saveCache(ctx, m); err != nil {
			return err
		}
	}
	s.logger.Info("cache synced", zap.Int("messages", len(list)))
	return nil
}

func (s *Service) transition(ctx context.Context, id string, to, from Status) (*Message, error) {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != from {
		return nil, NewError(ErrCodeConflict, "message is "+string(m.Status)+", expected "+string(from))
	}
	if err := m.Transition(to); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, id, to); err != nil {
		return nil, Unavailable("update message status", err)
	}
	m.UpdatedAt = s.now()
	if err := s.saveCache(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, TopicMessageStatus, map[string]string{"message_id": id, "from": string(from), "to": string(to)})
	return m, nil
}

// observe persists a lazy expiry the first time it is seen. Failures are
// logged only; the in-memory status is already correct for the caller.
func (s *Service) observe(ctx context.Context, m *Message) {
	if !m.Observe(s.now()) {
		return
	}
	if err := s.store.UpdateStatus(ctx, m.ID, StatusExpired); err != nil {
		s.logger.Warn("failed to persist expiry", zap.String("message_id", m.ID), zap.Error(err))
		return
	}
	if err := s.saveCache(ctx, m); err != nil {
		s.logger.Warn("failed to evict expired message from cache", zap.String("message_id", m.ID), zap.Error(err))
	}
}

func (s *Service) saveCache(ctx context.Context, m *Message) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.SaveMessage(ctx, m); err != nil {
		return Unavailable("sync message cache", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, topic string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish message event", zap.String("topic", topic), zap.Error(err))
	}
}

// storeCatalog filters the full message list down to active candidates.
type storeCatalog struct {
	store MessageStore
}

func (c storeCatalog) ActiveMessages(ctx context.Context) ([]*Message, error) {
	list, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	active := list[:0]
	for _, m := range list {
		if m.Status == StatusActive {
			active = append(active, m)
		}
	}
	return active, nil
}
