package popup_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"popupforge/internal/platform/memory"
	"popupforge/internal/popup"
)

var (
	baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	errDown  = errors.New("connection refused")
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequence(prefix string) popup.IDFunc {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("%s%d", prefix, n.Add(1)), nil
	}
}

type viewers map[string]popup.Viewer

func (v viewers) Viewer(_ context.Context, id string) (popup.Viewer, error) {
	viewer, ok := v[id]
	if !ok {
		return popup.Viewer{}, popup.ErrViewerNotFound
	}
	return viewer, nil
}

func defaultViewers() viewers {
	return viewers{
		"alice": {ID: "alice", Role: popup.RoleUser, AccountCreatedAt: baseTime.AddDate(0, -2, 0)},
		"root":  {ID: "root", Role: popup.RoleAdmin, AccountCreatedAt: baseTime.AddDate(-1, 0, 0)},
		"fresh": {ID: "fresh", Role: popup.RoleUser, AccountCreatedAt: baseTime.Add(-48 * time.Hour)},
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

type recordingCache struct {
	saved   map[string]popup.Status
	removed []string
	err     error
}

func newRecordingCache() *recordingCache {
	return &recordingCache{saved: make(map[string]popup.Status)}
}

func (c *recordingCache) SaveMessage(_ context.Context, m *popup.Message) error {
	if c.err != nil {
		return c.err
	}
	c.saved[m.ID] = m.Status
	return nil
}

func (c *recordingCache) RemoveMessage(_ context.Context, id string) error {
	if c.err != nil {
		return c.err
	}
	c.removed = append(c.removed, id)
	return nil
}

// failingCatalog simulates an unreachable message store.
type failingCatalog struct{}

func (failingCatalog) ActiveMessages(context.Context) ([]*popup.Message, error) {
	return nil, errDown
}

// flakyEvents fails history reads and can misreport the event count.
type flakyEvents struct {
	popup.EventStore
	historyErr error
	countDelta int64
}

func (f *flakyEvents) History(ctx context.Context, messageID, viewerID string) ([]*popup.DisplayEvent, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.EventStore.History(ctx, messageID, viewerID)
}

func (f *flakyEvents) CountEvents(ctx context.Context, messageID string) (int64, error) {
	n, err := f.EventStore.CountEvents(ctx, messageID)
	return n + f.countDelta, err
}

type fixture struct {
	svc       *popup.Service
	store     *memory.Store
	clock     *testClock
	cache     *recordingCache
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		clock:     &testClock{now: baseTime},
		cache:     newRecordingCache(),
		publisher: &recordingPublisher{},
	}
	f.svc = popup.NewService(popup.Dependencies{
		Store:     f.store,
		Catalog:   f.store,
		Events:    f.store,
		Cache:     f.cache,
		Identity:  defaultViewers(),
		Publisher: f.publisher,
		NewID:     sequence("msg-"),
		EventID:   sequence("evt-"),
		Clock:     f.clock.Now,
		Workers:   4,
	})
	return f
}

// newMessage returns a valid message that is eligible for everyone at baseTime.
func newMessage(title string, priority popup.Priority) *popup.Message {
	end := baseTime.Add(48 * time.Hour)
	return &popup.Message{
		Title:     title,
		Body:      title + " body",
		Kind:      popup.KindInfo,
		Priority:  priority,
		Audience:  popup.AudienceAll,
		Window:    popup.Window{StartAt: baseTime.Add(-time.Hour), EndAt: &end},
		Frequency: popup.FrequencyAlways,
		Design:    popup.Design{Dismissible: true},
	}
}

// publish creates m and moves it to active.
func (f *fixture) publish(t *testing.T, m *popup.Message) *popup.Message {
	t.Helper()
	ctx := context.Background()
	if err := f.svc.CreateMessage(ctx, m); err != nil {
		t.Fatalf("CreateMessage(%s): %v", m.Title, err)
	}
	active, err := f.svc.Publish(ctx, m.ID)
	if err != nil {
		t.Fatalf("Publish(%s): %v", m.ID, err)
	}
	return active
}

func (f *fixture) summary(t *testing.T, id string) *popup.Summary {
	t.Helper()
	s, err := f.svc.GetSummary(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSummary(%s): %v", id, err)
	}
	return s
}

func ids(views []popup.MessageView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}
