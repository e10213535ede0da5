package popup_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"popupforge/internal/platform/memory"
	"popupforge/internal/popup"
)

func seed(t *testing.T, store *memory.Store, msgs ...*popup.Message) {
	t.Helper()
	for _, m := range msgs {
		m.Status = popup.StatusActive
		if err := store.Create(context.Background(), m); err != nil {
			t.Fatalf("seed %s: %v", m.ID, err)
		}
	}
}

func withID(m *popup.Message, id string, createdAt time.Time) *popup.Message {
	m.ID = id
	m.CreatedAt = createdAt
	return m
}

func TestBuildQueueOrdersByPriorityThenAge(t *testing.T) {
	store := memory.NewStore()
	seed(t, store,
		withID(newMessage("low", popup.PriorityLow), "low", baseTime.Add(-3*time.Hour)),
		withID(newMessage("high-new", popup.PriorityHigh), "high-new", baseTime.Add(-time.Hour)),
		withID(newMessage("urgent", popup.PriorityUrgent), "urgent", baseTime),
		withID(newMessage("high-old", popup.PriorityHigh), "high-old", baseTime.Add(-2*time.Hour)),
		withID(newMessage("medium", popup.PriorityMedium), "medium", baseTime.Add(-5*time.Hour)),
	)
	sched := popup.NewScheduler(store, store, 2, nil)

	queue, err := sched.BuildQueue(context.Background(), popup.PageHome, defaultViewers()["alice"], baseTime)
	if err != nil {
		t.Fatalf("BuildQueue: %v", err)
	}
	var got []string
	for _, m := range queue {
		got = append(got, m.ID)
	}
	want := []string{"urgent", "high-old", "high-new", "medium", "low"}
	if !slices.Equal(got, want) {
		t.Fatalf("queue = %v, want %v", got, want)
	}
}

func TestBuildQueueFiltersIneligible(t *testing.T) {
	store := memory.NewStore()
	news := withID(newMessage("news only", popup.PriorityHigh), "news", baseTime)
	news.Pages = []string{popup.PageNews}
	admins := withID(newMessage("admins", popup.PriorityHigh), "admins", baseTime)
	admins.Audience = popup.AudienceAdmins
	future := withID(newMessage("future", popup.PriorityHigh), "future", baseTime)
	future.Window.StartAt = baseTime.Add(time.Hour)
	open := withID(newMessage("open", popup.PriorityLow), "open", baseTime)
	seed(t, store, news, admins, future, open)

	sched := popup.NewScheduler(store, store, 0, nil)
	queue, err := sched.BuildQueue(context.Background(), popup.PageHome, defaultViewers()["alice"], baseTime)
	if err != nil {
		t.Fatalf("BuildQueue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != "open" {
		t.Fatalf("queue = %+v, want only open", queue)
	}

	queue, err = sched.BuildQueue(context.Background(), popup.PageNews, defaultViewers()["root"], baseTime)
	if err != nil {
		t.Fatalf("BuildQueue: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("admin on news: got %d messages, want 3", len(queue))
	}
}

func TestBuildQueueFailsClosedOnCatalogError(t *testing.T) {
	sched := popup.NewScheduler(failingCatalog{}, memory.NewStore(), 1, nil)
	queue, err := sched.BuildQueue(context.Background(), popup.PageHome, defaultViewers()["alice"], baseTime)
	if !popup.IsCode(err, popup.ErrCodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
	if queue != nil {
		t.Fatalf("queue = %v, want nil on failure", queue)
	}
}

func TestBuildQueueFailsClosedOnHistoryError(t *testing.T) {
	store := memory.NewStore()
	seed(t, store,
		withID(newMessage("a", popup.PriorityLow), "a", baseTime),
		withID(newMessage("b", popup.PriorityLow), "b", baseTime),
	)
	events := &flakyEvents{EventStore: store, historyErr: errDown}
	sched := popup.NewScheduler(store, events, 4, nil)

	if _, err := sched.BuildQueue(context.Background(), popup.PageHome, defaultViewers()["alice"], baseTime); !popup.IsCode(err, popup.ErrCodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
}

func TestBuildQueueEmptyCatalog(t *testing.T) {
	sched := popup.NewScheduler(memory.NewStore(), memory.NewStore(), 1, nil)
	queue, err := sched.BuildQueue(context.Background(), popup.PageHome, defaultViewers()["alice"], baseTime)
	if err != nil || len(queue) != 0 {
		t.Fatalf("BuildQueue = %v, %v; want empty", queue, err)
	}
}

func TestBuildQueueHonoursCancellation(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, withID(newMessage("a", popup.PriorityLow), "a", baseTime))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sched := popup.NewScheduler(store, store, 1, nil)
	if _, err := sched.BuildQueue(ctx, popup.PageHome, defaultViewers()["alice"], baseTime); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
