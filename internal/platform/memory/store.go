// Package memory implements the popup stores in process memory. It backs
// tests and single-instance development runs without PostgreSQL.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"popupforge/internal/popup"
)

type Store struct {
	mu       sync.RWMutex
	messages map[string]*popup.Message
	events   map[string][]*popup.DisplayEvent // by message id, append order
}

var (
	_ popup.MessageStore = (*Store)(nil)
	_ popup.EventStore   = (*Store)(nil)
	_ popup.Catalog      = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		messages: make(map[string]*popup.Message),
		events:   make(map[string][]*popup.DisplayEvent),
	}
}

func (s *Store) Create(_ context.Context, m *popup.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[m.ID]; ok {
		return popup.NewError(popup.ErrCodeConflict, "message "+m.ID+" already exists")
	}
	s.messages[m.ID] = cloneMessage(m)
	return nil
}

func (s *Store) Update(_ context.Context, m *popup.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.messages[m.ID]
	if !ok {
		return popup.ErrMessageNotFound
	}
	next := cloneMessage(m)
	next.Counters = cur.Counters
	next.Status = cur.Status
	s.messages[m.ID] = next
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status popup.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return popup.ErrMessageNotFound
	}
	m.Status = status
	m.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	delete(s.events, id)
	return nil
}

// GetByID returns nil, nil when the message does not exist.
func (s *Store) GetByID(_ context.Context, id string) (*popup.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return cloneMessage(m), nil
}

func (s *Store) List(_ context.Context) ([]*popup.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(*popup.Message) bool { return true }), nil
}

func (s *Store) ActiveMessages(_ context.Context) ([]*popup.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(m *popup.Message) bool { return m.Status == popup.StatusActive }), nil
}

func (s *Store) sorted(keep func(*popup.Message) bool) []*popup.Message {
	var out []*popup.Message
	for _, m := range s.messages {
		if keep(m) {
			out = append(out, cloneMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) InsertImpression(_ context.Context, ev *popup.DisplayEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[ev.MessageID]
	if !ok {
		return popup.ErrMessageNotFound
	}
	cp := *ev
	s.events[ev.MessageID] = append(s.events[ev.MessageID], &cp)
	m.Counters.Impressions++
	return nil
}

func (s *Store) CloseDismissal(_ context.Context, messageID, viewerID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.latest(messageID, viewerID, func(e *popup.DisplayEvent) bool { return !e.Dismissed })
	if ev == nil {
		return false, nil
	}
	ev.Dismissed = true
	ev.DismissedAt = &at
	s.messages[messageID].Counters.Dismissals++
	return true, nil
}

func (s *Store) CloseClick(_ context.Context, messageID, viewerID, action string, conversion bool, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.latest(messageID, viewerID, func(e *popup.DisplayEvent) bool { return !e.Clicked })
	if ev == nil {
		return false, nil
	}
	ev.Clicked = true
	ev.ClickedAt = &at
	ev.ClickedAction = action
	m := s.messages[messageID]
	m.Counters.Clicks++
	if conversion {
		m.Counters.Conversions++
	}
	return true, nil
}

// latest finds the most recent event for the pair that still matches open.
func (s *Store) latest(messageID, viewerID string, open func(*popup.DisplayEvent) bool) *popup.DisplayEvent {
	if _, ok := s.messages[messageID]; !ok {
		return nil
	}
	var found *popup.DisplayEvent
	for _, e := range s.events[messageID] {
		if e.ViewerID != viewerID || !open(e) {
			continue
		}
		if found == nil || !e.DisplayedAt.Before(found.DisplayedAt) {
			found = e
		}
	}
	return found
}

func (s *Store) History(_ context.Context, messageID, viewerID string) ([]*popup.DisplayEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*popup.DisplayEvent
	for _, e := range s.events[messageID] {
		if viewerID == "" || e.ViewerID == viewerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) CountEvents(_ context.Context, messageID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.events[messageID])), nil
}

func cloneMessage(m *popup.Message) *popup.Message {
	cp := *m
	cp.Pages = slices.Clone(m.Pages)
	cp.Roles = slices.Clone(m.Roles)
	cp.Actions = slices.Clone(m.Actions)
	return &cp
}
