package popup

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QueueAdvanceDelay is the pause clients insert between successive messages.
const QueueAdvanceDelay = 500 * time.Millisecond

type Scheduler struct {
	catalog Catalog
	events  EventStore
	workers int
	logger  *zap.Logger
}

func NewScheduler(catalog Catalog, events EventStore, workers int, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 8
	}
	return &Scheduler{catalog: catalog, events: events, workers: workers, logger: logger}
}

// BuildQueue returns the messages eligible for viewer on page, highest
// priority first and oldest first within a priority. Any read failure fails
// the whole call; a partial read is never reported as an empty queue.
func (s *Scheduler) BuildQueue(ctx context.Context, page string, viewer Viewer, now time.Time) ([]*Message, error) {
	candidates, err := s.catalog.ActiveMessages(ctx)
	if err != nil {
		return nil, Unavailable("load candidate messages", err)
	}

	eligible := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, m := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return Unavailable("build queue", err)
			}
			history, err := s.events.History(gctx, m.ID, viewer.ID)
			if err != nil {
				return Unavailable("load display history", err)
			}
			reason := Explain(m, viewer, page, now, history)
			if reason != RejectNone {
				s.logger.Debug("message not eligible",
					zap.String("message_id", m.ID),
					zap.String("viewer_id", viewer.ID),
					zap.String("reason", string(reason)))
				return nil
			}
			eligible[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var queue []*Message
	for i, ok := range eligible {
		if ok {
			queue = append(queue, candidates[i])
		}
	}
	sortQueue(queue)
	return queue, nil
}

func sortQueue(queue []*Message) {
	sort.SliceStable(queue, func(i, j int) bool {
		a, b := queue[i], queue[j]
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra > rb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
