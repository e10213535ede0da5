package popup

import (
	"context"

	"go.uber.org/zap"
)

type Summary struct {
	MessageID          string  `json:"message_id"`
	Impressions        int64   `json:"impressions"`
	Clicks             int64   `json:"clicks"`
	Dismissals         int64   `json:"dismissals"`
	Conversions        int64   `json:"conversions"`
	ClickRate          float64 `json:"click_rate"`
	ConversionRate     float64 `json:"conversion_rate"`
	TotalDisplayEvents int64   `json:"total_display_events"`
	// Consistent is false when the impression counter and the number of
	// stored display events disagree.
	Consistent bool `json:"consistent"`
}

type Aggregator struct {
	messages MessageStore
	events   EventStore
	logger   *zap.Logger
}

func NewAggregator(messages MessageStore, events EventStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{messages: messages, events: events, logger: logger}
}

func (a *Aggregator) Summarize(ctx context.Context, messageID string) (*Summary, error) {
	m, err := a.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, Unavailable("load message", err)
	}
	if m == nil {
		return nil, ErrMessageNotFound
	}
	total, err := a.events.CountEvents(ctx, messageID)
	if err != nil {
		return nil, Unavailable("count display events", err)
	}

	c := m.Counters
	s := &Summary{
		MessageID:          m.ID,
		Impressions:        c.Impressions,
		Clicks:             c.Clicks,
		Dismissals:         c.Dismissals,
		Conversions:        c.Conversions,
		ClickRate:          ratio(c.Clicks, c.Impressions),
		ConversionRate:     ratio(c.Conversions, c.Clicks),
		TotalDisplayEvents: total,
		Consistent:         total == c.Impressions,
	}
	if !s.Consistent {
		a.logger.Warn("impression counter disagrees with display events",
			zap.String("message_id", m.ID),
			zap.Int64("impressions", c.Impressions),
			zap.Int64("display_events", total))
	}
	return s, nil
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
