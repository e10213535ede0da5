package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"popupforge/internal/popup"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*popup.Message, error) {
	var (
		m                popup.Message
		endAt            sql.NullTime
		maxCount, minAge sql.NullInt64
		design, actions  []byte
		pages, roles     pq.StringArray
	)
	err := row.Scan(
		&m.ID, &m.Title, &m.Body, &m.Kind, &m.Priority, &m.Audience, &m.Window.StartAt, &endAt, &m.Frequency,
		&maxCount, &pages, &roles, &minAge, &design, &actions, &m.Status,
		&m.Counters.Impressions, &m.Counters.Clicks, &m.Counters.Dismissals, &m.Counters.Conversions,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Window.EndAt = timePtr(endAt)
	m.MaxDisplayCount = intPtr(maxCount)
	m.MinAccountAgeDays = intPtr(minAge)
	if len(pages) > 0 {
		m.Pages = []string(pages)
	}
	if len(roles) > 0 {
		m.Roles = []string(roles)
	}
	if len(design) > 0 {
		if err := json.Unmarshal(design, &m.Design); err != nil {
			return nil, fmt.Errorf("decode design for %s: %w", m.ID, err)
		}
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &m.Actions); err != nil {
			return nil, fmt.Errorf("decode actions for %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

func scanEvent(row rowScanner) (*popup.DisplayEvent, error) {
	var (
		ev                     popup.DisplayEvent
		dismissedAt, clickedAt sql.NullTime
	)
	if err := row.Scan(
		&ev.ID, &ev.MessageID, &ev.ViewerID, &ev.DisplayedAt,
		&ev.Dismissed, &dismissedAt, &ev.Clicked, &clickedAt, &ev.ClickedAction,
	); err != nil {
		return nil, err
	}
	ev.DismissedAt = timePtr(dismissedAt)
	ev.ClickedAt = timePtr(clickedAt)
	return &ev, nil
}

func encodeJSON(m *popup.Message) (design, actions []byte, err error) {
	design, err = json.Marshal(m.Design)
	if err != nil {
		return nil, nil, fmt.Errorf("encode design: %w", err)
	}
	if len(m.Actions) > 0 {
		actions, err = json.Marshal(m.Actions)
		if err != nil {
			return nil, nil, fmt.Errorf("encode actions: %w", err)
		}
	}
	return design, actions, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
