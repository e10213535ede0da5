// Package postgres implements the popup message and display-event stores on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"popupforge/internal/popup"
)

type Store struct {
	db *sql.DB
}

var (
	_ popup.MessageStore = (*Store)(nil)
	_ popup.EventStore   = (*Store)(nil)
	_ popup.Catalog      = (*Store)(nil)
)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const messageColumns = `id, title, body, kind, priority, audience, start_at, end_at, frequency,
	max_display_count, pages, roles, min_account_age_days, design, actions, status,
	impressions, clicks, dismissals, conversions, created_by, created_at, updated_at`

func (s *Store) Create(ctx context.Context, m *popup.Message) error {
	design, actions, err := encodeJSON(m)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO messages (id, title, body, kind, priority, audience, start_at, end_at, frequency,
			max_display_count, pages, roles, min_account_age_days, design, actions, status,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = s.db.ExecContext(ctx, query,
		m.ID, m.Title, m.Body, m.Kind, m.Priority, m.Audience, m.Window.StartAt, nullTime(m.Window.EndAt), m.Frequency,
		nullInt(m.MaxDisplayCount), pq.Array(m.Pages), pq.Array(m.Roles), nullInt(m.MinAccountAgeDays),
		design, actions, m.Status, m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// Update rewrites content and targeting. Status and counters are never
// touched here.
func (s *Store) Update(ctx context.Context, m *popup.Message) error {
	design, actions, err := encodeJSON(m)
	if err != nil {
		return err
	}
	query := `
		UPDATE messages
		SET title=$2, body=$3, kind=$4, priority=$5, audience=$6, start_at=$7, end_at=$8, frequency=$9,
			max_display_count=$10, pages=$11, roles=$12, min_account_age_days=$13, design=$14, actions=$15,
			updated_at=$16
		WHERE id=$1
	`
	res, err := s.db.ExecContext(ctx, query,
		m.ID, m.Title, m.Body, m.Kind, m.Priority, m.Audience, m.Window.StartAt, nullTime(m.Window.EndAt), m.Frequency,
		nullInt(m.MaxDisplayCount), pq.Array(m.Pages), pq.Array(m.Roles), nullInt(m.MinAccountAgeDays),
		design, actions, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return requireRow(res)
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status popup.Status) error {
	query := `UPDATE messages SET status=$2, updated_at=NOW() WHERE id=$1`
	res, err := s.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}
	return requireRow(res)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	// Hard delete; display events cascade.
	query := `DELETE FROM messages WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

// GetByID returns nil, nil when the message does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*popup.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) List(ctx context.Context) ([]*popup.Message, error) {
	return s.queryMessages(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY created_at DESC`)
}

// ActiveMessages pushes the status filter down to the database.
func (s *Store) ActiveMessages(ctx context.Context) ([]*popup.Message, error) {
	return s.queryMessages(ctx, `SELECT `+messageColumns+` FROM messages WHERE status = $1 ORDER BY created_at ASC`, popup.StatusActive)
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]*popup.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*popup.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// InsertImpression appends the event and bumps the impression counter in
// one transaction. The counter uses a row-level increment.
func (s *Store) InsertImpression(ctx context.Context, ev *popup.DisplayEvent) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE messages SET impressions = impressions + 1 WHERE id = $1`, ev.MessageID)
		if err != nil {
			return fmt.Errorf("increment impressions: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO display_events (id, message_id, viewer_id, displayed_at)
			VALUES ($1, $2, $3, $4)`,
			ev.ID, ev.MessageID, ev.ViewerID, ev.DisplayedAt)
		if err != nil {
			return fmt.Errorf("insert display event: %w", err)
		}
		return nil
	})
}

func (s *Store) CloseDismissal(ctx context.Context, messageID, viewerID string, at time.Time) (bool, error) {
	var closed bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, `
			UPDATE display_events SET dismissed = TRUE, dismissed_at = $3
			WHERE id = (
				SELECT id FROM display_events
				WHERE message_id = $1 AND viewer_id = $2 AND NOT dismissed
				ORDER BY displayed_at DESC LIMIT 1
				FOR UPDATE
			)
			RETURNING id`, messageID, viewerID, at).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("close dismissal: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE messages SET dismissals = dismissals + 1 WHERE id = $1`, messageID); err != nil {
			return fmt.Errorf("increment dismissals: %w", err)
		}
		closed = true
		return nil
	})
	return closed, err
}

func (s *Store) CloseClick(ctx context.Context, messageID, viewerID, action string, conversion bool, at time.Time) (bool, error) {
	var closed bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, `
			UPDATE display_events SET clicked = TRUE, clicked_at = $3, clicked_action = $4
			WHERE id = (
				SELECT id FROM display_events
				WHERE message_id = $1 AND viewer_id = $2 AND NOT clicked
				ORDER BY displayed_at DESC LIMIT 1
				FOR UPDATE
			)
			RETURNING id`, messageID, viewerID, at, action).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("close click: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE messages
			SET clicks = clicks + 1,
				conversions = conversions + CASE WHEN $2 THEN 1 ELSE 0 END
			WHERE id = $1`, messageID, conversion); err != nil {
			return fmt.Errorf("increment clicks: %w", err)
		}
		closed = true
		return nil
	})
	return closed, err
}

func (s *Store) History(ctx context.Context, messageID, viewerID string) ([]*popup.DisplayEvent, error) {
	query := `
		SELECT id, message_id, viewer_id, displayed_at, dismissed, dismissed_at, clicked, clicked_at, clicked_action
		FROM display_events
		WHERE message_id = $1 AND ($2 = '' OR viewer_id = $2)
		ORDER BY displayed_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, messageID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*popup.DisplayEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

func (s *Store) CountEvents(ctx context.Context, messageID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM display_events WHERE message_id = $1`, messageID).Scan(&n)
	return n, err
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return popup.ErrMessageNotFound
	}
	return nil
}
