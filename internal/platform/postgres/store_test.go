package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"popupforge/internal/popup"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var messageRowColumns = []string{
	"id", "title", "body", "kind", "priority", "audience", "start_at", "end_at", "frequency",
	"max_display_count", "pages", "roles", "min_account_age_days", "design", "actions", "status",
	"impressions", "clicks", "dismissals", "conversions", "created_by", "created_at", "updated_at",
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestCreateMessage(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)
	now := time.Now()

	mock.ExpectExec("INSERT INTO messages").
		WithArgs(anyArgs(19)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Create(context.Background(), &popup.Message{
		ID: "msg-1", Title: "t", Body: "b", Kind: popup.KindInfo, Priority: popup.PriorityHigh,
		Audience: popup.AudienceAll, Window: popup.Window{StartAt: now}, Frequency: popup.FrequencyDaily,
		Pages: []string{"home"}, Status: popup.StatusDraft, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestUpdateMessageNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectExec("UPDATE messages\\s+SET title=\\$2").
		WithArgs(anyArgs(16)...).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Update(context.Background(), &popup.Message{ID: "missing"})
	if !popup.IsCode(err, popup.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectExec("UPDATE messages SET status=\\$2").
		WithArgs("msg-1", "paused").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpdateStatus(context.Background(), "msg-1", popup.StatusPaused); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectQuery("SELECT .+ FROM messages WHERE id = \\$1").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(messageRowColumns))

	m, err := s.GetByID(context.Background(), "nope")
	if err != nil || m != nil {
		t.Fatalf("GetByID = %v, %v; want nil, nil", m, err)
	}
}

func TestGetByIDScansMessage(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(messageRowColumns).AddRow(
		"msg-1", "Retreat", "Join us", "promotion", "urgent", "new_users", start, nil, "weekly",
		int64(3), []byte("{home,news}"), nil, nil, []byte(`{"position":"top","dismissible":true}`),
		[]byte(`[{"id":"a1","label":"Go","type":"button","action":"navigate","value":"/news"}]`), "active",
		int64(10), int64(4), int64(2), int64(3), "admin-1", start, start,
	)
	mock.ExpectQuery("SELECT .+ FROM messages WHERE id = \\$1").WithArgs("msg-1").WillReturnRows(rows)

	m, err := s.GetByID(context.Background(), "msg-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if m.Kind != popup.KindPromotion || m.Priority != popup.PriorityUrgent || m.Status != popup.StatusActive {
		t.Fatalf("unexpected enums: kind=%q priority=%q status=%q", m.Kind, m.Priority, m.Status)
	}
	if m.Window.EndAt != nil {
		t.Errorf("EndAt = %v, want nil", m.Window.EndAt)
	}
	if m.MaxDisplayCount == nil || *m.MaxDisplayCount != 3 {
		t.Errorf("MaxDisplayCount = %v, want 3", m.MaxDisplayCount)
	}
	if m.MinAccountAgeDays != nil {
		t.Errorf("MinAccountAgeDays = %v, want nil", m.MinAccountAgeDays)
	}
	if len(m.Pages) != 2 || m.Pages[1] != "news" || m.Roles != nil {
		t.Errorf("pages=%v roles=%v", m.Pages, m.Roles)
	}
	if !m.Design.Dismissible || m.Design.Position != "top" {
		t.Errorf("design = %+v", m.Design)
	}
	if len(m.Actions) != 1 || m.Actions[0].Action != popup.ActionNavigate {
		t.Errorf("actions = %+v", m.Actions)
	}
	if m.Counters != (popup.Counters{Impressions: 10, Clicks: 4, Dismissals: 2, Conversions: 3}) {
		t.Errorf("counters = %+v", m.Counters)
	}
}

func TestActiveMessagesPushesStatusFilter(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectQuery("SELECT .+ FROM messages WHERE status = \\$1").
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows(messageRowColumns))

	list, err := s.ActiveMessages(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("ActiveMessages = %v, %v", list, err)
	}
}

func TestInsertImpressionIncrementsAndAppendsInOneTx(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE messages SET impressions = impressions \\+ 1 WHERE id = \\$1").
		WithArgs("msg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO display_events").
		WithArgs("evt-1", "msg-1", "viewer-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.InsertImpression(context.Background(), &popup.DisplayEvent{
		ID: "evt-1", MessageID: "msg-1", ViewerID: "viewer-1", DisplayedAt: now,
	})
	if err != nil {
		t.Fatalf("InsertImpression: %v", err)
	}
}

func TestInsertImpressionUnknownMessageRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE messages SET impressions").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.InsertImpression(context.Background(), &popup.DisplayEvent{ID: "evt-1", MessageID: "ghost", ViewerID: "v"})
	if !popup.IsCode(err, popup.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCloseDismissalWithoutOpenEventIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE display_events SET dismissed = TRUE").
		WithArgs("msg-1", "viewer-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	closed, err := s.CloseDismissal(context.Background(), "msg-1", "viewer-1", time.Now())
	if err != nil || closed {
		t.Fatalf("CloseDismissal = %v, %v; want false, nil", closed, err)
	}
}

func TestCloseDismissalIncrementsCounter(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE display_events SET dismissed = TRUE").
		WithArgs("msg-1", "viewer-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("evt-1"))
	mock.ExpectExec("UPDATE messages SET dismissals = dismissals \\+ 1").
		WithArgs("msg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	closed, err := s.CloseDismissal(context.Background(), "msg-1", "viewer-1", time.Now())
	if err != nil || !closed {
		t.Fatalf("CloseDismissal = %v, %v; want true, nil", closed, err)
	}
}

func TestCloseClickCountsConversion(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE display_events SET clicked = TRUE").
		WithArgs("msg-1", "viewer-1", sqlmock.AnyArg(), "navigate").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("evt-1"))
	mock.ExpectExec("SET clicks = clicks \\+ 1").
		WithArgs("msg-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	closed, err := s.CloseClick(context.Background(), "msg-1", "viewer-1", "navigate", true, time.Now())
	if err != nil || !closed {
		t.Fatalf("CloseClick = %v, %v; want true, nil", closed, err)
	}
}

func TestHistoryScansEvents(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "message_id", "viewer_id", "displayed_at", "dismissed", "dismissed_at", "clicked", "clicked_at", "clicked_action",
	}).
		AddRow("evt-1", "msg-1", "viewer-1", now, true, now, false, nil, "").
		AddRow("evt-2", "msg-1", "viewer-1", now, false, nil, true, now, "close")
	mock.ExpectQuery("FROM display_events").WithArgs("msg-1", "viewer-1").WillReturnRows(rows)

	events, err := s.History(context.Background(), "msg-1", "viewer-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].Dismissed || events[0].DismissedAt == nil || events[0].ClickedAt != nil {
		t.Errorf("first event = %+v", events[0])
	}
	if !events[1].Clicked || events[1].ClickedAction != "close" {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestCountEvents(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStore(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM display_events").
		WithArgs("msg-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := s.CountEvents(context.Background(), "msg-1")
	if err != nil || n != 7 {
		t.Fatalf("CountEvents = %d, %v; want 7", n, err)
	}
}
