package popup

import (
	"context"
	"slices"
	"time"
)

type Kind string

const (
	KindInfo         Kind = "info"
	KindWarning      Kind = "warning"
	KindSuccess      Kind = "success"
	KindPromotion    Kind = "promotion"
	KindAnnouncement Kind = "announcement"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities low (1) to urgent (4). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Audience string

const (
	AudienceAll         Audience = "all"
	AudienceUsers       Audience = "users"
	AudienceAdmins      Audience = "admins"
	AudienceModerators  Audience = "moderators"
	AudienceNewUsers    Audience = "new_users"
	AudienceActiveUsers Audience = "active_users"
)

type Frequency string

const (
	FrequencyOnce   Frequency = "once"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyAlways Frequency = "always"
)

type Status string

const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusExpired Status = "expired"
)

// Viewer roles as reported by the identity provider.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// Click actions. Navigate and ExternalLink count as conversions.
const (
	ActionClose        = "close"
	ActionNavigate     = "navigate"
	ActionExternalLink = "external_link"
	ActionCustom       = "custom"
)

// IsConversion reports whether a click with this action is a goal action.
func IsConversion(action string) bool {
	return action == ActionNavigate || action == ActionExternalLink
}

type Window struct {
	StartAt time.Time  `json:"start_at"`
	EndAt   *time.Time `json:"end_at,omitempty"`
}

// Contains reports whether t falls inside the inclusive window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.StartAt) {
		return false
	}
	return w.EndAt == nil || !t.After(*w.EndAt)
}

type Counters struct {
	Impressions int64 `json:"impressions"`
	Clicks      int64 `json:"clicks"`
	Dismissals  int64 `json:"dismissals"`
	Conversions int64 `json:"conversions"`
}

// Design carries rendering hints only; nothing here affects targeting.
type Design struct {
	BackgroundColor  string `json:"background_color,omitempty"`
	TextColor        string `json:"text_color,omitempty"`
	BorderColor      string `json:"border_color,omitempty"`
	Icon             string `json:"icon,omitempty"`
	Position         string `json:"position,omitempty"`  // top, center, bottom
	Animation        string `json:"animation,omitempty"` // fade, slide, bounce, none
	Dismissible      bool   `json:"dismissible"`
	AutoCloseSeconds *int   `json:"auto_close_seconds,omitempty"`
}

type Action struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Type   string `json:"type"`   // button, link
	Action string `json:"action"` // close, navigate, external_link, custom
	Value  string `json:"value,omitempty"`
	Style  string `json:"style,omitempty"` // primary, secondary, danger
}

type Message struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Body              string    `json:"body"`
	Kind              Kind      `json:"kind"`
	Priority          Priority  `json:"priority"`
	Audience          Audience  `json:"audience"`
	Window            Window    `json:"window"`
	Frequency         Frequency `json:"frequency"`
	MaxDisplayCount   *int      `json:"max_display_count,omitempty"`
	Pages             []string  `json:"pages,omitempty"`
	Roles             []string  `json:"roles,omitempty"`
	MinAccountAgeDays *int      `json:"min_account_age_days,omitempty"`
	Design            Design    `json:"design"`
	Actions           []Action  `json:"actions,omitempty"`
	Status            Status    `json:"status"`
	Counters          Counters  `json:"counters"`
	CreatedBy         string    `json:"created_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Observe applies lazy expiry: an active message whose window has closed
// reports expired. It returns true if the status changed.
func (m *Message) Observe(now time.Time) bool {
	if m.Status == StatusActive && m.Window.EndAt != nil && now.After(*m.Window.EndAt) {
		m.Status = StatusExpired
		return true
	}
	return false
}

// Transition moves the message to the target status, or fails with a
// CONFLICT error when the lifecycle does not allow it.
func (m *Message) Transition(to Status) error {
	allowed := map[Status][]Status{
		StatusDraft:  {StatusActive},
		StatusActive: {StatusPaused},
		StatusPaused: {StatusActive},
	}
	if !slices.Contains(allowed[m.Status], to) {
		return NewError(ErrCodeConflict, "cannot move message from "+string(m.Status)+" to "+string(to))
	}
	m.Status = to
	return nil
}

// Validate checks the write-time invariants of a message.
func (m *Message) Validate() error {
	switch {
	case m.Title == "":
		return invalid("title is required")
	case m.Body == "":
		return invalid("body is required")
	case !oneOf(m.Kind, KindInfo, KindWarning, KindSuccess, KindPromotion, KindAnnouncement):
		return invalid("unknown kind " + string(m.Kind))
	case m.Priority.Rank() == 0:
		return invalid("unknown priority " + string(m.Priority))
	case !oneOf(m.Audience, AudienceAll, AudienceUsers, AudienceAdmins, AudienceModerators, AudienceNewUsers, AudienceActiveUsers):
		return invalid("unknown audience " + string(m.Audience))
	case !oneOf(m.Frequency, FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyAlways):
		return invalid("unknown frequency " + string(m.Frequency))
	case !oneOf(m.Status, StatusDraft, StatusActive, StatusPaused, StatusExpired):
		return invalid("unknown status " + string(m.Status))
	case m.Window.StartAt.IsZero():
		return invalid("window start is required")
	case m.Window.EndAt != nil && m.Window.EndAt.Before(m.Window.StartAt):
		return invalid("window end must not precede start")
	case m.MaxDisplayCount != nil && *m.MaxDisplayCount < 1:
		return invalid("max display count must be at least 1")
	case m.MinAccountAgeDays != nil && *m.MinAccountAgeDays < 0:
		return invalid("min account age must not be negative")
	}
	for _, a := range m.Actions {
		if !oneOf(a.Action, ActionClose, ActionNavigate, ActionExternalLink, ActionCustom) {
			return invalid("unknown action " + a.Action)
		}
	}
	return nil
}

func oneOf[T comparable](v T, set ...T) bool {
	return slices.Contains(set, v)
}

func invalid(msg string) error {
	return NewError(ErrCodeInvalid, msg)
}

// DisplayEvent is one impression of a message to a viewer. Dismissed and
// Clicked only ever flip from false to true.
type DisplayEvent struct {
	ID            string     `json:"id"`
	MessageID     string     `json:"message_id"`
	ViewerID      string     `json:"viewer_id"`
	DisplayedAt   time.Time  `json:"displayed_at"`
	Dismissed     bool       `json:"dismissed"`
	DismissedAt   *time.Time `json:"dismissed_at,omitempty"`
	Clicked       bool       `json:"clicked"`
	ClickedAt     *time.Time `json:"clicked_at,omitempty"`
	ClickedAction string     `json:"clicked_action,omitempty"`
}

type Viewer struct {
	ID               string    `json:"id"`
	Role             string    `json:"role"`
	AccountCreatedAt time.Time `json:"account_created_at"`
}

// AccountAgeDays is floor((now - created) / 24h). Accounts created after now
// have a negative age.
func (v Viewer) AccountAgeDays(now time.Time) int {
	const day = 24 * time.Hour
	d := now.Sub(v.AccountCreatedAt)
	days := d / day
	if d < 0 && d%day != 0 {
		days--
	}
	return int(days)
}

// MessageStore (durable, single source of truth)
type MessageStore interface {
	Create(ctx context.Context, m *Message) error
	Update(ctx context.Context, m *Message) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Message, error)
	List(ctx context.Context) ([]*Message, error)
}

// Catalog yields the candidate messages for queue building. Implementations
// may push the active-status filter down.
type Catalog interface {
	ActiveMessages(ctx context.Context) ([]*Message, error)
}

// EventStore holds display events. Each mutation also bumps the matching
// message counter atomically with the event write.
type EventStore interface {
	InsertImpression(ctx context.Context, ev *DisplayEvent) error
	CloseDismissal(ctx context.Context, messageID, viewerID string, at time.Time) (bool, error)
	CloseClick(ctx context.Context, messageID, viewerID, action string, conversion bool, at time.Time) (bool, error)
	History(ctx context.Context, messageID, viewerID string) ([]*DisplayEvent, error)
	CountEvents(ctx context.Context, messageID string) (int64, error)
}

// Cache mirrors active messages for the read hot path.
type Cache interface {
	SaveMessage(ctx context.Context, m *Message) error
	RemoveMessage(ctx context.Context, id string) error
}

// IdentityProvider resolves a viewer id to its projection.
type IdentityProvider interface {
	Viewer(ctx context.Context, id string) (Viewer, error)
}
