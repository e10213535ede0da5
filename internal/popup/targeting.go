package popup

import (
	"slices"
	"time"
)

// newUserDays is the account age, in days, up to which a viewer counts as new.
const newUserDays = 7

// Rejection names the first check a message failed for a viewer.
type Rejection string

const (
	RejectNone       Rejection = ""
	RejectStatus     Rejection = "status"
	RejectWindow     Rejection = "window"
	RejectPage       Rejection = "page"
	RejectRole       Rejection = "role"
	RejectAccountAge Rejection = "account_age"
	RejectAudience   Rejection = "audience"
	RejectMaxCount   Rejection = "max_display_count"
	RejectFrequency  Rejection = "frequency"
)

// IsEligible reports whether m may be shown to viewer on page at now.
// history must hold only this viewer's events for m.
func IsEligible(m *Message, viewer Viewer, page string, now time.Time, history []*DisplayEvent) bool {
	return Explain(m, viewer, page, now, history) == RejectNone
}

// Explain runs the eligibility checks in order and returns the first one
// that fails, or RejectNone.
func Explain(m *Message, viewer Viewer, page string, now time.Time, history []*DisplayEvent) Rejection {
	if m == nil || m.Status != StatusActive {
		return RejectStatus
	}
	if !m.Window.Contains(now) {
		return RejectWindow
	}
	if len(m.Pages) > 0 && !slices.Contains(m.Pages, page) {
		return RejectPage
	}
	if len(m.Roles) > 0 && !slices.Contains(m.Roles, viewer.Role) {
		return RejectRole
	}
	age := viewer.AccountAgeDays(now)
	if m.MinAccountAgeDays != nil && age < *m.MinAccountAgeDays {
		return RejectAccountAge
	}
	if !inAudience(m.Audience, viewer.Role, age) {
		return RejectAudience
	}
	if m.MaxDisplayCount != nil && len(history) >= *m.MaxDisplayCount {
		return RejectMaxCount
	}
	if !frequencyAllows(m.Frequency, now, history) {
		return RejectFrequency
	}
	return RejectNone
}

func inAudience(a Audience, role string, ageDays int) bool {
	switch a {
	case AudienceAll:
		return true
	case AudienceUsers:
		return role == RoleUser
	case AudienceAdmins:
		return role == RoleAdmin
	case AudienceModerators:
		return role == RoleModerator
	case AudienceNewUsers:
		return ageDays <= newUserDays
	case AudienceActiveUsers:
		// No engagement signal exists; this is the complement of new_users.
		return ageDays > newUserDays
	}
	return false
}

func frequencyAllows(f Frequency, now time.Time, history []*DisplayEvent) bool {
	switch f {
	case FrequencyOnce:
		return len(history) == 0
	case FrequencyDaily:
		y, m, d := now.Date()
		for _, ev := range history {
			ey, em, ed := ev.DisplayedAt.In(now.Location()).Date()
			if ey == y && em == m && ed == d {
				return false
			}
		}
		return true
	case FrequencyWeekly:
		cutoff := now.Add(-7 * 24 * time.Hour)
		for _, ev := range history {
			if ev.DisplayedAt.After(cutoff) {
				return false
			}
		}
		return true
	case FrequencyAlways:
		return true
	}
	return false
}
