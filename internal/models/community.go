package models

import "time"

// Profile is an indexed player (pgrep_profiles).
type Profile struct {
	SteamID        string     `json:"steam_id"`
	PersonaName    string     `json:"persona_name,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	TrustRating    *int       `json:"trust_rating"`
	PremierRating  *int       `json:"premier_rating,omitempty"`
	AutoFlaggedAt  *time.Time `json:"auto_flagged_at,omitempty"`
	AutoFlagReason string     `json:"auto_flag_reason,omitempty"`
	LastSeenAt     time.Time  `json:"last_seen_at"`
}

// User is a signed-in visitor (pgrep_users).
type User struct {
	SteamID     string    `json:"steam_id"`
	PersonaName string    `json:"persona_name,omitempty"`
	LastPath    string    `json:"last_path,omitempty"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Session is the identity carried in the signed session cookie.
type Session struct {
	SteamID     string `json:"steamId"`
	PersonaName string `json:"personaName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	ProfileURL  string `json:"profileUrl,omitempty"`
}

// ReportStatus is the moderation state of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportDeclined ReportStatus = "declined"
)

// CheatTypes are the accepted report categories.
var CheatTypes = []string{"Aim", "Wallhack", "Triggerbot", "Rage hacking", "Spinbot", "Macro", "Other"}

// Report is a community cheating report (overwatch_reports).
type Report struct {
	ID                  int64        `json:"id"`
	TargetSteamID       string       `json:"target_steam_id"`
	TargetPersonaName   string       `json:"target_persona_name,omitempty"`
	ReporterSteamID     string       `json:"reporter_steam_id"`
	ReporterPersonaName string       `json:"reporter_persona_name,omitempty"`
	DemoURL             string       `json:"demo_url"`
	CheatType           string       `json:"cheat_type"`
	OccurredAt          time.Time    `json:"occurred_at"`
	Status              ReportStatus `json:"status"`
	CreatedAt           time.Time    `json:"created_at"`
	ResolvedAt          *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy          string       `json:"resolved_by,omitempty"`
}

// ReportCounts are the per-tab totals shown alongside a report list.
type ReportCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Declined int `json:"declined"`
	All      int `json:"all"`
	Mine     int `json:"mine"`
	Against  int `json:"against"`
}

// ReportPage is one page of reports for a tab.
type ReportPage struct {
	Tab      string       `json:"tab"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Total    int          `json:"total"`
	Reports  []Report     `json:"reports"`
	Counts   ReportCounts `json:"counts"`
}

// Notification is a message for a signed-in user (pgrep_notifications).
type Notification struct {
	ID               int64      `json:"id"`
	RecipientSteamID string     `json:"recipient_steam_id"`
	Message          string     `json:"message"`
	CreatedAt        time.Time  `json:"created_at"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
}

// Redis keys shared by the lookup worker and the tracking service.
const (
	AutoFlagCounterKey = "pgrep:stats:ai_auto_flagged"
	AutoFlagChannel    = "pgrep:autoflags"
)

// AutoFlagEvent is published when a profile is auto-flagged.
type AutoFlagEvent struct {
	SteamID     string    `json:"steam_id"`
	TrustRating int       `json:"trust_rating"`
	Reason      string    `json:"reason"`
	FlaggedAt   time.Time `json:"flagged_at"`
}

// HomeStats are the landing-page counters. Nil means unavailable.
type HomeStats struct {
	PlayersIndexed   *int `json:"playersIndexed"`
	ActiveUsers      *int `json:"activeUsers"`
	ReportsSubmitted *int `json:"reportsSubmitted"`
	AIAutoFlagged    *int `json:"aiAutoFlagged"`
}

// SeenEntry is a steam id with its last activity.
type SeenEntry struct {
	SteamID    string    `json:"steam_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// AdminStats lists recent activity for operators.
type AdminStats struct {
	ActiveWindowMinutes int         `json:"activeWindowMinutes"`
	ActiveUsers         []SeenEntry `json:"activeUsers"`
	IndexedProfiles     []SeenEntry `json:"indexedProfiles"`
}
