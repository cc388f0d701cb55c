package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pgrep/reputation-api/pkg/faceit"
	"github.com/pgrep/reputation-api/pkg/leetify"
	"github.com/pgrep/reputation-api/pkg/steam"
)

// LookupEvent records one profile assessment (ClickHouse pgrep.profile_lookups).
type LookupEvent struct {
	ID            uuid.UUID `json:"id"`
	SteamID       string    `json:"steam_id"`
	ViewerSteamID string    `json:"viewer_steam_id,omitempty"`
	PersonaName   string    `json:"persona_name,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Score         *int      `json:"score"`
	Label         string    `json:"label"`
	AnomalyCount  int       `json:"anomaly_count"`
	FlaggedCount  int       `json:"flagged_count"`
	Premier       *float64  `json:"premier,omitempty"`
	FaceitElo     *float64  `json:"faceit_elo,omitempty"`
	LookedUpAt    time.Time `json:"looked_up_at"`
}

// NewLookupEvent summarizes an assessment for the lookup log.
func NewLookupEvent(steamID string, sig PlayerSignal, a TrustAssessment, at time.Time) LookupEvent {
	return LookupEvent{
		ID:           uuid.New(),
		SteamID:      steamID,
		Score:        a.Score,
		Label:        a.Label,
		AnomalyCount: len(a.Anomalies),
		FlaggedCount: len(a.Flagged()),
		Premier:      sig.CompetitiveRating,
		FaceitElo:    sig.SecondaryElo,
		LookedUpAt:   at,
	}
}

// LookupHistoryEntry is one row of a profile's score history.
type LookupHistoryEntry struct {
	LookedUpAt   time.Time `json:"looked_up_at"`
	Score        *int      `json:"score"`
	Label        string    `json:"label"`
	AnomalyCount int       `json:"anomaly_count"`
	Premier      *float64  `json:"premier,omitempty"`
	FaceitElo    *float64  `json:"faceit_elo,omitempty"`
}

// MapStat aggregates recent matches on one map.
type MapStat struct {
	MapName     string  `json:"map_name"`
	Matches     int     `json:"matches"`
	Wins        int     `json:"wins"`
	HSAvg       float64 `json:"hs_avg"`
	ReactionAvg float64 `json:"reaction_avg"`
}

// FaceitSummary is the lifetime FACEIT overview shown on a profile. Values
// keep the provider's formatting; missing ones are empty.
type FaceitSummary struct {
	Winrate       string     `json:"winrate,omitempty"`
	KD            string     `json:"kd,omitempty"`
	HeadshotPct   string     `json:"headshot_pct,omitempty"`
	Matches       string     `json:"matches,omitempty"`
	RecentResults []string   `json:"recent_results"`
	LastMatchAt   *time.Time `json:"last_match_at,omitempty"`
}

// ProfileView is the aggregated profile response. Sources that failed are
// nil and carry a message in Errors keyed by source name.
type ProfileView struct {
	SteamID         string             `json:"steam_id"`
	Steam           *steam.PlayerData  `json:"steam"`
	Faceit          *faceit.PlayerData `json:"faceit"`
	Leetify         *leetify.Profile   `json:"leetify"`
	Errors          map[string]string  `json:"errors,omitempty"`
	Signal          PlayerSignal       `json:"signal"`
	Assessment      TrustAssessment    `json:"assessment"`
	OverwatchBanned bool               `json:"overwatch_banned"`
	LeetifyPrivate  bool               `json:"leetify_private"`
	MapStats        []MapStat          `json:"map_stats"`
	RecentForm      []string           `json:"recent_form"`
	FaceitSummary   *FaceitSummary     `json:"faceit_summary"`
	FaceitMapStats  []MapStat          `json:"faceit_map_stats"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
