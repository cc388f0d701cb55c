// Package leetify is a client for the public Leetify CS2 API.
package leetify

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pgrep/reputation-api/pkg/upstream"
)

const (
	// DefaultBaseURL is the public API host.
	DefaultBaseURL = "https://api-public.cs-prod.leetify.com"
	legacyHost     = "api.leetify.com"
	ttl            = 60 * time.Second
)

// Ranks are the player's ratings across matchmaking modes.
type Ranks struct {
	Leetify   *float64 `json:"leetify,omitempty"`
	Premier   *float64 `json:"premier,omitempty"`
	Faceit    *float64 `json:"faceit,omitempty"`
	FaceitElo *float64 `json:"faceit_elo,omitempty"`
	Wingman   *float64 `json:"wingman,omitempty"`
	Renown    *float64 `json:"renown,omitempty"`
}

// Rating holds the Leetify sub-ratings.
type Rating struct {
	Aim         *float64 `json:"aim,omitempty"`
	Positioning *float64 `json:"positioning,omitempty"`
	Utility     *float64 `json:"utility,omitempty"`
	Clutch      *float64 `json:"clutch,omitempty"`
	Opening     *float64 `json:"opening,omitempty"`
	CTLeetify   *float64 `json:"ct_leetify,omitempty"`
	TLeetify    *float64 `json:"t_leetify,omitempty"`
}

// Stats holds averaged mechanical statistics.
type Stats struct {
	AccuracyHead                  *float64 `json:"accuracy_head,omitempty"`
	AccuracyEnemySpotted          *float64 `json:"accuracy_enemy_spotted,omitempty"`
	Preaim                        *float64 `json:"preaim,omitempty"`
	ReactionTimeMs                *float64 `json:"reaction_time_ms,omitempty"`
	CounterStrafingGoodShotsRatio *float64 `json:"counter_strafing_good_shots_ratio,omitempty"`
	TradeKillsSuccessPercentage   *float64 `json:"trade_kills_success_percentage,omitempty"`
	FlashbangHitFoePerFlashbang   *float64 `json:"flashbang_hit_foe_per_flashbang,omitempty"`
	HeFoesDamageAvg               *float64 `json:"he_foes_damage_avg,omitempty"`
	UtilityOnDeathAvg             *float64 `json:"utility_on_death_avg,omitempty"`
}

// Ban is a ban recorded against the account.
type Ban struct {
	Platform string `json:"platform"`
	Source   string `json:"source,omitempty"`
	BannedAt string `json:"banned_since,omitempty"`
}

// RecentMatch is a summarized recent match.
type RecentMatch struct {
	ID             string   `json:"id"`
	FinishedAt     string   `json:"finished_at,omitempty"`
	DataSource     string   `json:"data_source,omitempty"`
	Outcome        string   `json:"outcome,omitempty"`
	MapName        string   `json:"map_name,omitempty"`
	LeetifyRating  *float64 `json:"leetify_rating,omitempty"`
	AccuracyHead   *float64 `json:"accuracy_head,omitempty"`
	ReactionTimeMs *float64 `json:"reaction_time_ms,omitempty"`
	Preaim         *float64 `json:"preaim,omitempty"`
}

// Profile is the /v3/profile resource.
type Profile struct {
	Name           string        `json:"name"`
	Steam64ID      string        `json:"steam64_id"`
	ID             string        `json:"id,omitempty"`
	PrivacyMode    string        `json:"privacy_mode,omitempty"`
	Winrate        *float64      `json:"winrate,omitempty"`
	TotalMatches   *int          `json:"total_matches,omitempty"`
	FirstMatchDate string        `json:"first_match_date,omitempty"`
	Bans           []Ban         `json:"bans,omitempty"`
	Ranks          Ranks         `json:"ranks"`
	Rating         Rating        `json:"rating"`
	Stats          Stats         `json:"stats"`
	RecentMatches  []RecentMatch `json:"recent_matches,omitempty"`
}

// Private reports whether the owner restricted the profile.
func (p *Profile) Private() bool {
	return p != nil && p.PrivacyMode != "" && p.PrivacyMode != "public"
}

// Match is the /v2/matches resource. Player stats are passed through.
type Match struct {
	ID                string           `json:"id"`
	FinishedAt        string           `json:"finished_at,omitempty"`
	DataSource        string           `json:"data_source"`
	DataSourceMatchID string           `json:"data_source_match_id"`
	MapName           string           `json:"map_name,omitempty"`
	TeamScores        []map[string]any `json:"team_scores,omitempty"`
	Stats             []map[string]any `json:"stats,omitempty"`
}

// Client calls the Leetify API.
type Client struct {
	http    *upstream.Client
	baseURL string
}

// NormalizeBaseURL rewrites the retired API host to the public one.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return DefaultBaseURL
	}
	if u, err := url.Parse(raw); err == nil && u.Host == legacyHost {
		return DefaultBaseURL
	}
	return raw
}

// New creates a Leetify client. Authentication is carried by the transport,
// see TransportOptions.
func New(baseURL string, transport *upstream.Client) *Client {
	return &Client{
		http:    transport,
		baseURL: NormalizeBaseURL(baseURL),
	}
}

// Profile fetches the profile for a Steam64 id. The API wraps the profile
// in a "profile" field on some deployments; both shapes are accepted.
func (c *Client) Profile(ctx context.Context, steamID string) (*Profile, error) {
	var raw json.RawMessage
	u := c.baseURL + "/v3/profile?" + url.Values{"steam64_id": {steamID}}.Encode()
	if err := c.http.GetJSON(ctx, u, ttl, &raw); err != nil {
		return nil, eris.Wrap(err, "leetify: profile")
	}

	var wrapped struct {
		Profile json.RawMessage `json:"profile"`
	}
	body := []byte(raw)
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Profile) > 0 && string(wrapped.Profile) != "null" {
		body = wrapped.Profile
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, eris.Wrap(err, "leetify: decode profile")
	}
	return &p, nil
}

// Match fetches a match by its source platform id.
func (c *Client) Match(ctx context.Context, dataSource, dataSourceID string) (*Match, error) {
	var m Match
	u := c.baseURL + "/v2/matches/" + url.PathEscape(dataSource) + "/" + url.PathEscape(dataSourceID)
	if err := c.http.GetJSON(ctx, u, ttl, &m); err != nil {
		return nil, eris.Wrap(err, "leetify: match")
	}
	return &m, nil
}

// TransportOptions returns the header options for an API key. The key is
// optional; when set it is sent as a bearer token and as _leetify_key.
func TransportOptions(apiKey string) []upstream.Option {
	if apiKey == "" {
		return nil
	}
	return []upstream.Option{
		upstream.WithHeader("Authorization", "Bearer "+apiKey),
		upstream.WithHeader("_leetify_key", apiKey),
	}
}
