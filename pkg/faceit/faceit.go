// Package faceit is a client for the FACEIT Data API v4.
package faceit

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/pgrep/reputation-api/pkg/upstream"
)

// Games tracked on FACEIT.
const (
	GameCS2  = "cs2"
	GameCSGO = "csgo"
)

const (
	defaultBaseURL = "https://open.faceit.com/data/v4"
	ttl            = 60 * time.Second
	historyLimit   = 50
)

// GameInfo is a player's per-game FACEIT rank.
type GameInfo struct {
	GamePlayerID   string   `json:"game_player_id,omitempty"`
	GamePlayerName string   `json:"game_player_name,omitempty"`
	Region         string   `json:"region,omitempty"`
	SkillLevel     *float64 `json:"skill_level,omitempty"`
	FaceitElo      *float64 `json:"faceit_elo,omitempty"`
}

// Player is the FACEIT player resource.
type Player struct {
	PlayerID       string              `json:"player_id"`
	Nickname       string              `json:"nickname"`
	Avatar         string              `json:"avatar,omitempty"`
	Country        string              `json:"country,omitempty"`
	FaceitURL      string              `json:"faceit_url,omitempty"`
	SteamID64      string              `json:"steam_id_64,omitempty"`
	MembershipType string              `json:"membership_type,omitempty"`
	Verified       bool                `json:"verified"`
	Games          map[string]GameInfo `json:"games,omitempty"`
}

// Game returns the game entry if present.
func (p *Player) Game(game string) (GameInfo, bool) {
	if p == nil {
		return GameInfo{}, false
	}
	g, ok := p.Games[game]
	return g, ok
}

// Stats holds lifetime statistics. Values arrive as strings or numbers
// depending on the field.
type Stats struct {
	PlayerID string         `json:"player_id"`
	GameID   string         `json:"game_id"`
	Lifetime map[string]any `json:"lifetime"`
}

// LifetimeValue returns the first present lifetime value among keys,
// rendered as a string. Lists are joined with commas.
func (s *Stats) LifetimeValue(keys ...string) string {
	if s == nil {
		return ""
	}
	for _, k := range keys {
		switch v := s.Lifetime[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				switch x := item.(type) {
				case string:
					parts = append(parts, x)
				case float64:
					parts = append(parts, strconv.FormatFloat(x, 'f', -1, 64))
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ",")
			}
		}
	}
	return ""
}

// HistoryItem is one match of the player's history.
type HistoryItem struct {
	MatchID    string    `json:"match_id"`
	GameID     string    `json:"game_id"`
	GameMode   string    `json:"game_mode,omitempty"`
	StartedAt  Timestamp `json:"started_at"`
	FinishedAt Timestamp `json:"finished_at"`
	FaceitURL  string    `json:"faceit_url,omitempty"`
	Results    struct {
		Winner string         `json:"winner"`
		Score  map[string]int `json:"score,omitempty"`
	} `json:"results"`
}

// History is a page of matches, newest first.
type History struct {
	Items []HistoryItem `json:"items"`
}

// LastMatchAt returns the finish (or start) time of the most recent match.
func (h *History) LastMatchAt() *time.Time {
	if h == nil || len(h.Items) == 0 {
		return nil
	}
	if t := h.Items[0].FinishedAt.Ptr(); t != nil {
		return t
	}
	return h.Items[0].StartedAt.Ptr()
}

// Collection is a generic item list for the hubs, teams and tournaments
// endpoints whose payloads are passed through untouched.
type Collection struct {
	Items []map[string]any `json:"items"`
}

// PlayerData is the composite result of FetchPlayer. Player is required;
// the rest is best-effort.
type PlayerData struct {
	Player      *Player     `json:"player"`
	StatsCS2    *Stats      `json:"stats_cs2,omitempty"`
	StatsCSGO   *Stats      `json:"stats_csgo,omitempty"`
	HistoryCS2  *History    `json:"history_cs2,omitempty"`
	HistoryCSGO *History    `json:"history_csgo,omitempty"`
	Hubs        *Collection `json:"hubs,omitempty"`
	Teams       *Collection `json:"teams,omitempty"`
	Tournaments *Collection `json:"tournaments,omitempty"`
}

// LastMatchAt prefers CS2 history and falls back to CS:GO.
func (d *PlayerData) LastMatchAt() *time.Time {
	if d == nil {
		return nil
	}
	if t := d.HistoryCS2.LastMatchAt(); t != nil {
		return t
	}
	return d.HistoryCSGO.LastMatchAt()
}

// Client calls the FACEIT Data API.
type Client struct {
	http    *upstream.Client
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// New creates a FACEIT client. The transport must carry the bearer token.
func New(transport *upstream.Client, opts ...Option) *Client {
	c := &Client{http: transport, baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.http.GetJSON(ctx, u, ttl, out)
}

// PlayerByGameID looks a player up by their in-game id (the Steam64 id for cs2).
func (c *Client) PlayerByGameID(ctx context.Context, game, gamePlayerID string) (*Player, error) {
	var p Player
	if err := c.get(ctx, "/players", url.Values{"game": {game}, "game_player_id": {gamePlayerID}}, &p); err != nil {
		return nil, eris.Wrap(err, "faceit: player by game id")
	}
	return &p, nil
}

// PlayerByNickname looks a player up by FACEIT nickname.
func (c *Client) PlayerByNickname(ctx context.Context, nickname string) (*Player, error) {
	var p Player
	if err := c.get(ctx, "/players", url.Values{"nickname": {nickname}}, &p); err != nil {
		return nil, eris.Wrap(err, "faceit: player by nickname")
	}
	return &p, nil
}

// Player fetches a player by FACEIT player id.
func (c *Client) Player(ctx context.Context, playerID string) (*Player, error) {
	var p Player
	if err := c.get(ctx, "/players/"+url.PathEscape(playerID), nil, &p); err != nil {
		return nil, eris.Wrap(err, "faceit: player")
	}
	return &p, nil
}

// Stats fetches lifetime stats for a game.
func (c *Client) Stats(ctx context.Context, playerID, game string) (*Stats, error) {
	var s Stats
	if err := c.get(ctx, "/players/"+url.PathEscape(playerID)+"/stats/"+game, nil, &s); err != nil {
		return nil, eris.Wrapf(err, "faceit: %s stats", game)
	}
	return &s, nil
}

// History fetches the most recent matches for a game.
func (c *Client) History(ctx context.Context, playerID, game string) (*History, error) {
	var h History
	params := url.Values{"game": {game}, "limit": {strconv.Itoa(historyLimit)}}
	if err := c.get(ctx, "/players/"+url.PathEscape(playerID)+"/history", params, &h); err != nil {
		return nil, eris.Wrapf(err, "faceit: %s history", game)
	}
	return &h, nil
}

func (c *Client) collection(ctx context.Context, playerID, kind string) (*Collection, error) {
	var col Collection
	if err := c.get(ctx, "/players/"+url.PathEscape(playerID)+"/"+kind, url.Values{"limit": {"20"}}, &col); err != nil {
		return nil, eris.Wrapf(err, "faceit: %s", kind)
	}
	return &col, nil
}

// FetchPlayer resolves the FACEIT account linked to a Steam64 id and loads
// its stats and history for both games in parallel.
func (c *Client) FetchPlayer(ctx context.Context, steamID string) (*PlayerData, error) {
	player, err := c.PlayerByGameID(ctx, GameCS2, steamID)
	if err != nil {
		return nil, err
	}
	return c.expand(ctx, player), nil
}

// FetchPlayerByID is FetchPlayer keyed by FACEIT player id.
func (c *Client) FetchPlayerByID(ctx context.Context, playerID string) (*PlayerData, error) {
	player, err := c.Player(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return c.expand(ctx, player), nil
}

func (c *Client) expand(ctx context.Context, player *Player) *PlayerData {
	data := &PlayerData{Player: player}
	id := player.PlayerID

	var g errgroup.Group
	g.Go(func() error { data.StatsCS2, _ = c.Stats(ctx, id, GameCS2); return nil })
	g.Go(func() error { data.StatsCSGO, _ = c.Stats(ctx, id, GameCSGO); return nil })
	g.Go(func() error { data.HistoryCS2, _ = c.History(ctx, id, GameCS2); return nil })
	g.Go(func() error { data.HistoryCSGO, _ = c.History(ctx, id, GameCSGO); return nil })
	g.Go(func() error { data.Hubs, _ = c.collection(ctx, id, "hubs"); return nil })
	g.Go(func() error { data.Teams, _ = c.collection(ctx, id, "teams"); return nil })
	g.Go(func() error { data.Tournaments, _ = c.collection(ctx, id, "tournaments"); return nil })
	_ = g.Wait()

	return data
}
