// Package steam is a client for the Steam Web API endpoints used to build
// a player profile.
package steam

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/pgrep/reputation-api/pkg/upstream"
)

// AppIDCS2 is the Counter-Strike 2 application id.
const AppIDCS2 = 730

const (
	defaultBaseURL = "https://api.steampowered.com"
	profileTTL     = 60 * time.Second
	staticTTL      = 300 * time.Second
)

// ErrNoSummary is returned when the API answers but knows no such player.
var ErrNoSummary = eris.New("steam: player summary not found")

// PlayerSummary is one entry of GetPlayerSummaries.
type PlayerSummary struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	ProfileURL               string `json:"profileurl"`
	Avatar                   string `json:"avatar,omitempty"`
	AvatarFull               string `json:"avatarfull,omitempty"`
	PersonaState             int    `json:"personastate"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	TimeCreated              *int64 `json:"timecreated,omitempty"`
	LastLogoff               *int64 `json:"lastlogoff,omitempty"`
	LocCountryCode           string `json:"loccountrycode,omitempty"`
	GameExtraInfo            string `json:"gameextrainfo,omitempty"`
}

// OwnedGame is one entry of GetOwnedGames.
type OwnedGame struct {
	AppID           int      `json:"appid"`
	PlaytimeForever *float64 `json:"playtime_forever,omitempty"`
	Playtime2Weeks  *float64 `json:"playtime_2weeks,omitempty"`
}

// RecentGame is one entry of GetRecentlyPlayedGames.
type RecentGame struct {
	AppID           int     `json:"appid"`
	Name            string  `json:"name"`
	Playtime2Weeks  float64 `json:"playtime_2weeks"`
	PlaytimeForever float64 `json:"playtime_forever"`
	ImgIconURL      string  `json:"img_icon_url,omitempty"`
}

// PlayerData is the composite profile returned by FetchPlayer. Everything
// except Summary is best-effort and may be nil.
type PlayerData struct {
	Summary     *PlayerSummary `json:"summary"`
	CS2         *OwnedGame     `json:"cs2,omitempty"`
	Level       *int           `json:"player_level,omitempty"`
	FriendCount *int           `json:"friend_count,omitempty"`
	RecentGames []RecentGame   `json:"recent_games,omitempty"`
}

// Client calls the Steam Web API.
type Client struct {
	http    *upstream.Client
	apiKey  string
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// New creates a Steam client.
func New(apiKey string, transport *upstream.Client, opts ...Option) *Client {
	c := &Client{
		http:    transport,
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) endpoint(path string, params url.Values) string {
	params.Set("key", c.apiKey)
	return c.baseURL + path + "?" + params.Encode()
}

// GetPlayerSummary fetches the public profile summary.
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	var resp struct {
		Response struct {
			Players []PlayerSummary `json:"players"`
		} `json:"response"`
	}
	u := c.endpoint("/ISteamUser/GetPlayerSummaries/v0002/", url.Values{"steamids": {steamID}})
	if err := c.http.GetJSON(ctx, u, profileTTL, &resp); err != nil {
		return nil, eris.Wrap(err, "steam: get player summaries")
	}
	if len(resp.Response.Players) == 0 {
		return nil, ErrNoSummary
	}
	return &resp.Response.Players[0], nil
}

// GetOwnedGame returns the owned-games entry for appID, or nil when the
// library is private or the game is not owned.
func (c *Client) GetOwnedGame(ctx context.Context, steamID string, appID int) (*OwnedGame, error) {
	var resp struct {
		Response struct {
			Games []OwnedGame `json:"games"`
		} `json:"response"`
	}
	params := url.Values{
		"steamid":                   {steamID},
		"include_played_free_games": {"1"},
		"appids_filter[0]":          {strconv.Itoa(appID)},
	}
	u := c.endpoint("/IPlayerService/GetOwnedGames/v0001/", params)
	if err := c.http.GetJSON(ctx, u, staticTTL, &resp); err != nil {
		return nil, eris.Wrap(err, "steam: get owned games")
	}
	for i := range resp.Response.Games {
		if resp.Response.Games[i].AppID == appID {
			return &resp.Response.Games[i], nil
		}
	}
	return nil, nil
}

// GetSteamLevel returns the account level, nil when hidden.
func (c *Client) GetSteamLevel(ctx context.Context, steamID string) (*int, error) {
	var resp struct {
		Response struct {
			PlayerLevel *int `json:"player_level"`
		} `json:"response"`
	}
	u := c.endpoint("/IPlayerService/GetSteamLevel/v1/", url.Values{"steamid": {steamID}})
	if err := c.http.GetJSON(ctx, u, staticTTL, &resp); err != nil {
		return nil, eris.Wrap(err, "steam: get steam level")
	}
	return resp.Response.PlayerLevel, nil
}

// GetFriendCount returns the number of friends, nil when the list is private.
func (c *Client) GetFriendCount(ctx context.Context, steamID string) (*int, error) {
	var resp struct {
		FriendsList *struct {
			Friends []struct {
				SteamID string `json:"steamid"`
			} `json:"friends"`
		} `json:"friendslist"`
	}
	u := c.endpoint("/ISteamUser/GetFriendList/v0001/", url.Values{"steamid": {steamID}, "relationship": {"friend"}})
	if err := c.http.GetJSON(ctx, u, staticTTL, &resp); err != nil {
		return nil, eris.Wrap(err, "steam: get friend list")
	}
	if resp.FriendsList == nil {
		return nil, nil
	}
	n := len(resp.FriendsList.Friends)
	return &n, nil
}

// GetRecentlyPlayedGames returns up to count recently played games.
func (c *Client) GetRecentlyPlayedGames(ctx context.Context, steamID string, count int) ([]RecentGame, error) {
	var resp struct {
		Response struct {
			Games []RecentGame `json:"games"`
		} `json:"response"`
	}
	u := c.endpoint("/IPlayerService/GetRecentlyPlayedGames/v0001/", url.Values{
		"steamid": {steamID},
		"count":   {strconv.Itoa(count)},
	})
	if err := c.http.GetJSON(ctx, u, profileTTL, &resp); err != nil {
		return nil, eris.Wrap(err, "steam: get recently played games")
	}
	return resp.Response.Games, nil
}

// ResolveVanityURL maps a custom profile name to a Steam64 id.
// It returns upstream.ErrNotFound when there is no match.
func (c *Client) ResolveVanityURL(ctx context.Context, vanity string) (string, error) {
	var resp struct {
		Response struct {
			Success int    `json:"success"`
			SteamID string `json:"steamid"`
		} `json:"response"`
	}
	u := c.endpoint("/ISteamUser/ResolveVanityURL/v0001/", url.Values{"vanityurl": {vanity}})
	if err := c.http.GetJSON(ctx, u, staticTTL, &resp); err != nil {
		return "", eris.Wrap(err, "steam: resolve vanity url")
	}
	if resp.Response.Success != 1 || resp.Response.SteamID == "" {
		return "", upstream.ErrNotFound
	}
	return resp.Response.SteamID, nil
}

// FetchPlayer loads the summary and, in parallel, the optional parts of the
// profile. A failure in an optional part leaves that field nil.
func (c *Client) FetchPlayer(ctx context.Context, steamID string) (*PlayerData, error) {
	summary, err := c.GetPlayerSummary(ctx, steamID)
	if err != nil {
		return nil, err
	}
	data := &PlayerData{Summary: summary}

	var g errgroup.Group
	g.Go(func() error {
		data.CS2, _ = c.GetOwnedGame(ctx, steamID, AppIDCS2)
		return nil
	})
	g.Go(func() error {
		data.Level, _ = c.GetSteamLevel(ctx, steamID)
		return nil
	})
	g.Go(func() error {
		data.FriendCount, _ = c.GetFriendCount(ctx, steamID)
		return nil
	})
	g.Go(func() error {
		data.RecentGames, _ = c.GetRecentlyPlayedGames(ctx, steamID, 4)
		return nil
	})
	_ = g.Wait()

	return data, nil
}
