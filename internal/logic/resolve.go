package logic

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/pgrep/reputation-api/pkg/upstream"
)

var (
	embeddedSteamID = regexp.MustCompile(`\b(\d{17})\b`)
	vanityURL       = regexp.MustCompile(`(?i)steamcommunity\.com/id/([^/?#]+)`)
	faceitPlayerURL = regexp.MustCompile(`(?i)faceit\.com/(?:[^/]+/)?players/([^/?#]+)`)
	steamProfileURL = regexp.MustCompile(`(?i)steamcommunity\.com/profiles/`)
	schemePrefix    = regexp.MustCompile(`(?i)^https?://`)
)

// Resolution is the outcome of resolving a free-text query.
type Resolution struct {
	SteamID      string `json:"steamId"`
	ResolvedFrom string `json:"resolvedFrom,omitempty"`
}

// ResolveService turns ids, vanity names and profile URLs into Steam64 ids.
type ResolveService struct {
	steam  SteamAPI
	faceit FaceitAPI
}

func NewResolveService(steamAPI SteamAPI, faceitAPI FaceitAPI) *ResolveService {
	return &ResolveService{steam: steamAPI, faceit: faceitAPI}
}

// Resolve tries, in order: a 17 digit id anywhere in the query, a
// steamcommunity vanity URL, a FACEIT player URL, and finally the first path
// segment of the query as a vanity name.
func (s *ResolveService) Resolve(ctx context.Context, query string) (*Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	// Also covers steamcommunity /profiles/ and leetify.com URLs, which
	// embed the id.
	if m := embeddedSteamID.FindStringSubmatch(query); m != nil {
		return &Resolution{SteamID: m[1]}, nil
	}

	if m := vanityURL.FindStringSubmatch(query); m != nil {
		return s.resolveVanity(ctx, m[1])
	}

	if m := faceitPlayerURL.FindStringSubmatch(query); m != nil {
		return s.resolveFaceit(ctx, m[1])
	}

	if steamProfileURL.MatchString(query) || strings.Contains(strings.ToLower(query), "leetify.com") {
		return nil, &ResolveError{Message: "No Steam64 id found in profile URL."}
	}

	fallback := strings.Split(schemePrefix.ReplaceAllString(query, ""), "/")[0]
	return s.resolveVanity(ctx, fallback)
}

func (s *ResolveService) resolveVanity(ctx context.Context, vanity string) (*Resolution, error) {
	if vanity == "" {
		return nil, &ResolveError{Message: "Steam vanity not found."}
	}
	if s.steam == nil {
		return nil, &ResolveError{Message: "Steam vanity lookup failed."}
	}
	id, err := s.steam.ResolveVanityURL(ctx, vanity)
	if errors.Is(err, upstream.ErrNotFound) {
		return nil, &ResolveError{Message: "Steam vanity not found.", Err: err}
	}
	if err != nil {
		return nil, &ResolveError{Message: "Steam vanity lookup failed.", Err: err}
	}
	return &Resolution{SteamID: id, ResolvedFrom: vanity}, nil
}

func (s *ResolveService) resolveFaceit(ctx context.Context, nickname string) (*Resolution, error) {
	if s.faceit == nil {
		return nil, &ResolveError{Message: "FACEIT nickname lookup failed."}
	}
	player, err := s.faceit.PlayerByNickname(ctx, nickname)
	if err != nil {
		return nil, &ResolveError{Message: "FACEIT nickname lookup failed.", Err: err}
	}
	if player == nil || player.SteamID64 == "" {
		return nil, &ResolveError{Message: "FACEIT profile has no Steam64 linked."}
	}
	return &Resolution{SteamID: player.SteamID64, ResolvedFrom: nickname}, nil
}
