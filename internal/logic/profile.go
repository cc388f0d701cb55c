package logic

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/pkg/faceit"
	"github.com/pgrep/reputation-api/pkg/leetify"
	"github.com/pgrep/reputation-api/pkg/steam"
	"github.com/pgrep/reputation-api/pkg/upstream"
)

// Upstream source names used as keys of ProfileView.Errors.
const (
	SourceSteam   = "steam"
	SourceFaceit  = "faceit"
	SourceLeetify = "leetify"
)

const (
	defaultUpstreamTimeout = 10 * time.Second
	mapStatsLimit          = 4
	recentFormLimit        = 12
	historyDefaultLimit    = 50
	historyMaxLimit        = 500
)

var steamIDPattern = regexp.MustCompile(`^\d{17}$`)

var assessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pgrep_assessments_total",
	Help: "Trust assessments computed, by label",
}, []string{"label"})

// ValidSteamID reports whether id looks like a Steam64 id.
func ValidSteamID(id string) bool {
	return steamIDPattern.MatchString(id)
}

// ProfileConfig wires the profile service.
type ProfileConfig struct {
	Steam           SteamAPI
	Faceit          FaceitAPI
	Leetify         LeetifyAPI
	Repo            ProfileRepository
	Lookups         LookupQueue
	History         LookupReader
	UpstreamTimeout time.Duration
	Logger          *zap.SugaredLogger
}

// ProfileService aggregates the upstream sources into a profile view.
type ProfileService struct {
	steam   SteamAPI
	faceit  FaceitAPI
	leetify LeetifyAPI
	repo    ProfileRepository
	lookups LookupQueue
	history LookupReader
	timeout time.Duration
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewProfileService(cfg ProfileConfig) *ProfileService {
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = defaultUpstreamTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &ProfileService{
		steam:   cfg.Steam,
		faceit:  cfg.Faceit,
		leetify: cfg.Leetify,
		repo:    cfg.Repo,
		lookups: cfg.Lookups,
		history: cfg.History,
		timeout: cfg.UpstreamTimeout,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// GetProfile fetches all sources in parallel and assesses the player. A
// failing source never cancels the others; its error is reported in
// ProfileView.Errors and its payload is nil.
func (s *ProfileService) GetProfile(ctx context.Context, steamID string, viewer *models.Session) (*models.ProfileView, error) {
	if !ValidSteamID(steamID) {
		return nil, ErrInvalidSteamID
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs = make(map[string]string)
		sp   *steam.PlayerData
		fp   *faceit.PlayerData
		lp   *leetify.Profile
	)
	fail := func(source string, err error) {
		mu.Lock()
		errs[source] = sourceError(err)
		mu.Unlock()
	}

	if s.steam != nil {
		g.Go(func() error {
			data, err := s.steam.FetchPlayer(fetchCtx, steamID)
			if err != nil {
				fail(SourceSteam, err)
				return nil
			}
			sp = data
			return nil
		})
	}
	if s.faceit != nil {
		g.Go(func() error {
			data, err := s.faceit.FetchPlayer(fetchCtx, steamID)
			if err != nil {
				fail(SourceFaceit, err)
				return nil
			}
			fp = data
			return nil
		})
	}
	if s.leetify != nil {
		g.Go(func() error {
			data, err := s.leetify.Profile(fetchCtx, steamID)
			if err != nil {
				fail(SourceLeetify, err)
				return nil
			}
			lp = data
			return nil
		})
	}
	_ = g.Wait()

	if sp == nil && fp == nil && lp == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrProfileNotFound
	}

	now := s.now()
	sig := BuildSignal(sp, lp, fp)
	assessment := Assess(sig, now)
	assessmentsTotal.WithLabelValues(assessment.Label).Inc()

	view := &models.ProfileView{
		SteamID:        steamID,
		Steam:          sp,
		Faceit:         fp,
		Leetify:        lp,
		Signal:         sig,
		Assessment:     assessment,
		LeetifyPrivate: lp.Private(),
		MapStats:       AggregateMaps(recentMatches(lp)),
		RecentForm:     RecentForm(lp),
		FaceitSummary:  SummarizeFaceit(fp),
		FaceitMapStats: AggregateMaps(FaceitMatches(lp)),
		GeneratedAt:    now,
	}
	if len(errs) > 0 {
		view.Errors = errs
	}

	if s.repo != nil {
		banned, err := s.repo.HasApprovedReport(ctx, steamID)
		if err != nil {
			s.logger.Warnw("Failed to check overwatch ban", "steam_id", steamID, "error", err)
		}
		view.OverwatchBanned = banned
	}

	var persona, avatar string
	if sp != nil && sp.Summary != nil {
		persona = sp.Summary.PersonaName
		avatar = sp.Summary.AvatarFull
	}
	s.RecordView(ctx, steamID, persona, avatar, viewer)

	if s.lookups != nil {
		ev := models.NewLookupEvent(steamID, sig, assessment, now)
		ev.PersonaName = persona
		ev.AvatarURL = avatar
		if viewer != nil {
			ev.ViewerSteamID = viewer.SteamID
		}
		s.lookups.Enqueue(ev)
	}

	return view, nil
}

// RecordView upserts the viewed profile and, when signed in, the viewer.
// Failures are logged and never surface to the caller.
func (s *ProfileService) RecordView(ctx context.Context, steamID, persona, avatar string, viewer *models.Session) {
	if s.repo == nil {
		return
	}
	now := s.now()

	if err := s.repo.UpsertProfile(ctx, models.Profile{
		SteamID:     steamID,
		PersonaName: persona,
		AvatarURL:   avatar,
		LastSeenAt:  now,
	}); err != nil {
		s.logger.Warnw("Failed to record profile view", "steam_id", steamID, "error", err)
	}

	if viewer == nil || viewer.SteamID == "" {
		return
	}
	if err := s.repo.UpsertUser(ctx, models.User{
		SteamID:     viewer.SteamID,
		PersonaName: viewer.PersonaName,
		LastPath:    "/profile/" + steamID,
		LastSeenAt:  now,
	}); err != nil {
		s.logger.Warnw("Failed to record viewer", "steam_id", viewer.SteamID, "error", err)
	}
}

// SteamPlayer passes the Steam data through.
func (s *ProfileService) SteamPlayer(ctx context.Context, steamID string) (*steam.PlayerData, error) {
	if !ValidSteamID(steamID) {
		return nil, ErrInvalidSteamID
	}
	if s.steam == nil {
		return nil, ErrProfileNotFound
	}
	return s.steam.FetchPlayer(ctx, steamID)
}

// FaceitPlayer passes the FACEIT data through, keyed by FACEIT player id.
func (s *ProfileService) FaceitPlayer(ctx context.Context, playerID string) (*faceit.PlayerData, error) {
	if strings.TrimSpace(playerID) == "" || s.faceit == nil {
		return nil, ErrProfileNotFound
	}
	return s.faceit.FetchPlayerByID(ctx, playerID)
}

// LeetifyProfile passes the Leetify profile through.
func (s *ProfileService) LeetifyProfile(ctx context.Context, steamID string) (*leetify.Profile, error) {
	if !ValidSteamID(steamID) {
		return nil, ErrInvalidSteamID
	}
	if s.leetify == nil {
		return nil, ErrProfileNotFound
	}
	return s.leetify.Profile(ctx, steamID)
}

// GetMatch returns one Leetify match.
func (s *ProfileService) GetMatch(ctx context.Context, dataSource, dataSourceID string) (*leetify.Match, error) {
	if dataSource == "" || dataSourceID == "" || s.leetify == nil {
		return nil, ErrProfileNotFound
	}
	return s.leetify.Match(ctx, dataSource, dataSourceID)
}

// History returns the recorded assessments for a player, newest first.
func (s *ProfileService) History(ctx context.Context, steamID string, limit int) ([]models.LookupHistoryEntry, error) {
	if !ValidSteamID(steamID) {
		return nil, ErrInvalidSteamID
	}
	if limit <= 0 || limit > historyMaxLimit {
		limit = historyDefaultLimit
	}
	if s.history == nil {
		return []models.LookupHistoryEntry{}, nil
	}
	entries, err := s.history.LookupHistory(ctx, steamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup history: %w", err)
	}
	return entries, nil
}

// AggregateMaps groups recent matches by map and returns the most played
// maps with win count and running averages.
func AggregateMaps(matches []leetify.RecentMatch) []models.MapStat {
	if len(matches) == 0 {
		return []models.MapStat{}
	}

	index := make(map[string]int)
	var out []models.MapStat
	for _, m := range matches {
		name := m.MapName
		if name == "" {
			name = "unknown"
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, models.MapStat{MapName: name})
		}
		st := &out[i]
		n := float64(st.Matches)
		st.HSAvg = (st.HSAvg*n + deref(m.AccuracyHead)) / (n + 1)
		st.ReactionAvg = (st.ReactionAvg*n + deref(m.ReactionTimeMs)) / (n + 1)
		st.Matches++
		if m.Outcome == "win" {
			st.Wins++
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Matches > out[b].Matches })
	if len(out) > mapStatsLimit {
		out = out[:mapStatsLimit]
	}
	return out
}

func recentMatches(lp *leetify.Profile) []leetify.RecentMatch {
	if lp == nil {
		return nil
	}
	return lp.RecentMatches
}

// FaceitMatches returns the Leetify recent matches that were played on FACEIT.
func FaceitMatches(lp *leetify.Profile) []leetify.RecentMatch {
	var out []leetify.RecentMatch
	for _, m := range recentMatches(lp) {
		if m.DataSource == "faceit" {
			out = append(out, m)
		}
	}
	return out
}

// Lifetime stat keys in lookup order. FACEIT has renamed these over time.
var (
	faceitWinrateKeys  = []string{"Win Rate %", "Win Rate", "Winrate %", "Winrate"}
	faceitKDKeys       = []string{"Average K/D Ratio", "Average K/D", "K/D Ratio", "K/D"}
	faceitHeadshotKeys = []string{"Average HS %", "Average HS%", "Average Headshots %", "Average Headshots%", "HS%"}
	faceitMatchesKeys  = []string{"Matches", "Total Matches"}
)

// SummarizeFaceit builds the lifetime overview from CS2 stats and history.
// Recent results come from history winners when history is present, else
// from the lifetime "Recent Results" list.
func SummarizeFaceit(fp *faceit.PlayerData) *models.FaceitSummary {
	if fp == nil {
		return nil
	}
	out := &models.FaceitSummary{
		Winrate:       fp.StatsCS2.LifetimeValue(faceitWinrateKeys...),
		KD:            fp.StatsCS2.LifetimeValue(faceitKDKeys...),
		HeadshotPct:   fp.StatsCS2.LifetimeValue(faceitHeadshotKeys...),
		Matches:       fp.StatsCS2.LifetimeValue(faceitMatchesKeys...),
		RecentResults: make([]string, 0, recentFormLimit),
		LastMatchAt:   fp.HistoryCS2.LastMatchAt(),
	}

	if fp.HistoryCS2 != nil {
		var playerID string
		if fp.Player != nil {
			playerID = fp.Player.PlayerID
		}
		for i, item := range fp.HistoryCS2.Items {
			if i == recentFormLimit {
				break
			}
			if playerID != "" && item.Results.Winner == playerID {
				out.RecentResults = append(out.RecentResults, "W")
			} else {
				out.RecentResults = append(out.RecentResults, "L")
			}
		}
		return out
	}

	for _, r := range strings.Split(fp.StatsCS2.LifetimeValue("Recent Results"), ",") {
		if r = strings.ToUpper(strings.TrimSpace(r)); r == "" {
			continue
		}
		out.RecentResults = append(out.RecentResults, r)
		if len(out.RecentResults) == recentFormLimit {
			break
		}
	}
	return out
}

// RecentForm renders the latest match outcomes as W, L or D.
func RecentForm(lp *leetify.Profile) []string {
	if lp == nil {
		return []string{}
	}
	matches := lp.RecentMatches
	if len(matches) > recentFormLimit {
		matches = matches[:recentFormLimit]
	}
	form := make([]string, 0, len(matches))
	for _, m := range matches {
		switch strings.ToLower(m.Outcome) {
		case "win":
			form = append(form, "W")
		case "loss":
			form = append(form, "L")
		default:
			form = append(form, "D")
		}
	}
	return form
}

func sourceError(err error) string {
	var se *upstream.StatusError
	switch {
	case errors.Is(err, upstream.ErrNotFound), errors.Is(err, steam.ErrNoSummary):
		return "not found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.As(err, &se):
		return fmt.Sprintf("upstream returned %d", se.Code)
	default:
		return "unavailable"
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
