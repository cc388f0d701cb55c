package logic

import (
	"time"

	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/pkg/faceit"
	"github.com/pgrep/reputation-api/pkg/leetify"
	"github.com/pgrep/reputation-api/pkg/steam"
)

// BuildSignal maps whatever upstream payloads were fetched onto the scorer
// input. Any argument may be nil.
func BuildSignal(sp *steam.PlayerData, lp *leetify.Profile, fp *faceit.PlayerData) models.PlayerSignal {
	var sig models.PlayerSignal

	if sp != nil {
		if sp.Summary != nil && sp.Summary.TimeCreated != nil && *sp.Summary.TimeCreated > 0 {
			created := time.Unix(*sp.Summary.TimeCreated, 0).UTC()
			sig.AccountCreatedAt = &created
		}
		if sp.CS2 != nil {
			sig.PlaytimeMinutes = sp.CS2.PlaytimeForever
		}
		if sp.Level != nil {
			sig.AccountLevel = ptr(float64(*sp.Level))
		}
	}

	if lp != nil {
		sig.CompetitiveRating = lp.Ranks.Premier
		stats := make(map[models.Metric]float64)
		put := func(m models.Metric, v *float64) {
			if v != nil {
				stats[m] = *v
			}
		}
		put(models.MetricAim, lp.Rating.Aim)
		put(models.MetricPositioning, lp.Rating.Positioning)
		put(models.MetricClutch, lp.Rating.Clutch)
		put(models.MetricHeadshotAccuracy, lp.Stats.AccuracyHead)
		put(models.MetricEnemySpottedAccuracy, lp.Stats.AccuracyEnemySpotted)
		put(models.MetricTimeToDamage, lp.Stats.ReactionTimeMs)
		put(models.MetricUtility, lp.Rating.Utility)
		put(models.MetricOpening, lp.Rating.Opening)
		put(models.MetricPreaim, lp.Stats.Preaim)
		put(models.MetricLeetifyRating, lp.Ranks.Leetify)
		if len(stats) > 0 {
			sig.DerivedStats = stats
		}

		// Leetify mirrors the faceit rank; used only when faceit itself is missing.
		sig.SecondaryLevel = lp.Ranks.Faceit
		sig.SecondaryElo = lp.Ranks.FaceitElo
	}

	if fp != nil {
		if g, ok := fp.Player.Game(faceit.GameCS2); ok {
			if g.SkillLevel != nil {
				sig.SecondaryLevel = g.SkillLevel
			}
			if g.FaceitElo != nil {
				sig.SecondaryElo = g.FaceitElo
			}
		}
		sig.LastSecondaryMatchAt = fp.LastMatchAt()
	}

	return sig
}
