package logic

import (
	"math"

	"github.com/pgrep/reputation-api/internal/models"
)

// Reaction-time window used to invert time-to-damage onto a 0-100 scale.
const (
	reactionFloorMs = 300
	reactionCeilMs  = 900
)

// metricSpec describes how one derived statistic is displayed and judged.
type metricSpec struct {
	metric        models.Metric
	label         string
	allowNegative bool
	normalize     func(v float64) float64
	classify      func(raw float64) (models.FindingStatus, int)
}

// metricTable is ordered the way findings are presented.
// Only aim, time-to-damage and the composite rating carry thresholds.
var metricTable = []metricSpec{
	{metric: models.MetricAim, label: "Aim Rating", normalize: normalizeStat, classify: func(raw float64) (models.FindingStatus, int) {
		if raw >= 95 {
			return models.StatusFlagged, 50
		}
		return models.StatusNormal, 0
	}},
	{metric: models.MetricPositioning, label: "Positioning", normalize: normalizeStat},
	{metric: models.MetricClutch, label: "Clutch Rating", allowNegative: true, normalize: normalizeStat},
	{metric: models.MetricHeadshotAccuracy, label: "HS Accuracy", normalize: normalizeStat},
	{metric: models.MetricEnemySpottedAccuracy, label: "Enemy Spotted Acc", normalize: normalizeStat},
	{metric: models.MetricTimeToDamage, label: "Time to Damage", normalize: normalizeReaction, classify: func(raw float64) (models.FindingStatus, int) {
		if raw < 500 {
			return models.StatusElevated, 15
		}
		return models.StatusNormal, 0
	}},
	{metric: models.MetricUtility, label: "Utility", normalize: normalizeStat},
	{metric: models.MetricOpening, label: "Opening Rating", allowNegative: true, normalize: normalizeStat},
	{metric: models.MetricPreaim, label: "Preaim", normalize: normalizeStat},
	{metric: models.MetricLeetifyRating, label: "Leetify Rating", allowNegative: true, normalize: normalizeStat, classify: func(raw float64) (models.FindingStatus, int) {
		if raw > 5 {
			return models.StatusFlagged, 25
		}
		return models.StatusNormal, 0
	}},
}

// normalizeStat maps a raw provider value onto 0-100.
// Ratios in [0,1] scale by 100, signed ratings in [-1,0) map via (v+1)*50,
// values already in (1,100] pass through and anything larger is divided by 10.
func normalizeStat(v float64) float64 {
	switch {
	case v >= 0 && v <= 1:
		return clamp(v*100, 0, 100)
	case v >= -1 && v < 0:
		return clamp((v+1)*50, 0, 100)
	case v > 1 && v <= 100:
		return v
	default:
		return clamp(v/10, 0, 100)
	}
}

// normalizeReaction inverts a reaction time so that faster is higher.
func normalizeReaction(ms float64) float64 {
	c := clamp(ms, reactionFloorMs, reactionCeilMs)
	pct := (c - reactionFloorMs) / (reactionCeilMs - reactionFloorMs)
	return clamp((1-pct)*100, 0, 100)
}

// rankBand is the premier range a faceit skill level is expected to sit in.
type rankBand struct {
	min, max int
}

func premierBandForLevel(level int) (rankBand, bool) {
	switch level {
	case 1:
		return rankBand{1000, 3000}, true
	case 2, 3:
		return rankBand{3000, 6000}, true
	case 4, 5:
		return rankBand{7000, 10000}, true
	case 6, 7:
		return rankBand{10000, 15000}, true
	case 8, 9:
		return rankBand{15000, 20000}, true
	case 10:
		return rankBand{20000, 30000}, true
	}
	return rankBand{}, false
}

// faceitLevelForElo follows the published faceit CS2 elo brackets.
func faceitLevelForElo(elo float64) int {
	switch {
	case elo <= 500:
		return 1
	case elo <= 750:
		return 2
	case elo <= 900:
		return 3
	case elo <= 1050:
		return 4
	case elo <= 1200:
		return 5
	case elo <= 1350:
		return 6
	case elo <= 1530:
		return 7
	case elo <= 1750:
		return 8
	case elo <= 2000:
		return 9
	default:
		return 10
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// roundHalfUp rounds .5 toward positive infinity, matching the rounding the
// dashboard has always displayed.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return roundHalfUp(v*100) / 100
}

// finite returns v when it is a usable number. Negative values are rejected
// unless allowNegative is set.
func finite(v *float64, allowNegative bool) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	if !allowNegative && *v < 0 {
		return 0, false
	}
	return *v, true
}
