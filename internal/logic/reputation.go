package logic

import (
	"fmt"
	"math"
	"time"

	"github.com/pgrep/reputation-api/internal/models"
)

// Scoring constants
const (
	baselineScore        = 100
	rankMismatchPenalty  = 25
	highSkillElo         = 2300
	inactivityGraceDays  = 30
	inactivityRampDays   = 60
	inactivityWeight     = 0.4
	accountAgeWeight     = 0.4
	bonusWeight          = 0.025
	secondsPerYear       = 31_536_000
	autoFlagScoreCeiling = 40
)

// Assess computes the trust assessment for a player signal.
// It is pure: the same signal and now always produce the same result.
func Assess(sig models.PlayerSignal, now time.Time) models.TrustAssessment {
	out := models.TrustAssessment{
		Label:     models.LabelInsufficientData,
		Anomalies: make([]models.AnomalyFinding, 0),
	}

	premier, hasPremier := finite(sig.CompetitiveRating, false)
	elo, hasElo := finite(sig.SecondaryElo, false)
	level, hasLevel := secondaryLevel(sig)

	// Rank mismatch
	out.Rank = models.RankCheck{Status: models.RankNotApplicable}
	if hasLevel {
		if band, ok := premierBandForLevel(level); ok {
			lo, hi := band.min, band.max
			out.Rank.ExpectedMin, out.Rank.ExpectedMax = &lo, &hi
			if hasPremier {
				if premier < float64(band.min) || premier > float64(band.max) {
					out.Rank.Status = models.RankMismatch
					out.Rank.Penalty = rankMismatchPenalty
					out.Anomalies = append(out.Anomalies, models.AnomalyFinding{
						Label:         "Rank Mismatch",
						Value:         ptr(premier),
						Severity:      100,
						Status:        models.StatusFlagged,
						PenaltyPoints: rankMismatchPenalty,
					})
				} else {
					out.Rank.Status = models.RankAligned
				}
			}
		}
	}

	// High-skill inactivity. Only a reported elo can clear the gate: the
	// lowest elo of level 10 is below highSkillElo.
	if hasElo && elo >= highSkillElo && sig.LastSecondaryMatchAt != nil {
		out.Inactivity.Applicable = true
		days := int(math.Floor(now.Sub(*sig.LastSecondaryMatchAt).Hours() / 24))
		out.Inactivity.DaysSinceMatch = &days
		if days > inactivityGraceDays {
			sev := math.Min(100, roundHalfUp(float64(days-inactivityGraceDays)/inactivityRampDays*100))
			out.Inactivity.Severity = int(sev)
			out.Inactivity.Penalty = int(roundHalfUp(sev * inactivityWeight))
			status := models.StatusElevated
			if sev >= 50 {
				status = models.StatusFlagged
			}
			out.Anomalies = append(out.Anomalies, models.AnomalyFinding{
				Label:         "High-Skill Inactivity",
				Value:         ptr(float64(days)),
				Percent:       sev,
				Severity:      sev,
				Status:        status,
				PenaltyPoints: out.Inactivity.Penalty,
			})
		}
	}

	// Per-metric scan
	statsPresent := false
	for _, spec := range metricTable {
		raw, ok := sig.DerivedStats[spec.metric]
		if !ok {
			continue
		}
		v, ok := finite(&raw, spec.allowNegative)
		if !ok {
			continue
		}
		statsPresent = true

		pct := clamp(spec.normalize(v), 0, 100)
		f := models.AnomalyFinding{
			Label:    spec.label,
			Metric:   spec.metric,
			Value:    ptr(v),
			Percent:  pct,
			Severity: roundHalfUp(pct*10) / 10,
			Status:   models.StatusNormal,
		}
		if spec.classify != nil {
			f.Status, f.PenaltyPoints = spec.classify(v)
		}
		out.Penalties.Stats += f.PenaltyPoints
		out.Anomalies = append(out.Anomalies, f)
	}
	out.Penalties.RankMismatch = out.Rank.Penalty
	out.Penalties.Inactivity = out.Inactivity.Penalty

	out.Bonuses = computeBonuses(sig, now)

	// A match timestamp alone is activity, not a rating or stat.
	hasAnalytics := hasPremier || hasElo || hasLevel || statsPresent
	if !hasAnalytics {
		return out
	}

	raw := float64(baselineScore-out.Penalties.RankMismatch-out.Penalties.Inactivity-out.Penalties.Stats) + out.Bonuses.Total()
	score := int(roundHalfUp(clamp(raw, 0, 100)))
	out.Score = &score
	out.Label = TrustLabel(score)
	return out
}

// TrustLabel maps a numeric score onto its qualitative label.
func TrustLabel(score int) string {
	switch {
	case score >= 80:
		return models.LabelNormal
	case score >= 60:
		return models.LabelReview
	case score >= 40:
		return models.LabelCaution
	default:
		return models.LabelHighlySuspicious
	}
}

// ShouldAutoFlag reports whether an assessment qualifies a profile for auto-flagging.
// Missing scores never flag.
func ShouldAutoFlag(a models.TrustAssessment) bool {
	return ScoreFlagged(a.Score)
}

// ScoreFlagged is ShouldAutoFlag for a bare stored score.
func ScoreFlagged(score *int) bool {
	return score != nil && *score < autoFlagScoreCeiling
}

// AutoFlagReason is the reason recorded on an auto-flagged profile.
func AutoFlagReason(score int) string {
	return fmt.Sprintf("Trust rating %d below %d", score, autoFlagScoreCeiling)
}

func computeBonuses(sig models.PlayerSignal, now time.Time) models.Bonuses {
	var b models.Bonuses

	if sig.AccountCreatedAt != nil {
		years := now.Sub(*sig.AccountCreatedAt).Seconds() / secondsPerYear
		if years >= 0 {
			b.AccountAge = ptr(round2(math.Min(100, years*10) / 10 * accountAgeWeight))
		}
	}

	if minutes, ok := finite(sig.PlaytimeMinutes, false); ok {
		hours := roundHalfUp(minutes / 60)
		b.Playtime = ptr(round2(math.Min(100, hours*0.015) * bonusWeight))
	}

	if lvl, ok := finite(sig.AccountLevel, false); ok {
		b.Level = ptr(round2(math.Min(100, lvl*0.6) * bonusWeight))
	}

	return b
}

// secondaryLevel prefers the reported faceit level and falls back to the
// level implied by elo.
func secondaryLevel(sig models.PlayerSignal) (int, bool) {
	if lvl, ok := finite(sig.SecondaryLevel, false); ok && lvl >= 1 {
		return int(lvl), true
	}
	if elo, ok := finite(sig.SecondaryElo, false); ok {
		return faceitLevelForElo(elo), true
	}
	return 0, false
}

func ptr[T any](v T) *T {
	return &v
}
