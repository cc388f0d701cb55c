package models

import "time"

// Metric names a derived statistic reported by the analytics provider.
type Metric string

const (
	MetricAim                  Metric = "aim"
	MetricPositioning          Metric = "positioning"
	MetricClutch               Metric = "clutch"
	MetricHeadshotAccuracy     Metric = "accuracy_head"
	MetricEnemySpottedAccuracy Metric = "accuracy_enemy_spotted"
	MetricTimeToDamage         Metric = "reaction_time_ms"
	MetricUtility              Metric = "utility"
	MetricOpening              Metric = "opening"
	MetricPreaim               Metric = "preaim"
	MetricLeetifyRating        Metric = "leetify"
)

// PlayerSignal is the normalized input of the trust scorer.
// Every field is optional: nil means the upstream value was missing,
// private or failed to load, and is never interpreted as zero.
type PlayerSignal struct {
	AccountCreatedAt     *time.Time         `json:"account_created_at,omitempty"`
	PlaytimeMinutes      *float64           `json:"total_playtime_minutes,omitempty"`
	AccountLevel         *float64           `json:"account_level,omitempty"`
	CompetitiveRating    *float64           `json:"competitive_rating,omitempty"` // premier
	SecondaryLevel       *float64           `json:"secondary_level,omitempty"`    // faceit skill level 1-10
	SecondaryElo         *float64           `json:"secondary_elo,omitempty"`
	LastSecondaryMatchAt *time.Time         `json:"last_secondary_match_at,omitempty"`
	DerivedStats         map[Metric]float64 `json:"derived_stats,omitempty"`
}

// FindingStatus classifies a single anomaly finding.
type FindingStatus string

const (
	StatusNormal   FindingStatus = "normal"
	StatusElevated FindingStatus = "elevated"
	StatusFlagged  FindingStatus = "flagged"
)

// AnomalyFinding is one classified, penalized check contributing to the trust score.
type AnomalyFinding struct {
	Label         string        `json:"label"`
	Metric        Metric        `json:"metric,omitempty"`
	Value         *float64      `json:"value"`
	Percent       float64       `json:"percent"`
	Severity      float64       `json:"severity"`
	Status        FindingStatus `json:"status"`
	PenaltyPoints int           `json:"penalty_points"`
}

// RankAlignment is the outcome of the premier vs faceit comparison.
type RankAlignment string

const (
	RankAligned       RankAlignment = "aligned"
	RankMismatch      RankAlignment = "mismatch"
	RankNotApplicable RankAlignment = "not_applicable"
)

// RankCheck reports the rank-mismatch check, including the band the
// secondary level predicts for the primary rating.
type RankCheck struct {
	Status      RankAlignment `json:"status"`
	ExpectedMin *int          `json:"expected_min,omitempty"`
	ExpectedMax *int          `json:"expected_max,omitempty"`
	Penalty     int           `json:"penalty"`
}

// InactivityCheck reports the high-skill inactivity heuristic.
type InactivityCheck struct {
	Applicable     bool `json:"applicable"`
	DaysSinceMatch *int `json:"days_since_match,omitempty"`
	Severity       int  `json:"severity"`
	Penalty        int  `json:"penalty"`
}

// Bonuses are the positive adjustments; nil means the input was absent.
type Bonuses struct {
	AccountAge *float64 `json:"account_age"`
	Playtime   *float64 `json:"playtime"`
	Level      *float64 `json:"level"`
}

// Total sums the present bonuses.
func (b Bonuses) Total() float64 {
	var total float64
	for _, v := range []*float64{b.AccountAge, b.Playtime, b.Level} {
		if v != nil {
			total += *v
		}
	}
	return total
}

// Penalties is the breakdown of point deductions.
type Penalties struct {
	RankMismatch int `json:"rank_mismatch"`
	Inactivity   int `json:"inactivity"`
	Stats        int `json:"stats"`
}

// Trust labels
const (
	LabelNormal           = "Normal"
	LabelReview           = "Review"
	LabelCaution          = "Caution"
	LabelHighlySuspicious = "Highly Suspicious"
	LabelInsufficientData = "Insufficient Data"
)

// TrustAssessment is the scorer output. Score is nil when no analytics data
// was present at all; callers must render that distinctly from a zero score.
type TrustAssessment struct {
	Score      *int             `json:"score"`
	Label      string           `json:"label"`
	Anomalies  []AnomalyFinding `json:"anomalies"`
	Rank       RankCheck        `json:"rank"`
	Inactivity InactivityCheck  `json:"inactivity"`
	Bonuses    Bonuses          `json:"bonuses"`
	Penalties  Penalties        `json:"penalties"`
}

// HasScore reports whether the assessment carries a numeric score.
func (a TrustAssessment) HasScore() bool {
	return a.Score != nil
}

// Flagged returns the findings whose status is not normal.
func (a TrustAssessment) Flagged() []AnomalyFinding {
	out := make([]AnomalyFinding, 0, len(a.Anomalies))
	for _, f := range a.Anomalies {
		if f.Status != StatusNormal {
			out = append(out, f)
		}
	}
	return out
}
