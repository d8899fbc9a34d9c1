package services

import (
	"math"
	"time"

	"github.com/google/uuid"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
)

// ScoreInputs carries the aggregates feeding one reliability recompute.
// PriorScore is the source's current stored score.
type ScoreInputs struct {
	WeightedRatingSum float64
	RatingWeightSum   float64
	RatingCount       int64
	AccurateClaims    int64
	TotalClaims       int64
	PriorScore        float64
}

// blendReliability folds the rating and accuracy components into the prior.
// A component with no data drops out and the remaining weights renormalize,
// so a source with zero ratings is not dragged toward zero by an absent
// crowd. Result is rounded to one decimal and clamped to the score range.
func blendReliability(cfg ScoringConfig, in ScoreInputs) float64 {
	num := cfg.PriorWeight * in.PriorScore
	den := cfg.PriorWeight

	if in.RatingCount > 0 && in.RatingWeightSum > 0 {
		ratingComponent := in.WeightedRatingSum / in.RatingWeightSum * 20
		num += cfg.RatingWeight * ratingComponent
		den += cfg.RatingWeight
	}
	if in.TotalClaims > 0 {
		accuracyComponent := float64(in.AccurateClaims) / float64(in.TotalClaims) * 100
		num += cfg.AccuracyWeight * accuracyComponent
		den += cfg.AccuracyWeight
	}
	if den <= 0 {
		return clampScore(cfg, round1(in.PriorScore))
	}
	return clampScore(cfg, round1(num/den))
}

func clampScore(cfg ScoringConfig, v float64) float64 {
	if v < cfg.MinScore {
		return cfg.MinScore
	}
	if v > cfg.MaxScore {
		return cfg.MaxScore
	}
	return v
}

// decayedScore applies the flat staleness penalty without crossing the
// floor and never raises a score that already sits below it.
func decayedScore(cfg DecayConfig, current float64) float64 {
	next := current - cfg.Penalty
	if next < cfg.Floor {
		next = cfg.Floor
	}
	if next > current {
		next = current
	}
	return round1(next)
}

// staleness reports whole days and weeks since the source last published.
func staleness(now, lastArticleAt time.Time) (days int, weeks int) {
	if lastArticleAt.After(now) {
		return 0, 0
	}
	days = int(now.Sub(lastArticleAt).Hours() / 24)
	return days, days / 7
}

// computeTrustScore maps lifetime rating accuracy onto the trust range.
// Zero adjudicated ratings means no evidence, and callers skip the update.
func computeTrustScore(cfg TrustConfig, accurate, total int) float64 {
	if total <= 0 {
		return cfg.MinTrust
	}
	ratio := float64(accurate) / float64(total)
	score := cfg.MinTrust + (cfg.MaxTrust-cfg.MinTrust)*ratio
	if score < cfg.MinTrust {
		score = cfg.MinTrust
	}
	if score > cfg.MaxTrust {
		score = cfg.MaxTrust
	}
	return round2(score)
}

// windowFinding is the pure classification over one recent-ratings window.
type windowFinding struct {
	Type          string
	Total         int
	DominantValue int
	DominantCount int
	Fraction      float64
	Histogram     map[int]int
	FlaggedIDs    []uuid.UUID
}

// classifyWindow decides whether a burst of ratings looks coordinated
// (a dominant value at or above the dominance threshold) or is just a
// volume spike. Returns nil below the minimum cluster size. Ties resolve
// to the lowest rating value, which cannot reach the threshold anyway.
func classifyWindow(cfg AnomalyConfig, rows []*types.SourceRating) *windowFinding {
	if len(rows) < cfg.MinClusterSize {
		return nil
	}
	hist := map[int]int{}
	for _, r := range rows {
		hist[r.Rating]++
	}
	domVal, domCount := 0, 0
	for v := types.RatingMin; v <= types.RatingMax; v++ {
		if hist[v] > domCount {
			domVal, domCount = v, hist[v]
		}
	}
	f := &windowFinding{
		Total:         len(rows),
		DominantValue: domVal,
		DominantCount: domCount,
		Fraction:      float64(domCount) / float64(len(rows)),
		Histogram:     hist,
	}
	if f.Fraction >= cfg.DominanceThreshold {
		f.Type = types.AnomalyTypeCoordinated
		for _, r := range rows {
			if r.Rating == domVal {
				f.FlaggedIDs = append(f.FlaggedIDs, r.ID)
			}
		}
	} else {
		f.Type = types.AnomalyTypeSpike
	}
	return f
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
