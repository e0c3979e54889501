// Package fitness derives coach-relevant performance metrics from raw
// workout records: maximal aerobic velocity, rolling training loads, an
// endurance profile and a 10 k race-time prediction.
package fitness

import (
	"math"
	"time"

	"github.com/stridelab/stridecoach/pkg/models"
)

const (
	// vmaFactor scales the best observed max speed into an estimated
	// maximal aerobic velocity. Inherited heuristic without a published
	// justification; treated as a contractual constant.
	vmaFactor = 1.1

	// riegelExponent is the exponent of Riegel's race-time extrapolation
	// t2 = t1 * (d2/d1)^1.06. The extrapolation basis is the shortest
	// observed workout, which may not be a race effort; the prediction is
	// an optimistic bound, not a promise.
	riegelExponent = 1.06

	// enduranceThreshold separates long sessions from short ones.
	enduranceThreshold = 45 * time.Minute

	// restRatio is the fatigue/form ratio above which rest is advised.
	restRatio = 1.5

	raceDistanceM = 10000.0
)

// Compute derives metrics from a deduplicated workout set for the given
// instant. It is pure and deterministic: permutations of the input produce
// identical output. Deduplication is the caller's contract.
func Compute(workouts []models.Workout, now time.Time) models.DerivedMetrics {
	m := models.DerivedMetrics{
		CalculationDate: now.UTC().Truncate(24 * time.Hour),
		Recommendation:  models.RecommendationContinue,
	}
	if len(workouts) > 0 {
		m.UserID = workouts[0].UserID
	}

	cutoff7 := now.Add(-7 * 24 * time.Hour)
	cutoff28 := now.Add(-28 * 24 * time.Hour)

	var (
		bestSpeed, bestVO2        float64
		haveSpeed, haveVO2        bool
		load7, load28             float64
		longCount                 int
		bestSplit10K              float64
		haveSplit                 bool
		shortest                  *models.Workout
	)

	for i := range workouts {
		w := &workouts[i]

		if w.MaxSpeedMS != nil && (!haveSpeed || *w.MaxSpeedMS > bestSpeed) {
			bestSpeed, haveSpeed = *w.MaxSpeedMS, true
		}
		if w.VO2MaxEst != nil && (!haveVO2 || *w.VO2MaxEst > bestVO2) {
			bestVO2, haveVO2 = *w.VO2MaxEst, true
		}
		if w.TrainingLoad != nil {
			if !w.Start.Before(cutoff28) && !w.Start.After(now) {
				load28 += *w.TrainingLoad
				if !w.Start.Before(cutoff7) {
					load7 += *w.TrainingLoad
				}
			}
		}
		if w.DurationSec != nil && time.Duration(*w.DurationSec)*time.Second >= enduranceThreshold {
			longCount++
		}
		if w.FastestSplit10K != nil && *w.FastestSplit10K > 0 && (!haveSplit || *w.FastestSplit10K < bestSplit10K) {
			bestSplit10K, haveSplit = *w.FastestSplit10K, true
		}
		if w.DistanceM != nil && *w.DistanceM > 0 && w.DurationSec != nil && *w.DurationSec > 0 {
			if shortest == nil || *w.DistanceM < *shortest.DistanceM {
				shortest = w
			}
		}
	}

	if haveSpeed {
		m.VMAKmh = ptr(round(bestSpeed*3.6*vmaFactor, 2))
	}
	if haveVO2 {
		m.VO2MaxEst = ptr(round(bestVO2, 1))
	}

	m.Load7d = round(load7, 1)
	m.Load28d = round(load28, 1)
	m.Form = m.Load28d
	m.Fatigue = m.Load7d

	if n := len(workouts); n > 0 {
		m.EnduranceRatio = ptr(round(float64(longCount)/float64(n), 2))
	}

	switch {
	case haveSplit:
		m.Race10KMin = ptr(round(bestSplit10K/60, 2))
	case shortest != nil:
		// Riegel's law, scaled from the shortest observed effort.
		pred := *shortest.DurationSec * math.Pow(raceDistanceM/(*shortest.DistanceM), riegelExponent)
		m.Race10KMin = ptr(round(pred/60, 2))
	}

	if load7 > restRatio*load28 {
		m.Recommendation = models.RecommendationRest
	}
	return m
}

// DailyRecommendation re-derives only the rest/continue advice from the
// rolling loads. Exposed for callers holding precomputed loads.
func DailyRecommendation(fatigue, form float64) string {
	if fatigue > restRatio*form {
		return models.RecommendationRest
	}
	return models.RecommendationContinue
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func ptr(v float64) *float64 { return &v }
