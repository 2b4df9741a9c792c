package engine

import (
	"math"

	"github.com/jfarrow/healthdeck/internal/health"
)

// Wellness score tiers.
const (
	TierSuccess = "success"
	TierCaution = "caution"
	TierConcern = "concern"
)

// WellnessScore is the derived 0-100 composite of recent self-reports.
type WellnessScore struct {
	Score   int    `json:"score"`
	Message string `json:"message"`
	Tier    string `json:"tier"`
}

// wellnessWindow is how many recent journal entries feed the score.
const wellnessWindow = 7

// midpoint substitutes for a rating the user left blank.
const midpoint = 5

// Wellness computes the wellness score over the most recent journal window.
// Entries must arrive newest first; at most the first seven are used. An
// empty journal scores 0 by definition, not as an error.
func Wellness(entries []health.JournalEntry) WellnessScore {
	if len(entries) == 0 {
		return banded(0)
	}
	window := entries
	if len(window) > wellnessWindow {
		window = window[:wellnessWindow]
	}

	var mood, energy, sleep float64
	for _, e := range window {
		mood += float64(ratingOrMidpoint(e.MoodRating))
		energy += float64(ratingOrMidpoint(e.EnergyLevel))
		sleep += float64(ratingOrMidpoint(e.SleepQuality))
	}
	n := float64(len(window))
	score := int(math.Round((mood/n + energy/n + sleep/n) / 3 * 10))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return banded(score)
}

// JournalAverage is the 1-decimal mean of one rating over the window,
// counting blank fields as zero. This mirrors the metric cards, which show
// raw averages rather than the midpoint-defaulted scoring input.
func JournalAverage(entries []health.JournalEntry, pick func(health.JournalEntry) *int) float64 {
	if len(entries) == 0 {
		return 0
	}
	window := entries
	if len(window) > wellnessWindow {
		window = window[:wellnessWindow]
	}
	var sum float64
	for _, e := range window {
		if v := pick(e); v != nil {
			sum += float64(*v)
		}
	}
	return math.Round(sum/float64(len(window))*10) / 10
}

func ratingOrMidpoint(v *int) int {
	if v == nil {
		return midpoint
	}
	return *v
}

func banded(score int) WellnessScore {
	switch {
	case score >= 80:
		return WellnessScore{Score: score, Message: "Excellent health trends!", Tier: TierSuccess}
	case score >= 60:
		return WellnessScore{Score: score, Message: "Good progress overall", Tier: TierCaution}
	default:
		return WellnessScore{Score: score, Message: "Let's focus on wellness", Tier: TierConcern}
	}
}
