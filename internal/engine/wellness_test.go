package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jfarrow/healthdeck/internal/health"
)

func intPtr(v int) *int { return &v }

func journal(mood, energy, sleep *int) health.JournalEntry {
	return health.JournalEntry{MoodRating: mood, EnergyLevel: energy, SleepQuality: sleep}
}

func TestWellness_SingleEntry(t *testing.T) {
	score := Wellness([]health.JournalEntry{journal(intPtr(8), intPtr(6), intPtr(7))})

	assert.Equal(t, 70, score.Score)
	assert.Equal(t, "Good progress overall", score.Message)
	assert.Equal(t, TierCaution, score.Tier)
}

func TestWellness_EmptyJournal(t *testing.T) {
	score := Wellness(nil)

	assert.Equal(t, 0, score.Score)
	assert.Equal(t, "Let's focus on wellness", score.Message)
	assert.Equal(t, TierConcern, score.Tier)
}

func TestWellness_MissingFieldsDefaultToMidpoint(t *testing.T) {
	// Mood 5, energy 5, sleep 5 -> 50.
	score := Wellness([]health.JournalEntry{journal(nil, nil, nil)})
	assert.Equal(t, 50, score.Score)
}

func TestWellness_WindowIsSevenEntries(t *testing.T) {
	entries := make([]health.JournalEntry, 0, 10)
	for i := 0; i < 7; i++ {
		entries = append(entries, journal(intPtr(10), intPtr(10), intPtr(10)))
	}
	// Older entries beyond the window would drag the score down if counted.
	for i := 0; i < 3; i++ {
		entries = append(entries, journal(intPtr(0), intPtr(0), intPtr(0)))
	}

	score := Wellness(entries)
	assert.Equal(t, 100, score.Score)
	assert.Equal(t, "Excellent health trends!", score.Message)
	assert.Equal(t, TierSuccess, score.Tier)
}

func TestWellness_BandBoundaries(t *testing.T) {
	tests := []struct {
		rating  int
		tier    string
		message string
	}{
		{8, TierSuccess, "Excellent health trends!"},
		{6, TierCaution, "Good progress overall"},
		{5, TierConcern, "Let's focus on wellness"},
	}

	for _, tt := range tests {
		score := Wellness([]health.JournalEntry{journal(intPtr(tt.rating), intPtr(tt.rating), intPtr(tt.rating))})
		assert.Equal(t, tt.rating*10, score.Score)
		assert.Equal(t, tt.tier, score.Tier)
		assert.Equal(t, tt.message, score.Message)
	}
}

func TestJournalAverage(t *testing.T) {
	entries := []health.JournalEntry{
		journal(intPtr(8), intPtr(6), nil),
		journal(intPtr(7), nil, intPtr(9)),
	}

	avg := JournalAverage(entries, func(e health.JournalEntry) *int { return e.MoodRating })
	assert.Equal(t, 7.5, avg)

	// Blank fields count as zero for the raw metric cards.
	avg = JournalAverage(entries, func(e health.JournalEntry) *int { return e.SleepQuality })
	assert.Equal(t, 4.5, avg)

	assert.Equal(t, 0.0, JournalAverage(nil, func(e health.JournalEntry) *int { return e.MoodRating }))
}
