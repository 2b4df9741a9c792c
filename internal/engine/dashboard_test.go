package engine

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarrow/healthdeck/internal/health"
)

func TestLatestVitals(t *testing.T) {
	d1 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)

	vitals := []health.VitalSigns{
		{HeartRate: intPtr(72), MeasurementDate: d1},
		{BloodPressureSystolic: intPtr(120), BloodPressureDiastolic: intPtr(80), MeasurementDate: d2},
	}

	summary := LatestVitals(vitals)
	require.NotNil(t, summary.HeartRate)
	assert.Equal(t, 72, *summary.HeartRate)
	assert.Equal(t, d1, *summary.HeartRateDate)

	require.NotNil(t, summary.BloodPressureSystolic)
	assert.Equal(t, 120, *summary.BloodPressureSystolic)
	assert.Equal(t, 80, *summary.BloodPressureDiastolic)
	assert.Equal(t, d2, *summary.BloodPressureDate)
}

func TestLatestVitals_Empty(t *testing.T) {
	summary := LatestVitals(nil)
	assert.Nil(t, summary.HeartRate)
	assert.Nil(t, summary.BloodPressureSystolic)
}

func TestLatestVitals_FirstPresentWins(t *testing.T) {
	newer := health.VitalSigns{HeartRate: intPtr(70), MeasurementDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	older := health.VitalSigns{HeartRate: intPtr(90), MeasurementDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}

	summary := LatestVitals([]health.VitalSigns{newer, older})
	assert.Equal(t, 70, *summary.HeartRate)
}

func TestRecentActivity(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	symptoms := []health.SymptomEntry{
		{Description: "persistent headache with light sensitivity", Severity: health.SeverityModerate, CreatedAt: base.Add(-1 * time.Hour)},
	}
	journal := []health.JournalEntry{
		{MoodRating: intPtr(8), EnergyLevel: intPtr(6), CreatedAt: base},
	}

	items := RecentActivity(symptoms, journal)
	require.Len(t, items, 2)

	assert.Equal(t, ActivityJournal, items[0].Kind)
	assert.Equal(t, "Mood: 8/10, Energy: 6/10", items[0].Title)
	assert.Equal(t, ActivitySymptom, items[1].Kind)
	assert.Equal(t, health.SeverityModerate, items[1].Severity)
}

func TestRecentActivity_TruncatesToSix(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	var symptoms []health.SymptomEntry
	for i := 0; i < 5; i++ {
		symptoms = append(symptoms, health.SymptomEntry{Description: "entry", CreatedAt: base.Add(-time.Duration(i) * time.Hour)})
	}
	var journal []health.JournalEntry
	for i := 0; i < 4; i++ {
		journal = append(journal, health.JournalEntry{CreatedAt: base.Add(-time.Duration(i) * time.Minute)})
	}

	items := RecentActivity(symptoms, journal)
	assert.Len(t, items, 6)
	// Newest first.
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].Date.After(items[i-1].Date))
	}
}

func TestRecentActivity_LongDescriptionTruncated(t *testing.T) {
	long := "this symptom description is well over fifty characters long and keeps going"
	items := RecentActivity([]health.SymptomEntry{{Description: long}}, nil)
	require.Len(t, items, 1)
	assert.Equal(t, long[:50]+"...", items[0].Title)
}

func TestRecentActivity_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 60)
	items := RecentActivity([]health.SymptomEntry{{Description: long}}, nil)
	require.Len(t, items, 1)
	assert.True(t, utf8.ValidString(items[0].Title))
	assert.Equal(t, strings.Repeat("é", 50)+"...", items[0].Title)
}
