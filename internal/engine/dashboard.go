package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/jfarrow/healthdeck/internal/health"
)

// VitalsSummary surfaces the most recent present value per vitals field.
// Readings with a field left blank do not overwrite an older reading that
// has it.
type VitalsSummary struct {
	HeartRate              *int       `json:"heart_rate,omitempty"`
	HeartRateDate          *time.Time `json:"heart_rate_date,omitempty"`
	BloodPressureSystolic  *int       `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *int       `json:"blood_pressure_diastolic,omitempty"`
	BloodPressureDate      *time.Time `json:"blood_pressure_date,omitempty"`
}

// LatestVitals scans readings, expected newest first, and keeps the first
// present value per field.
func LatestVitals(vitals []health.VitalSigns) VitalsSummary {
	var summary VitalsSummary
	for i := range vitals {
		v := vitals[i]
		if summary.HeartRate == nil && v.HeartRate != nil {
			summary.HeartRate = v.HeartRate
			d := v.MeasurementDate
			summary.HeartRateDate = &d
		}
		if summary.BloodPressureSystolic == nil && v.BloodPressureSystolic != nil {
			summary.BloodPressureSystolic = v.BloodPressureSystolic
			summary.BloodPressureDiastolic = v.BloodPressureDiastolic
			d := v.MeasurementDate
			summary.BloodPressureDate = &d
		}
	}
	return summary
}

// Activity item kinds.
const (
	ActivitySymptom = "symptom"
	ActivityJournal = "journal"
)

// ActivityItem is one row of the merged recent-activity feed.
type ActivityItem struct {
	Kind     string          `json:"kind"`
	Title    string          `json:"title"`
	Date     time.Time       `json:"date"`
	Severity health.Severity `json:"severity,omitempty"`
}

// recentActivityLimit caps the merged feed.
const recentActivityLimit = 6

// RecentActivity merges symptom entries and journal entries into a single
// feed, newest first, truncated to six rows.
func RecentActivity(symptoms []health.SymptomEntry, journal []health.JournalEntry) []ActivityItem {
	items := make([]ActivityItem, 0, len(symptoms)+len(journal))
	for _, s := range symptoms {
		items = append(items, ActivityItem{
			Kind:     ActivitySymptom,
			Title:    truncate(s.Description, 50),
			Date:     s.CreatedAt,
			Severity: s.Severity,
		})
	}
	for _, j := range journal {
		items = append(items, ActivityItem{
			Kind:  ActivityJournal,
			Title: journalTitle(j),
			Date:  j.CreatedAt,
		})
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Date.After(items[b].Date)
	})
	if len(items) > recentActivityLimit {
		items = items[:recentActivityLimit]
	}
	return items
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func journalTitle(j health.JournalEntry) string {
	return fmt.Sprintf("Mood: %d/10, Energy: %d/10",
		ratingOrMidpoint(j.MoodRating), ratingOrMidpoint(j.EnergyLevel))
}
