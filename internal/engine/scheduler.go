package engine

import (
	"time"

	"github.com/jfarrow/healthdeck/internal/health"
)

// Dose limits for the two surfaces that show upcoming doses.
const (
	DashboardDoseLimit      = 3
	MedicationPageDoseLimit = 4
)

// DoseSchedule is the derived next-dose entry for one medication.
type DoseSchedule struct {
	MedicationID string `json:"medication_id"`
	Name         string `json:"medication_name"`
	Dosage       string `json:"dosage"`
	Purpose      string `json:"purpose,omitempty"`
	NextTime     string `json:"next_dose"`
	IsToday      bool   `json:"is_today"`
	NeedsRefill  bool   `json:"needs_refill"`
}

// UpcomingDoses derives the next dose per medication, at most limit entries.
// Only active medications with a non-empty schedule participate. Output
// preserves input iteration order and truncation is a plain prefix take,
// not a sort by nearest dose; callers that want creation-date order pre-sort
// the input.
func UpcomingDoses(meds []health.Medication, now time.Time, limit int) []DoseSchedule {
	nowMinutes := now.Hour()*60 + now.Minute()

	var doses []DoseSchedule
	for _, med := range meds {
		if !med.IsActive || len(med.TimesToTake) == 0 {
			continue
		}
		next, today := NextTimeToday(med.TimesToTake, nowMinutes)
		doses = append(doses, DoseSchedule{
			MedicationID: med.ID,
			Name:         med.Name,
			Dosage:       med.Dosage,
			Purpose:      med.Purpose,
			NextTime:     next,
			IsToday:      today,
			NeedsRefill:  refillDue(med, now),
		})
		if limit > 0 && len(doses) == limit {
			break
		}
	}
	return doses
}

// RefillNeeded returns the active medications whose refill reminder date has
// arrived or passed.
func RefillNeeded(meds []health.Medication, now time.Time) []health.Medication {
	var due []health.Medication
	for _, med := range meds {
		if refillDue(med, now) {
			due = append(due, med)
		}
	}
	return due
}

func refillDue(med health.Medication, now time.Time) bool {
	return med.IsActive && med.RefillReminderDate != nil && IsOnOrBefore(*med.RefillReminderDate, now)
}

// MedicationStats is the quick-stats strip on the medications page.
type MedicationStats struct {
	Active          int `json:"active"`
	Inactive        int `json:"inactive"`
	NeedRefill      int `json:"need_refill"`
	TotalDailyDoses int `json:"total_daily_doses"`
}

// Stats reduces the full medication list, active and inactive, into the
// page counters. TotalDailyDoses sums schedule lengths across every
// medication regardless of active flag.
func Stats(meds []health.Medication, now time.Time) MedicationStats {
	var stats MedicationStats
	for _, med := range meds {
		if med.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if refillDue(med, now) {
			stats.NeedRefill++
		}
		stats.TotalDailyDoses += len(med.TimesToTake)
	}
	return stats
}
