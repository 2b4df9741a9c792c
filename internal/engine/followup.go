package engine

import (
	"time"

	"github.com/jfarrow/healthdeck/internal/health"
)

// followUpOffsets maps urgency classification to the number of days until
// the user should revisit the symptom. Fixed table; an emergency is
// followed up today.
var followUpOffsets = map[health.Urgency]int{
	health.UrgencyEmergency:           0,
	health.UrgencySeekUrgentCare:      1,
	health.UrgencyScheduleAppointment: 7,
	health.UrgencyMonitor:             14,
}

// FollowUpDate derives the follow-up date for an urgency classification,
// normalized to midnight in now's location.
func FollowUpDate(urgency health.Urgency, now time.Time) time.Time {
	offset := followUpOffsets[urgency]
	day := now.AddDate(0, 0, offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}
