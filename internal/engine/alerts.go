package engine

import (
	"fmt"
	"time"

	"github.com/jfarrow/healthdeck/internal/health"
)

// Alert levels.
const (
	AlertWarning = "warning"
	AlertInfo    = "info"
)

// Alert targets (the view the alert links to).
const (
	TargetMedications  = "medications"
	TargetAppointments = "appointments"
)

// Alert is a derived user-facing notice. Alerts are recomputed on every
// read, never persisted or deduplicated.
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// Alerts evaluates the alert rules independently against active medications
// and scheduled appointments. Each rule emits at most one alert; zero-count
// conditions emit nothing.
func Alerts(meds []health.Medication, appts []health.Appointment, now time.Time) []Alert {
	var alerts []Alert

	if n := len(RefillNeeded(meds, now)); n > 0 {
		alerts = append(alerts, Alert{
			Type:    AlertWarning,
			Message: fmt.Sprintf("%d medication%s need refill", n, plural(n)),
			Action:  TargetMedications,
		})
	}

	tomorrow := now.Add(24 * time.Hour)
	upcoming := 0
	for _, appt := range appts {
		if appt.Status == health.AppointmentScheduled && !appt.AppointmentDate.After(tomorrow) {
			upcoming++
		}
	}
	if upcoming > 0 {
		alerts = append(alerts, Alert{
			Type:    AlertInfo,
			Message: fmt.Sprintf("%d appointment%s coming up", upcoming, plural(upcoming)),
			Action:  TargetAppointments,
		})
	}

	return alerts
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
