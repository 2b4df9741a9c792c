package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarrow/healthdeck/internal/health"
)

func TestAlerts_OverdueRefill(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	overdue := med("m1", "Lisinopril", true, "08:00")
	overdue.RefillReminderDate = datePtr(now.AddDate(0, 0, -1))

	alerts := Alerts([]health.Medication{overdue}, nil, now)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertWarning, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "1 medication")
	assert.Equal(t, TargetMedications, alerts[0].Action)
}

func TestAlerts_Pluralized(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	m1 := med("m1", "A", true, "08:00")
	m1.RefillReminderDate = datePtr(now.AddDate(0, 0, -1))
	m2 := med("m2", "B", true, "09:00")
	m2.RefillReminderDate = datePtr(now.AddDate(0, 0, -3))

	alerts := Alerts([]health.Medication{m1, m2}, nil, now)
	require.Len(t, alerts, 1)
	assert.Equal(t, "2 medications need refill", alerts[0].Message)
}

func TestAlerts_UpcomingAppointment(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	appts := []health.Appointment{
		{ID: "a1", Status: health.AppointmentScheduled, AppointmentDate: now.Add(3 * time.Hour)},
		{ID: "a2", Status: health.AppointmentScheduled, AppointmentDate: now.Add(48 * time.Hour)},
		{ID: "a3", Status: health.AppointmentCancelled, AppointmentDate: now.Add(1 * time.Hour)},
	}

	alerts := Alerts(nil, appts, now)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertInfo, alerts[0].Type)
	assert.Equal(t, "1 appointment coming up", alerts[0].Message)
	assert.Equal(t, TargetAppointments, alerts[0].Action)
}

func TestAlerts_None(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Empty(t, Alerts(nil, nil, now))
}

func TestAlerts_Both(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	overdue := med("m1", "A", true, "08:00")
	overdue.RefillReminderDate = datePtr(now)

	appts := []health.Appointment{
		{Status: health.AppointmentScheduled, AppointmentDate: now.Add(12 * time.Hour)},
	}

	alerts := Alerts([]health.Medication{overdue}, appts, now)
	require.Len(t, alerts, 2)
	assert.Equal(t, AlertWarning, alerts[0].Type)
	assert.Equal(t, AlertInfo, alerts[1].Type)
}
