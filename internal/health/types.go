package health

import (
	"time"
)

// Severity is the triage severity band assigned to a symptom entry.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

// Severities lists all severity bands in ascending order.
var Severities = []Severity{SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical}

// Urgency is the triage urgency classification assigned to a symptom entry.
type Urgency string

const (
	UrgencyMonitor             Urgency = "monitor"
	UrgencyScheduleAppointment Urgency = "schedule_appointment"
	UrgencySeekUrgentCare      Urgency = "seek_urgent_care"
	UrgencyEmergency           Urgency = "emergency"
)

// ValidSeverity reports whether s is one of the four permitted bands.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical:
		return true
	}
	return false
}

// ValidUrgency reports whether u is one of the four permitted classifications.
func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyMonitor, UrgencyScheduleAppointment, UrgencySeekUrgentCare, UrgencyEmergency:
		return true
	}
	return false
}

// SymptomEntry is a logged symptom report together with its triage result.
// Severity and urgency are assigned once at creation by the triage classifier
// and never mutated afterward.
type SymptomEntry struct {
	ID        string `json:"id" gorm:"primaryKey"`
	CreatedBy string `json:"created_by" gorm:"index"`

	Description string `json:"symptoms_description"`
	Duration    string `json:"duration,omitempty"`

	BodyParts     []string `json:"affected_body_parts" gorm:"-"`
	BodyPartsJSON string   `json:"-" gorm:"type:text"`

	Triggers string `json:"triggers,omitempty"`

	Severity        Severity `json:"severity_level"`
	Urgency         Urgency  `json:"urgency_classification"`
	Analysis        string   `json:"ai_analysis"`
	Recommendations string   `json:"recommendations"`

	FollowUpDate time.Time `json:"follow_up_date"`

	CreatedAt time.Time `json:"created_date"`
}

// Frequency describes how often a medication is taken.
type Frequency string

const (
	FrequencyOnceDaily    Frequency = "once_daily"
	FrequencyTwiceDaily   Frequency = "twice_daily"
	FrequencyThreeDaily   Frequency = "three_times_daily"
	FrequencyFourDaily    Frequency = "four_times_daily"
	FrequencyAsNeeded     Frequency = "as_needed"
	FrequencyWeekly       Frequency = "weekly"
	FrequencySpecificDays Frequency = "specific_days"
)

// Medication is a tracked medication with its daily schedule.
// TimesToTake holds "HH:MM" strings, deduplicated and sorted ascending;
// NormalizeTimes enforces the invariant on every edit.
type Medication struct {
	ID        string `json:"id" gorm:"primaryKey"`
	CreatedBy string `json:"created_by" gorm:"index"`

	Name      string    `json:"medication_name"`
	Dosage    string    `json:"dosage"`
	Frequency Frequency `json:"frequency"`

	TimesToTake []string `json:"times_to_take" gorm:"-"`
	TimesJSON   string   `json:"-" gorm:"type:text"`

	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	RefillReminderDate *time.Time `json:"refill_reminder_date,omitempty"`

	IsActive     bool   `json:"is_active"`
	PrescribedBy string `json:"prescribed_by,omitempty"`
	Purpose      string `json:"purpose,omitempty"`

	SideEffects     []string `json:"side_effects_noted" gorm:"-"`
	SideEffectsJSON string   `json:"-" gorm:"type:text"`

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"updated_date"`
}

// JournalEntry is a daily self-report. Ratings are 0-10; nil means the field
// was not filled in and defaults to the scale midpoint during scoring.
type JournalEntry struct {
	ID        string `json:"id" gorm:"primaryKey"`
	CreatedBy string `json:"created_by" gorm:"index"`

	MoodRating   *int `json:"mood_rating,omitempty"`
	EnergyLevel  *int `json:"energy_level,omitempty"`
	SleepQuality *int `json:"sleep_quality,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	EntryDate time.Time `json:"entry_date"`

	CreatedAt time.Time `json:"created_date"`
}

// VitalSigns is a raw vitals reading. The engine only surfaces the most
// recent present value per field.
type VitalSigns struct {
	ID        string `json:"id" gorm:"primaryKey"`
	CreatedBy string `json:"created_by" gorm:"index"`

	HeartRate              *int `json:"heart_rate,omitempty"`
	BloodPressureSystolic  *int `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *int `json:"blood_pressure_diastolic,omitempty"`

	MeasurementDate time.Time `json:"measurement_date"`

	CreatedAt time.Time `json:"created_date"`
}

// AppointmentStatus tracks the lifecycle of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is a scheduled visit with a provider.
type Appointment struct {
	ID        string `json:"id" gorm:"primaryKey"`
	CreatedBy string `json:"created_by" gorm:"index"`

	DoctorName string `json:"doctor_name"`
	Specialty  string `json:"specialty,omitempty"`
	Reason     string `json:"reason,omitempty"`

	AppointmentDate time.Time         `json:"appointment_date"`
	Status          AppointmentStatus `json:"status" gorm:"default:scheduled"`

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"updated_date"`
}
