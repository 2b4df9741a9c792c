package api

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jfarrow/healthdeck/internal/engine"
	apperrors "github.com/jfarrow/healthdeck/internal/errors"
	"github.com/jfarrow/healthdeck/internal/health"
	"github.com/jfarrow/healthdeck/internal/triage"
)

// ==================== Auth ====================

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	user, err := s.identity.Register(req.Email, req.FullName, req.Password)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	token, err := s.identity.IssueToken(user)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.Status(201).JSON(fiber.Map{"user": user, "token": token})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	user, err := s.identity.Authenticate(req.Email, req.Password)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token, err := s.identity.IssueToken(user)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"user": user, "token": token})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// ==================== Medications ====================

type medicationRequest struct {
	Name               string   `json:"medication_name"`
	Dosage             string   `json:"dosage"`
	Frequency          string   `json:"frequency"`
	TimesToTake        []string `json:"times_to_take"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	RefillReminderDate string   `json:"refill_reminder_date"`
	IsActive           *bool    `json:"is_active"`
	PrescribedBy       string   `json:"prescribed_by"`
	Purpose            string   `json:"purpose"`
	SideEffects        []string `json:"side_effects_noted"`
}

func (req *medicationRequest) apply(med *health.Medication) error {
	if req.Name != "" {
		med.Name = req.Name
	}
	if req.Dosage != "" {
		med.Dosage = req.Dosage
	}
	if req.Frequency != "" {
		med.Frequency = health.Frequency(req.Frequency)
	}
	if req.TimesToTake != nil {
		times, err := engine.NormalizeTimes(req.TimesToTake)
		if err != nil {
			return err
		}
		med.TimesToTake = times
	}
	if req.IsActive != nil {
		med.IsActive = *req.IsActive
	}
	if req.PrescribedBy != "" {
		med.PrescribedBy = req.PrescribedBy
	}
	if req.Purpose != "" {
		med.Purpose = req.Purpose
	}
	if req.SideEffects != nil {
		med.SideEffects = req.SideEffects
	}

	var err error
	if med.StartDate, err = parseDateField(req.StartDate, med.StartDate); err != nil {
		return err
	}
	if med.EndDate, err = parseDateField(req.EndDate, med.EndDate); err != nil {
		return err
	}
	if med.RefillReminderDate, err = parseDateField(req.RefillReminderDate, med.RefillReminderDate); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleCreateMedication(c *fiber.Ctx) error {
	var req medicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Dosage == "" {
		return c.Status(400).JSON(fiber.Map{"error": "medication_name and dosage are required"})
	}

	med := &health.Medication{
		CreatedBy: currentUser(c).Email,
		IsActive:  true,
	}
	if err := req.apply(med); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.store.CreateMedication(med); err != nil {
		s.logger.Error("Failed to create medication", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create medication"})
	}

	return c.Status(201).JSON(med)
}

func (s *Server) handleListMedications(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active_only", false)

	meds, err := s.store.ListMedications(currentUser(c).Email, activeOnly)
	if err != nil {
		s.logger.Error("Failed to list medications", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list medications"})
	}

	return c.JSON(meds)
}

func (s *Server) handleGetMedication(c *fiber.Ctx) error {
	med, err := s.store.GetMedication(currentUser(c).Email, c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "medication not found"})
	}
	return c.JSON(med)
}

func (s *Server) handleUpdateMedication(c *fiber.Ctx) error {
	med, err := s.store.GetMedication(currentUser(c).Email, c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "medication not found"})
	}

	var req medicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if err := req.apply(med); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.store.UpdateMedication(med); err != nil {
		s.logger.Error("Failed to update medication", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to update medication"})
	}

	return c.JSON(med)
}

func (s *Server) handleDeleteMedication(c *fiber.Ctx) error {
	if err := s.store.DeleteMedication(currentUser(c).Email, c.Params("id")); err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(204)
}

func (s *Server) handleAddSideEffect(c *fiber.Ctx) error {
	med, err := s.store.GetMedication(currentUser(c).Email, c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "medication not found"})
	}

	var req struct {
		SideEffect string `json:"side_effect"`
	}
	if err := c.BodyParser(&req); err != nil || req.SideEffect == "" {
		return c.Status(400).JSON(fiber.Map{"error": "side_effect is required"})
	}

	med.SideEffects = health.AddToSet(med.SideEffects, req.SideEffect)
	if err := s.store.UpdateMedication(med); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update medication"})
	}

	return c.JSON(med)
}

func (s *Server) handleRemoveSideEffect(c *fiber.Ctx) error {
	med, err := s.store.GetMedication(currentUser(c).Email, c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "medication not found"})
	}

	var req struct {
		SideEffect string `json:"side_effect"`
	}
	if err := c.BodyParser(&req); err != nil || req.SideEffect == "" {
		return c.Status(400).JSON(fiber.Map{"error": "side_effect is required"})
	}

	med.SideEffects = health.RemoveFromSet(med.SideEffects, req.SideEffect)
	if err := s.store.UpdateMedication(med); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update medication"})
	}

	return c.JSON(med)
}

func (s *Server) handleMedicationStats(c *fiber.Ctx) error {
	meds, err := s.store.ListMedications(currentUser(c).Email, false)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list medications"})
	}

	return c.JSON(engine.Stats(meds, time.Now()))
}

func (s *Server) handleMedicationSchedule(c *fiber.Ctx) error {
	meds, err := s.store.ListMedications(currentUser(c).Email, true)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list medications"})
	}

	now := time.Now()
	return c.JSON(fiber.Map{
		"upcoming":     engine.UpcomingDoses(meds, now, engine.MedicationPageDoseLimit),
		"need_refill":  engine.RefillNeeded(meds, now),
		"generated_at": now,
	})
}

// ==================== Symptoms ====================

func (s *Server) handleListSymptoms(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	entries, err := s.store.ListSymptomEntries(currentUser(c).Email, limit)
	if err != nil {
		s.logger.Error("Failed to list symptoms", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list symptoms"})
	}

	return c.JSON(entries)
}

func (s *Server) handleAnalyzeSymptoms(c *fiber.Ctx) error {
	var report triage.Report
	if err := c.BodyParser(&report); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	s.metrics.TriageRequests.Inc()

	result, err := s.classifier.Analyze(c.Context(), currentUser(c).Email, report, time.Now())
	if err != nil {
		s.metrics.TriageFailures.WithLabelValues(apperrors.GetCode(err)).Inc()
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(result)
}

func (s *Server) handleSymptomInsights(c *fiber.Ctx) error {
	entries, err := s.store.ListSymptomEntries(currentUser(c).Email, 0)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list symptoms"})
	}

	return c.JSON(fiber.Map{
		"total":                 len(entries),
		"severity_distribution": engine.SeverityDistribution(entries),
		"body_part_frequency":   engine.BodyPartFrequency(entries),
		"urgent_count":          engine.UrgentCount(entries),
	})
}

// ==================== Journal ====================

func (s *Server) handleCreateJournal(c *fiber.Ctx) error {
	var req struct {
		MoodRating   *int   `json:"mood_rating"`
		EnergyLevel  *int   `json:"energy_level"`
		SleepQuality *int   `json:"sleep_quality"`
		Notes        string `json:"notes"`
		EntryDate    string `json:"entry_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	for _, rating := range []*int{req.MoodRating, req.EnergyLevel, req.SleepQuality} {
		if rating != nil && (*rating < 0 || *rating > 10) {
			return c.Status(400).JSON(fiber.Map{"error": "ratings must be between 0 and 10"})
		}
	}

	entryDate := time.Now()
	if req.EntryDate != "" {
		d, err := time.Parse("2006-01-02", req.EntryDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "entry_date must be YYYY-MM-DD"})
		}
		entryDate = d
	}

	entry := &health.JournalEntry{
		CreatedBy:    currentUser(c).Email,
		MoodRating:   req.MoodRating,
		EnergyLevel:  req.EnergyLevel,
		SleepQuality: req.SleepQuality,
		Notes:        req.Notes,
		EntryDate:    entryDate,
	}

	if err := s.store.CreateJournalEntry(entry); err != nil {
		s.logger.Error("Failed to create journal entry", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create journal entry"})
	}

	return c.Status(201).JSON(entry)
}

func (s *Server) handleListJournal(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 30)

	entries, err := s.store.ListJournalEntries(currentUser(c).Email, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list journal entries"})
	}

	return c.JSON(entries)
}

// ==================== Vitals ====================

func (s *Server) handleCreateVitals(c *fiber.Ctx) error {
	var req struct {
		HeartRate              *int   `json:"heart_rate"`
		BloodPressureSystolic  *int   `json:"blood_pressure_systolic"`
		BloodPressureDiastolic *int   `json:"blood_pressure_diastolic"`
		MeasurementDate        string `json:"measurement_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.HeartRate == nil && req.BloodPressureSystolic == nil && req.BloodPressureDiastolic == nil {
		return c.Status(400).JSON(fiber.Map{"error": "at least one measurement is required"})
	}

	measuredAt := time.Now()
	if req.MeasurementDate != "" {
		d, err := time.Parse(time.RFC3339, req.MeasurementDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "measurement_date must be RFC3339"})
		}
		measuredAt = d
	}

	v := &health.VitalSigns{
		CreatedBy:              currentUser(c).Email,
		HeartRate:              req.HeartRate,
		BloodPressureSystolic:  req.BloodPressureSystolic,
		BloodPressureDiastolic: req.BloodPressureDiastolic,
		MeasurementDate:        measuredAt,
	}

	if err := s.store.CreateVitalSigns(v); err != nil {
		s.logger.Error("Failed to create vitals reading", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create vitals reading"})
	}

	return c.Status(201).JSON(v)
}

func (s *Server) handleListVitals(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 30)

	vitals, err := s.store.ListVitalSigns(currentUser(c).Email, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list vitals"})
	}

	return c.JSON(vitals)
}

// ==================== Appointments ====================

func (s *Server) handleCreateAppointment(c *fiber.Ctx) error {
	var req struct {
		DoctorName      string `json:"doctor_name"`
		Specialty       string `json:"specialty"`
		Reason          string `json:"reason"`
		AppointmentDate string `json:"appointment_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.DoctorName == "" || req.AppointmentDate == "" {
		return c.Status(400).JSON(fiber.Map{"error": "doctor_name and appointment_date are required"})
	}

	when, err := time.Parse(time.RFC3339, req.AppointmentDate)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "appointment_date must be RFC3339"})
	}

	appt := &health.Appointment{
		CreatedBy:       currentUser(c).Email,
		DoctorName:      req.DoctorName,
		Specialty:       req.Specialty,
		Reason:          req.Reason,
		AppointmentDate: when,
		Status:          health.AppointmentScheduled,
	}

	if err := s.store.CreateAppointment(appt); err != nil {
		s.logger.Error("Failed to create appointment", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create appointment"})
	}

	return c.Status(201).JSON(appt)
}

func (s *Server) handleListAppointments(c *fiber.Ctx) error {
	status := health.AppointmentStatus(c.Query("status"))
	limit := c.QueryInt("limit", 50)

	appts, err := s.store.ListAppointments(currentUser(c).Email, status, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list appointments"})
	}

	return c.JSON(appts)
}

func (s *Server) handleUpdateAppointment(c *fiber.Ctx) error {
	appt, err := s.store.GetAppointment(currentUser(c).Email, c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "appointment not found"})
	}

	var req struct {
		Status          string `json:"status"`
		AppointmentDate string `json:"appointment_date"`
		Reason          string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Status != "" {
		status := health.AppointmentStatus(req.Status)
		switch status {
		case health.AppointmentScheduled, health.AppointmentCompleted, health.AppointmentCancelled:
			appt.Status = status
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
		}
	}
	if req.AppointmentDate != "" {
		when, err := time.Parse(time.RFC3339, req.AppointmentDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "appointment_date must be RFC3339"})
		}
		appt.AppointmentDate = when
	}
	if req.Reason != "" {
		appt.Reason = req.Reason
	}

	if err := s.store.UpdateAppointment(appt); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update appointment"})
	}

	return c.JSON(appt)
}

// ==================== Dashboard ====================

func (s *Server) handleDashboard(c *fiber.Ctx) error {
	owner := currentUser(c).Email

	var (
		meds     []health.Medication
		symptoms []health.SymptomEntry
		journal  []health.JournalEntry
		vitals   []health.VitalSigns
		appts    []health.Appointment

		mu       sync.Mutex
		firstErr error
	)

	capture := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		var err error
		meds, err = s.store.ListMedications(owner, true)
		capture(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		symptoms, err = s.store.ListSymptomEntries(owner, 10)
		capture(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		journal, err = s.store.ListJournalEntries(owner, 7)
		capture(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		vitals, err = s.store.ListVitalSigns(owner, 10)
		capture(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		appts, err = s.store.ListAppointments(owner, health.AppointmentScheduled, 10)
		capture(err)
	}()
	wg.Wait()

	if firstErr != nil {
		s.logger.Error("Failed to load dashboard data", zap.Error(firstErr))
		return c.Status(500).JSON(fiber.Map{"error": "failed to load dashboard"})
	}

	now := time.Now()
	return c.JSON(fiber.Map{
		"wellness":        engine.Wellness(journal),
		"upcoming_doses":  engine.UpcomingDoses(meds, now, engine.DashboardDoseLimit),
		"alerts":          engine.Alerts(meds, appts, now),
		"recent_activity": engine.RecentActivity(symptoms, journal),
		"vitals":          engine.LatestVitals(vitals),
		"averages": fiber.Map{
			"mood":   engine.JournalAverage(journal, func(j health.JournalEntry) *int { return j.MoodRating }),
			"energy": engine.JournalAverage(journal, func(j health.JournalEntry) *int { return j.EnergyLevel }),
			"sleep":  engine.JournalAverage(journal, func(j health.JournalEntry) *int { return j.SleepQuality }),
		},
	})
}

// ==================== Helpers ====================

func parseDateField(value string, current *time.Time) (*time.Time, error) {
	if value == "" {
		return current, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, "dates must be YYYY-MM-DD")
	}
	return &d, nil
}

func statusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrBadRequest.Code, apperrors.ErrInvalidTimeFormat.Code:
		return 400
	case apperrors.ErrUnauthorized.Code:
		return 401
	case apperrors.ErrForbidden.Code:
		return 403
	case apperrors.ErrNotFound.Code, apperrors.ErrRecordNotFound.Code:
		return 404
	case apperrors.ErrRateLimited.Code:
		return 429
	case apperrors.ErrClassificationContract.Code:
		return 502
	case apperrors.ErrCollaboratorUnavailable.Code, apperrors.ErrProviderNotConfigured.Code:
		return 503
	default:
		return 500
	}
}
