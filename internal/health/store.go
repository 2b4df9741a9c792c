package health

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/jfarrow/healthdeck/internal/errors"
)

// Store handles health record persistence. Every read and write is scoped
// to an owner email; rows never cross users.
type Store struct {
	db *gorm.DB
}

// Open opens the SQLite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	sqliteDB, err := sql.Open("sqlite", path+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	return New(db)
}

// New wraps an existing gorm DB and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&SymptomEntry{}, &Medication{}, &JournalEntry{}, &VitalSigns{}, &Appointment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate health schemas: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying gorm handle for collaborators sharing the
// database file.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func generateID() string {
	return uuid.NewString()
}

// Medication operations

func (s *Store) CreateMedication(med *Medication) error {
	if med.ID == "" {
		med.ID = generateID()
	}
	serializeMedication(med)
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()
	return s.db.Create(med).Error
}

func (s *Store) GetMedication(owner, id string) (*Medication, error) {
	var med Medication
	err := s.db.Where("id = ? AND created_by = ?", id, owner).First(&med).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	deserializeMedication(&med)
	return &med, nil
}

func (s *Store) UpdateMedication(med *Medication) error {
	serializeMedication(med)
	med.UpdatedAt = time.Now()
	return s.db.Save(med).Error
}

func (s *Store) DeleteMedication(owner, id string) error {
	return s.db.Where("id = ? AND created_by = ?", id, owner).Delete(&Medication{}).Error
}

// ListMedications returns the owner's medications newest first, optionally
// restricted to active ones.
func (s *Store) ListMedications(owner string, activeOnly bool) ([]Medication, error) {
	query := s.db.Where("created_by = ?", owner)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var meds []Medication
	if err := query.Order("created_at DESC").Find(&meds).Error; err != nil {
		return nil, err
	}
	for i := range meds {
		deserializeMedication(&meds[i])
	}
	return meds, nil
}

func serializeMedication(med *Medication) {
	if len(med.TimesToTake) > 0 {
		timesJSON, _ := json.Marshal(med.TimesToTake)
		med.TimesJSON = string(timesJSON)
	} else {
		med.TimesJSON = ""
	}
	if len(med.SideEffects) > 0 {
		effectsJSON, _ := json.Marshal(med.SideEffects)
		med.SideEffectsJSON = string(effectsJSON)
	} else {
		med.SideEffectsJSON = ""
	}
}

func deserializeMedication(med *Medication) {
	if med.TimesJSON != "" {
		json.Unmarshal([]byte(med.TimesJSON), &med.TimesToTake)
	}
	if med.SideEffectsJSON != "" {
		json.Unmarshal([]byte(med.SideEffectsJSON), &med.SideEffects)
	}
}

// SymptomEntry operations

// CreateSymptomEntry persists a fully triaged entry. Severity and urgency
// must already be validated; entries without them are rejected so a failed
// classification can never leave a partial row behind.
func (s *Store) CreateSymptomEntry(entry *SymptomEntry) error {
	if !ValidSeverity(entry.Severity) || !ValidUrgency(entry.Urgency) {
		return apperrors.ErrClassificationContract
	}
	if entry.ID == "" {
		entry.ID = generateID()
	}
	if len(entry.BodyParts) > 0 {
		partsJSON, _ := json.Marshal(entry.BodyParts)
		entry.BodyPartsJSON = string(partsJSON)
	}
	entry.CreatedAt = time.Now()
	return s.db.Create(entry).Error
}

// ListSymptomEntries returns the owner's entries newest first. limit <= 0
// means no limit.
func (s *Store) ListSymptomEntries(owner string, limit int) ([]SymptomEntry, error) {
	query := s.db.Where("created_by = ?", owner).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []SymptomEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].BodyPartsJSON != "" {
			json.Unmarshal([]byte(entries[i].BodyPartsJSON), &entries[i].BodyParts)
		}
	}
	return entries, nil
}

// JournalEntry operations

func (s *Store) CreateJournalEntry(entry *JournalEntry) error {
	if entry.ID == "" {
		entry.ID = generateID()
	}
	if entry.EntryDate.IsZero() {
		entry.EntryDate = time.Now()
	}
	entry.CreatedAt = time.Now()
	return s.db.Create(entry).Error
}

// ListJournalEntries returns the owner's entries by entry date, newest
// first.
func (s *Store) ListJournalEntries(owner string, limit int) ([]JournalEntry, error) {
	query := s.db.Where("created_by = ?", owner).Order("entry_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []JournalEntry
	err := query.Find(&entries).Error
	return entries, err
}

// VitalSigns operations

func (s *Store) CreateVitalSigns(v *VitalSigns) error {
	if v.ID == "" {
		v.ID = generateID()
	}
	if v.MeasurementDate.IsZero() {
		v.MeasurementDate = time.Now()
	}
	v.CreatedAt = time.Now()
	return s.db.Create(v).Error
}

// ListVitalSigns returns the owner's readings by measurement date, newest
// first.
func (s *Store) ListVitalSigns(owner string, limit int) ([]VitalSigns, error) {
	query := s.db.Where("created_by = ?", owner).Order("measurement_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var vitals []VitalSigns
	err := query.Find(&vitals).Error
	return vitals, err
}

// Appointment operations

func (s *Store) CreateAppointment(appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = generateID()
	}
	if appt.Status == "" {
		appt.Status = AppointmentScheduled
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = time.Now()
	return s.db.Create(appt).Error
}

func (s *Store) GetAppointment(owner, id string) (*Appointment, error) {
	var appt Appointment
	err := s.db.Where("id = ? AND created_by = ?", id, owner).First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *Store) UpdateAppointment(appt *Appointment) error {
	appt.UpdatedAt = time.Now()
	return s.db.Save(appt).Error
}

// ListAppointments returns the owner's appointments, optionally filtered by
// status, soonest first.
func (s *Store) ListAppointments(owner string, status AppointmentStatus, limit int) ([]Appointment, error) {
	query := s.db.Where("created_by = ?", owner)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var appts []Appointment
	err := query.Order("appointment_date ASC").Find(&appts).Error
	return appts, err
}
