// Package reminders implements the background sweep that turns medication
// schedules, refill dates, and symptom follow-ups into delivered reminders.
package reminders

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jfarrow/healthdeck/internal/engine"
	"github.com/jfarrow/healthdeck/internal/health"
	"github.com/jfarrow/healthdeck/internal/metrics"
)

// Notifier delivers a reminder message to a user.
type Notifier interface {
	Notify(email, message string) error
}

// UserLister enumerates the accounts to sweep.
type UserLister interface {
	ListEmails() ([]string, error)
}

// doseWindow is how far ahead a dose may be and still trigger a reminder.
const doseWindow = 15 * time.Minute

// Runner sweeps all users on a cron schedule.
type Runner struct {
	store    *health.Store
	users    UserLister
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	mu   sync.Mutex
	sent map[string]struct{}
}

// NewRunner creates a reminder runner.
func NewRunner(store *health.Store, users UserLister, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *Runner {
	return &Runner{
		store:    store,
		users:    users,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		cron:     cron.New(),
		sent:     make(map[string]struct{}),
	}
}

// Start schedules the sweep with the given cron spec and begins running.
func (r *Runner) Start(spec string) error {
	id, err := r.cron.AddFunc(spec, func() {
		r.Sweep(time.Now())
	})
	if err != nil {
		return fmt.Errorf("invalid reminder cron spec %q: %w", spec, err)
	}
	r.entryID = id
	r.cron.Start()
	r.logger.Info("Reminder runner started", zap.String("spec", spec))
	return nil
}

// Stop halts the sweep and waits for a running sweep to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Reminder runner stopped")
}

// Sweep derives and delivers all reminders due at now.
func (r *Runner) Sweep(now time.Time) {
	emails, err := r.users.ListEmails()
	if err != nil {
		r.logger.Error("Failed to list users for reminder sweep", zap.Error(err))
		return
	}

	for _, email := range emails {
		r.sweepUser(email, now)
	}
}

func (r *Runner) sweepUser(email string, now time.Time) {
	meds, err := r.store.ListMedications(email, true)
	if err != nil {
		r.logger.Error("Failed to list medications", zap.String("user", email), zap.Error(err))
		return
	}

	day := now.Format("2006-01-02")
	nowMinutes := now.Hour()*60 + now.Minute()

	// Dose reminders for times inside the upcoming window.
	for _, med := range meds {
		for _, t := range med.TimesToTake {
			m, err := engine.MinutesOfDay(t)
			if err != nil {
				continue
			}
			if m < nowMinutes || m-nowMinutes >= int(doseWindow.Minutes()) {
				continue
			}
			key := fmt.Sprintf("dose|%s|%s|%s|%s", email, med.ID, t, day)
			msg := fmt.Sprintf("Time to take %s (%s) at %s", med.Name, med.Dosage, t)
			r.deliver(email, key, "dose", msg)
		}
	}

	// Refill reminders, once per day per medication.
	for _, med := range engine.RefillNeeded(meds, now) {
		key := fmt.Sprintf("refill|%s|%s|%s", email, med.ID, day)
		msg := fmt.Sprintf("%s needs a refill", med.Name)
		r.deliver(email, key, "refill", msg)
	}

	// Follow-up reminders for symptom entries due today.
	symptoms, err := r.store.ListSymptomEntries(email, 0)
	if err != nil {
		r.logger.Error("Failed to list symptoms", zap.String("user", email), zap.Error(err))
		return
	}
	for _, entry := range symptoms {
		if !sameDay(entry.FollowUpDate, now) {
			continue
		}
		key := fmt.Sprintf("followup|%s|%s|%s", email, entry.ID, day)
		msg := fmt.Sprintf("Follow up on your symptoms reported %s: %s",
			entry.CreatedAt.Format("Jan 2"), shorten(entry.Description))
		r.deliver(email, key, "followup", msg)
	}
}

func (r *Runner) deliver(email, key, kind, message string) {
	r.mu.Lock()
	if _, done := r.sent[key]; done {
		r.mu.Unlock()
		return
	}
	r.sent[key] = struct{}{}
	r.mu.Unlock()

	if err := r.notifier.Notify(email, message); err != nil {
		r.logger.Error("Failed to deliver reminder",
			zap.String("user", email),
			zap.String("kind", kind),
			zap.Error(err),
		)
		// Allow a retry on the next sweep.
		r.mu.Lock()
		delete(r.sent, key)
		r.mu.Unlock()
		return
	}

	r.metrics.RemindersDelivered.WithLabelValues(kind).Inc()
	r.logger.Info("Reminder delivered", zap.String("user", email), zap.String("kind", kind))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func shorten(s string) string {
	runes := []rune(s)
	if len(runes) <= 60 {
		return s
	}
	return string(runes[:60]) + "..."
}

// LogNotifier writes reminders to the application log. It is the fallback
// when no delivery channel is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Notify(email, message string) error {
	n.Logger.Info("Reminder", zap.String("user", email), zap.String("message", message))
	return nil
}
