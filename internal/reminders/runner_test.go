package reminders

import (
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jfarrow/healthdeck/internal/health"
	"github.com/jfarrow/healthdeck/internal/metrics"
)

type staticUsers []string

func (u staticUsers) ListEmails() ([]string, error) { return u, nil }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(email, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, email+": "+message)
	return nil
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func setupRunner(t *testing.T) (*Runner, *health.Store, *recordingNotifier) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	store, err := health.New(db)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	runner := NewRunner(store, staticUsers{"ana@example.com"}, notifier, metrics.New(), zap.NewNop())
	return runner, store, notifier
}

func TestSweepDeliversDueDose(t *testing.T) {
	runner, store, notifier := setupRunner(t)

	require.NoError(t, store.CreateMedication(&health.Medication{
		CreatedBy:   "ana@example.com",
		Name:        "Lisinopril",
		Dosage:      "10mg",
		IsActive:    true,
		TimesToTake: []string{"08:10", "20:00"},
	}))

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	runner.Sweep(now)

	msgs := notifier.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Lisinopril")
	assert.Contains(t, msgs[0], "08:10")

	// A second sweep in the same window does not repeat the reminder.
	runner.Sweep(now.Add(5 * time.Minute))
	assert.Len(t, notifier.all(), 1)
}

func TestSweepSkipsDoseOutsideWindow(t *testing.T) {
	runner, store, notifier := setupRunner(t)

	require.NoError(t, store.CreateMedication(&health.Medication{
		CreatedBy:   "ana@example.com",
		Name:        "Lisinopril",
		Dosage:      "10mg",
		IsActive:    true,
		TimesToTake: []string{"20:00"},
	}))

	runner.Sweep(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	assert.Empty(t, notifier.all())
}

func TestSweepDeliversRefill(t *testing.T) {
	runner, store, notifier := setupRunner(t)

	refillDate := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateMedication(&health.Medication{
		CreatedBy:          "ana@example.com",
		Name:               "Metformin",
		Dosage:             "500mg",
		IsActive:           true,
		RefillReminderDate: &refillDate,
	}))

	runner.Sweep(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	msgs := notifier.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Metformin needs a refill")
}

func TestSweepDeliversFollowUpDueToday(t *testing.T) {
	runner, store, notifier := setupRunner(t)

	require.NoError(t, store.CreateSymptomEntry(&health.SymptomEntry{
		CreatedBy:    "ana@example.com",
		Description:  "Persistent cough",
		Severity:     health.SeverityModerate,
		Urgency:      health.UrgencyMonitor,
		FollowUpDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}))

	runner.Sweep(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	msgs := notifier.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Follow up")

	notifier2 := notifier.all()
	runner.Sweep(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, notifier2, notifier.all(), "follow-up a day late is not re-delivered")
}

func TestStartRejectsBadSpec(t *testing.T) {
	runner, _, _ := setupRunner(t)
	assert.Error(t, runner.Start("not a cron spec"))
}

func TestShortenKeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "short", shorten("short"))

	long := strings.Repeat("ü", 70)
	got := shorten(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("ü", 60)+"...", got)
}
