package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarrow/healthdeck/internal/health"
)

func TestSeverityDistribution_Empty(t *testing.T) {
	dist := SeverityDistribution(nil)

	require.Len(t, dist, 4)
	for _, s := range health.Severities {
		assert.Equal(t, 0, dist[s])
	}
}

func TestSeverityDistribution(t *testing.T) {
	entries := []health.SymptomEntry{
		{Severity: health.SeverityMild},
		{Severity: health.SeverityMild},
		{Severity: health.SeverityCritical},
		{Severity: "bogus"},
	}

	dist := SeverityDistribution(entries)
	assert.Equal(t, 2, dist[health.SeverityMild])
	assert.Equal(t, 0, dist[health.SeverityModerate])
	assert.Equal(t, 0, dist[health.SeveritySevere])
	assert.Equal(t, 1, dist[health.SeverityCritical])
}

func TestBodyPartFrequency(t *testing.T) {
	entries := []health.SymptomEntry{
		{BodyParts: []string{"head", "chest"}},
		{BodyParts: []string{"head"}},
	}

	ranked := BodyPartFrequency(entries)
	require.Len(t, ranked, 2)
	assert.Equal(t, BodyPartCount{BodyPart: "head", Count: 2}, ranked[0])
	assert.Equal(t, BodyPartCount{BodyPart: "chest", Count: 1}, ranked[1])
}

func TestBodyPartFrequency_TieBreakFirstSeen(t *testing.T) {
	entries := []health.SymptomEntry{
		{BodyParts: []string{"back", "knee"}},
		{BodyParts: []string{"knee", "back"}},
	}

	ranked := BodyPartFrequency(entries)
	require.Len(t, ranked, 2)
	assert.Equal(t, "back", ranked[0].BodyPart)
	assert.Equal(t, "knee", ranked[1].BodyPart)
}

func TestBodyPartFrequency_TopFive(t *testing.T) {
	entries := []health.SymptomEntry{
		{BodyParts: []string{"a", "b", "c", "d", "e", "f", "g"}},
		{BodyParts: []string{"g"}},
	}

	ranked := BodyPartFrequency(entries)
	require.Len(t, ranked, 5)
	assert.Equal(t, "g", ranked[0].BodyPart)
	assert.Equal(t, 2, ranked[0].Count)
}

func TestUrgentCount(t *testing.T) {
	entries := []health.SymptomEntry{
		{Urgency: health.UrgencyMonitor},
		{Urgency: health.UrgencySeekUrgentCare},
		{Urgency: health.UrgencyEmergency},
		{Urgency: health.UrgencyScheduleAppointment},
	}

	assert.Equal(t, 2, UrgentCount(entries))
	assert.Equal(t, 0, UrgentCount(nil))
}
