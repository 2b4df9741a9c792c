package engine

import (
	"github.com/jfarrow/healthdeck/internal/health"
)

// BodyPartCount is one ranked entry in the body-part frequency list.
type BodyPartCount struct {
	BodyPart string `json:"body_part"`
	Count    int    `json:"count"`
}

// topBodyParts caps the frequency ranking shown in insights.
const topBodyParts = 5

// SeverityDistribution counts entries per severity band. Every band appears
// in the result, zero or not. Entries carrying an unknown band are ignored.
func SeverityDistribution(entries []health.SymptomEntry) map[health.Severity]int {
	dist := make(map[health.Severity]int, len(health.Severities))
	for _, s := range health.Severities {
		dist[s] = 0
	}
	for _, e := range entries {
		if _, ok := dist[e.Severity]; ok {
			dist[e.Severity]++
		}
	}
	return dist
}

// BodyPartFrequency ranks affected body parts by occurrence across all
// entries, descending, ties broken by first appearance in the input, and
// truncated to the top five.
func BodyPartFrequency(entries []health.SymptomEntry) []BodyPartCount {
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		for _, part := range e.BodyParts {
			if counts[part] == 0 {
				order = append(order, part)
			}
			counts[part]++
		}
	}

	// Stable selection keeps first-seen order among equal counts.
	ranked := make([]BodyPartCount, 0, len(order))
	for _, part := range order {
		ranked = append(ranked, BodyPartCount{BodyPart: part, Count: counts[part]})
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Count > ranked[j-1].Count; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	if len(ranked) > topBodyParts {
		ranked = ranked[:topBodyParts]
	}
	return ranked
}

// UrgentCount counts entries classified seek_urgent_care or emergency.
func UrgentCount(entries []health.SymptomEntry) int {
	count := 0
	for _, e := range entries {
		if e.Urgency == health.UrgencySeekUrgentCare || e.Urgency == health.UrgencyEmergency {
			count++
		}
	}
	return count
}
