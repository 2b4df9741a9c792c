// Package engine derives dashboard summaries from raw health records.
// Every function here is a pure computation over an immutable snapshot and
// an explicit instant: no clock reads, no I/O, no shared state. Callers pass
// time.Now() and the record collections they fetched.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jfarrow/healthdeck/internal/errors"
)

// MinutesOfDay parses a strict zero-padded "HH:MM" string into minutes
// since midnight, in [0, 1439]. Returns ErrInvalidTimeFormat on anything
// else; the strict format keeps lexical order equal to chronological order
// for stored schedule times.
func MinutesOfDay(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, errors.Wrap(fmt.Errorf("%q", hhmm), errors.ErrInvalidTimeFormat.Code, errors.ErrInvalidTimeFormat.Message)
	}
	var hours, minutes int
	for _, idx := range []int{0, 1, 3, 4} {
		if hhmm[idx] < '0' || hhmm[idx] > '9' {
			return 0, errors.Wrap(fmt.Errorf("%q", hhmm), errors.ErrInvalidTimeFormat.Code, errors.ErrInvalidTimeFormat.Message)
		}
	}
	hours = int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	minutes = int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	if hours > 23 || minutes > 59 {
		return 0, errors.Wrap(fmt.Errorf("%q", hhmm), errors.ErrInvalidTimeFormat.Code, errors.ErrInvalidTimeFormat.Message)
	}
	return hours*60 + minutes, nil
}

// FormatMinutes renders minutes-since-midnight back to "HH:MM".
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// NextTimeToday returns the first schedule entry strictly after nowMinutes.
// When every time has already passed it wraps to the earliest entry — the
// "show tomorrow's first dose" policy — and reports isToday=false. The
// times slice must be sorted ascending (the store invariant).
func NextTimeToday(times []string, nowMinutes int) (next string, isToday bool) {
	if len(times) == 0 {
		return "", false
	}
	for _, t := range times {
		m, err := MinutesOfDay(t)
		if err != nil {
			continue
		}
		if m > nowMinutes {
			return t, true
		}
	}
	return times[0], false
}

// IsOnOrBefore compares d against ref at day granularity: true when d falls
// on ref's calendar day or any earlier day, in ref's location. Time of day
// on either side is ignored, so a refill date of "today 23:59" is already
// due at "today 00:01".
func IsOnOrBefore(d, ref time.Time) bool {
	dDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, ref.Location())
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return !dDay.After(refDay)
}

// NormalizeTimes validates, dedupes and sorts a list of "HH:MM" times.
// Every edit to a medication schedule goes through here so the stored list
// stays unique and ascending.
func NormalizeTimes(times []string) ([]string, error) {
	seen := make(map[string]bool, len(times))
	out := make([]string, 0, len(times))
	for _, t := range times {
		t = strings.TrimSpace(t)
		if _, err := MinutesOfDay(t); err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}
