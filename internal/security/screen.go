// Package security screens user-provided text before it is embedded into
// analysis prompts.
package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrInputTooLarge       = errors.New("input exceeds maximum size")
	ErrNullByteDetected    = errors.New("null byte detected in input")
	ErrHighWhitespaceRatio = errors.New("suspicious whitespace ratio")
	ErrRepetitiveContent   = errors.New("excessive repetition detected")
	ErrPromptInjection     = errors.New("potential prompt injection detected")
)

// Screener validates free-text fields of a symptom report.
type Screener struct {
	MaxSize            int
	MaxWhitespaceRatio float64
	MaxRepetition      int

	literals []string
	regexes  []*regexp.Regexp
}

var injectionLiterals = []string{
	"ignore previous instructions",
	"ignore all previous",
	"disregard all previous",
	"forget all previous",
	"ignore the above",
	"disregard the above",
	"your new instructions",
	"your new task",
	"system override",
	"developer mode",
}

var injectionRegexes = []string{
	`(?i)ignore\s+(all\s+)?(previous|above)\s+(instructions?|prompts?|rules?|directives?)`,
	`(?i)disregard\s+(all\s+)?(previous|above)\s+(instructions?|prompts?|rules?)`,
	`(?i)forget\s+(all\s+)?(previous|above)\s+(instructions?|context)`,
	`(?i)(override|bypass)\s+(all\s+)?(rules?|restrictions?|filters?)`,
	`(?i)system:\s*you\s+must`,
	`(?i)<\|.*\|>`,
	`(?i)\[system\].*\[\/system\]`,
	`(?i)###\s*(instruction|system)`,
}

// NewScreener builds a screener tuned for symptom descriptions.
func NewScreener() *Screener {
	s := &Screener{
		MaxSize:            8 * 1024,
		MaxWhitespaceRatio: 0.8,
		MaxRepetition:      100,
		literals:           make([]string, len(injectionLiterals)),
	}

	for i, lit := range injectionLiterals {
		s.literals[i] = strings.ToLower(lit)
	}
	for _, pattern := range injectionRegexes {
		if re, err := regexp.Compile(pattern); err == nil {
			s.regexes = append(s.regexes, re)
		}
	}

	return s
}

// Screen validates input shape and rejects prompt-injection attempts.
func (s *Screener) Screen(input string) error {
	if len(input) > s.MaxSize {
		return ErrInputTooLarge
	}

	for i := 0; i < len(input); i++ {
		if input[i] == 0 {
			return ErrNullByteDetected
		}
	}

	if s.MaxWhitespaceRatio > 0 && len(input) > 0 {
		whitespace := 0
		for _, r := range input {
			if unicode.IsSpace(r) {
				whitespace++
			}
		}
		if float64(whitespace)/float64(len(input)) > s.MaxWhitespaceRatio {
			return ErrHighWhitespaceRatio
		}
	}

	if s.MaxRepetition > 0 && hasExcessiveRepetition(input, s.MaxRepetition) {
		return ErrRepetitiveContent
	}

	inputLower := strings.ToLower(input)
	for _, lit := range s.literals {
		if strings.Contains(inputLower, lit) {
			return ErrPromptInjection
		}
	}
	for _, re := range s.regexes {
		if re.MatchString(input) {
			return ErrPromptInjection
		}
	}

	return nil
}

func hasExcessiveRepetition(input string, maxRun int) bool {
	if len(input) <= maxRun {
		return false
	}

	runes := []rune(input)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run > maxRun {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
