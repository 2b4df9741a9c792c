// Package triage turns free-text symptom reports into persisted, classified
// symptom entries. Classification is delegated to an analysis provider; the
// provider's answer is validated against the severity and urgency enums and
// rejected outright on any violation, so no partially classified entry is
// ever stored.
package triage

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jfarrow/healthdeck/internal/engine"
	"github.com/jfarrow/healthdeck/internal/errors"
	"github.com/jfarrow/healthdeck/internal/health"
	"github.com/jfarrow/healthdeck/internal/security"
)

// Collaborator is the analysis provider contract. *llm.Client satisfies it.
type Collaborator interface {
	StructuredChat(ctx context.Context, systemPrompt, userMessage, schemaName string, schema map[string]interface{}, dest interface{}) error
}

// classification mirrors the schema the provider must answer with.
type classification struct {
	Analysis              string   `json:"analysis"`
	PossibleCauses        []string `json:"possible_causes"`
	SeverityLevel         string   `json:"severity_level"`
	UrgencyClassification string   `json:"urgency_classification"`
	Recommendations       string   `json:"recommendations"`
	WhenToSeekHelp        string   `json:"when_to_seek_help"`
	SelfCareTips          []string `json:"self_care_tips"`
}

// Report is the user-provided symptom description to classify.
type Report struct {
	Description string   `json:"symptoms_description"`
	Duration    string   `json:"duration,omitempty"`
	BodyParts   []string `json:"affected_body_parts,omitempty"`
	Triggers    string   `json:"triggers,omitempty"`
}

// Result is a classified, persisted symptom entry plus the advisory fields
// that are returned to the caller but not stored.
type Result struct {
	Entry          *health.SymptomEntry `json:"entry"`
	PossibleCauses []string             `json:"possible_causes,omitempty"`
	WhenToSeekHelp string               `json:"when_to_seek_help,omitempty"`
	SelfCareTips   []string             `json:"self_care_tips,omitempty"`
}

// Classifier runs symptom triage against an analysis provider, guarded by a
// per-instance rate limiter and a circuit breaker.
type Classifier struct {
	collaborator Collaborator
	store        *health.Store
	logger       *zap.Logger
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[*classification]
	screener     *security.Screener
}

// NewClassifier creates a classifier. requestsPerMinute caps analysis calls;
// zero or negative means unlimited.
func NewClassifier(collaborator Collaborator, store *health.Store, logger *zap.Logger, requestsPerMinute int) *Classifier {
	var limiter *rate.Limiter
	if requestsPerMinute > 0 {
		rps := float64(requestsPerMinute) / 60.0
		limiter = rate.NewLimiter(rate.Limit(rps), requestsPerMinute)
	}

	breaker := gobreaker.NewCircuitBreaker[*classification](gobreaker.Settings{
		Name:        "symptom-analysis",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Analysis circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Classifier{
		collaborator: collaborator,
		store:        store,
		logger:       logger,
		limiter:      limiter,
		breaker:      breaker,
		screener:     security.NewScreener(),
	}
}

// Analyze classifies a symptom report and persists the resulting entry for
// owner. now anchors the derived follow-up date.
func (c *Classifier) Analyze(ctx context.Context, owner string, report Report, now time.Time) (*Result, error) {
	if strings.TrimSpace(report.Description) == "" {
		return nil, errors.Wrap(nil, errors.ErrBadRequest.Code, "symptoms description is required")
	}

	for _, field := range []string{report.Description, report.Duration, report.Triggers} {
		if err := c.screener.Screen(field); err != nil {
			return nil, errors.Wrap(err, errors.ErrBadRequest.Code, "symptom report rejected")
		}
	}

	if c.limiter != nil && !c.limiter.Allow() {
		return nil, errors.ErrRateLimited
	}

	resp, err := c.breaker.Execute(func() (*classification, error) {
		var out classification
		if err := c.collaborator.StructuredChat(ctx, systemPrompt, buildPrompt(report), "symptom_assessment", assessmentSchema(), &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Wrap(err, errors.ErrCollaboratorUnavailable.Code, errors.ErrCollaboratorUnavailable.Message)
		}
		c.logger.Error("Symptom analysis failed", zap.Error(err))
		return nil, errors.Wrap(err, errors.ErrCollaboratorUnavailable.Code, errors.ErrCollaboratorUnavailable.Message)
	}

	severity := health.Severity(resp.SeverityLevel)
	urgency := health.Urgency(resp.UrgencyClassification)
	if !health.ValidSeverity(severity) || !health.ValidUrgency(urgency) {
		c.logger.Warn("Analysis response outside classification contract",
			zap.String("severity", resp.SeverityLevel),
			zap.String("urgency", resp.UrgencyClassification),
		)
		return nil, errors.Wrap(nil, errors.ErrClassificationContract.Code,
			fmt.Sprintf("unrecognized severity %q or urgency %q", resp.SeverityLevel, resp.UrgencyClassification))
	}

	entry := &health.SymptomEntry{
		CreatedBy:       owner,
		Description:     report.Description,
		Duration:        report.Duration,
		BodyParts:       report.BodyParts,
		Triggers:        report.Triggers,
		Severity:        severity,
		Urgency:         urgency,
		Analysis:        resp.Analysis,
		Recommendations: resp.Recommendations,
		FollowUpDate:    engine.FollowUpDate(urgency, now),
	}

	if err := c.store.CreateSymptomEntry(entry); err != nil {
		return nil, err
	}

	c.logger.Info("Symptom entry classified",
		zap.String("owner", owner),
		zap.String("severity", string(severity)),
		zap.String("urgency", string(urgency)),
	)

	return &Result{
		Entry:          entry,
		PossibleCauses: resp.PossibleCauses,
		WhenToSeekHelp: resp.WhenToSeekHelp,
		SelfCareTips:   resp.SelfCareTips,
	}, nil
}

const systemPrompt = "You are a medical AI assistant. Always recommend consulting healthcare professionals for proper diagnosis. Be thorough but avoid providing definitive diagnoses."

func buildPrompt(report Report) string {
	duration := report.Duration
	if duration == "" {
		duration = "Not specified"
	}
	areas := strings.Join(report.BodyParts, ", ")
	if areas == "" {
		areas = "Not specified"
	}
	triggers := report.Triggers
	if triggers == "" {
		triggers = "Not specified"
	}

	var b strings.Builder
	b.WriteString("Analyze the following symptoms and provide a comprehensive assessment.\n\n")
	fmt.Fprintf(&b, "Symptoms: %s\n", report.Description)
	fmt.Fprintf(&b, "Duration: %s\n", duration)
	fmt.Fprintf(&b, "Affected areas: %s\n", areas)
	fmt.Fprintf(&b, "Triggers: %s\n\n", triggers)
	b.WriteString("Please provide:\n")
	b.WriteString("1. A detailed analysis of the symptoms\n")
	b.WriteString("2. Possible causes or conditions\n")
	b.WriteString("3. Severity assessment (mild, moderate, severe, critical)\n")
	b.WriteString("4. Urgency classification (monitor, schedule_appointment, seek_urgent_care, emergency)\n")
	b.WriteString("5. Specific recommendations for care\n")
	b.WriteString("6. When to seek medical attention\n")
	b.WriteString("7. Self-care suggestions if appropriate\n")
	return b.String()
}

func assessmentSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"analysis":        map[string]interface{}{"type": "string"},
			"possible_causes": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"severity_level": map[string]interface{}{
				"type": "string",
				"enum": []string{"mild", "moderate", "severe", "critical"},
			},
			"urgency_classification": map[string]interface{}{
				"type": "string",
				"enum": []string{"monitor", "schedule_appointment", "seek_urgent_care", "emergency"},
			},
			"recommendations":   map[string]interface{}{"type": "string"},
			"when_to_seek_help": map[string]interface{}{"type": "string"},
			"self_care_tips":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"analysis", "severity_level", "urgency_classification", "recommendations"},
	}
}
