package strategies

import (
	"context"
	"strings"

	"github.com/inquesthq/inquest/internal/analysis"
)

// errorPattern is one entry in the pattern table: a predicate over the
// lowercased message, the resolved classification, and the cause to report
// when it matches.
type errorPattern struct {
	causeType   string
	description string
	confidence  float64
	matches     func(msg string, cls analysis.ErrorClassification) bool
}

func containsAny(msg string, fragments ...string) bool {
	for _, fragment := range fragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// PatternMatching recognizes well-known failure signatures in the error
// message and classification. It is the default strategy for errors nothing
// else knows how to analyze.
type PatternMatching struct {
	patterns []errorPattern
}

// NewPatternMatching creates the pattern matching strategy with the built-in
// pattern table.
func NewPatternMatching() *PatternMatching {
	return &PatternMatching{patterns: []errorPattern{
		{
			causeType:   CauseNetworkTimeout,
			description: "Error matches a network timeout signature",
			confidence:  0.75,
			matches: func(msg string, cls analysis.ErrorClassification) bool {
				return cls.Type == analysis.ErrorTypeTimeout || containsAny(msg, "timed out", "timeout")
			},
		},
		{
			causeType:   CauseConnectionFailure,
			description: "Error matches a connection failure signature",
			confidence:  0.75,
			matches: func(msg string, cls analysis.ErrorClassification) bool {
				return cls.Type == analysis.ErrorTypeConnection ||
					containsAny(msg, "connection refused", "connection reset", "broken pipe", "no route to host")
			},
		},
		{
			causeType:   CauseDBConnectionError,
			description: "Error matches a database connectivity signature",
			confidence:  0.8,
			matches: func(msg string, cls analysis.ErrorClassification) bool {
				return strings.Contains(msg, "database") && containsAny(msg, "connection", "timeout", "refused")
			},
		},
		{
			causeType:   CauseValidationFailure,
			description: "Error matches an input validation signature",
			confidence:  0.6,
			matches: func(msg string, cls analysis.ErrorClassification) bool {
				return cls.Type == analysis.ErrorTypeValidation || containsAny(msg, "validation", "invalid input", "schema violation")
			},
		},
		{
			causeType:   CauseResourceExhaustion,
			description: "Error matches a resource exhaustion signature",
			confidence:  0.7,
			matches: func(msg string, cls analysis.ErrorClassification) bool {
				return containsAny(msg,
					"out of memory", "oomkilled", "too many open files",
					"resource exhausted", "quota exceeded", "no space left", "connection pool exhausted")
			},
		},
		{
			causeType:   CauseProgrammingError,
			description: "Error matches a programming fault signature",
			confidence:  0.65,
			matches: func(msg string, cls analysis.ErrorClassification) bool {
				return cls.Type == analysis.ErrorTypeProgramming
			},
		},
	}}
}

// ID implements analysis.Strategy.
func (s *PatternMatching) ID() string { return analysis.StrategyPatternMatching }

// Analyze implements analysis.Strategy. Every matching pattern contributes a
// root cause; the consolidator resolves overlaps with other strategies.
func (s *PatternMatching) Analyze(_ context.Context, rec analysis.ErrorRecord, actx *analysis.AnalysisContext) (*analysis.StrategyResult, error) {
	result := &analysis.StrategyResult{StrategyID: s.ID()}

	msg := strings.ToLower(rec.Message)
	cls := classificationFor(rec, actx)

	for _, pattern := range s.patterns {
		if !pattern.matches(msg, cls) {
			continue
		}
		result.RootCauses = append(result.RootCauses, analysis.RootCause{
			Type:        pattern.causeType,
			Description: pattern.description,
			Confidence:  pattern.confidence,
			Details: map[string]interface{}{
				"matchedMessage": rec.Message,
			},
		})
		if pattern.confidence > result.Confidence {
			result.Confidence = pattern.confidence
		}
	}
	return result, nil
}
