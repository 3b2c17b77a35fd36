package strategies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquesthq/inquest/internal/analysis"
)

// TestPatternMatching validates the signature table against representative
// error messages
func TestPatternMatching(t *testing.T) {
	tests := []struct {
		name               string
		message            string
		code               string
		expectedTypes      []string
		expectedConfidence float64
	}{
		{
			name:               "timed out message",
			message:            "Request timed out after 30s",
			expectedTypes:      []string{CauseNetworkTimeout},
			expectedConfidence: 0.75,
		},
		{
			name:               "timeout classification without wording",
			message:            "upstream gave no answer",
			code:               "ETIMEDOUT",
			expectedTypes:      []string{CauseNetworkTimeout},
			expectedConfidence: 0.75,
		},
		{
			name:               "connection refused message",
			message:            "connect: connection refused",
			expectedTypes:      []string{CauseConnectionFailure},
			expectedConfidence: 0.75,
		},
		{
			name:               "connection classification",
			message:            "upstream rejected us",
			code:               "ECONNREFUSED",
			expectedTypes:      []string{CauseConnectionFailure},
			expectedConfidence: 0.75,
		},
		{
			name:               "database timeout matches two signatures",
			message:            "Database connection failed: timeout",
			expectedTypes:      []string{CauseNetworkTimeout, CauseDBConnectionError},
			expectedConfidence: 0.8,
		},
		{
			name:               "validation failure",
			message:            "Validation failed for field email",
			expectedTypes:      []string{CauseValidationFailure},
			expectedConfidence: 0.6,
		},
		{
			name:               "oom kill",
			message:            "worker OOMKilled by kernel",
			expectedTypes:      []string{CauseResourceExhaustion},
			expectedConfidence: 0.7,
		},
		{
			name:               "pool exhaustion",
			message:            "pg: connection pool exhausted",
			expectedTypes:      []string{CauseResourceExhaustion},
			expectedConfidence: 0.7,
		},
		{
			name:               "programming fault",
			message:            "runtime error: nil pointer dereference",
			expectedTypes:      []string{CauseProgrammingError},
			expectedConfidence: 0.65,
		},
		{
			name:               "nothing recognizable",
			message:            "something odd happened",
			expectedTypes:      []string{},
			expectedConfidence: 0,
		},
	}

	s := NewPatternMatching()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := analysis.ErrorRecord{Message: tt.message, Code: tt.code}
			result, err := s.Analyze(context.Background(), rec, nil)
			require.NoError(t, err)

			assert.ElementsMatch(t, tt.expectedTypes, causeTypes(result))
			assert.InDelta(t, tt.expectedConfidence, result.Confidence, 0.001)
		})
	}
}

// TestPatternMatchingUsesPipelineClassification verifies a classification
// already attached to the context is trusted over recomputing
func TestPatternMatchingUsesPipelineClassification(t *testing.T) {
	s := NewPatternMatching()
	actx := &analysis.AnalysisContext{
		Classification: &analysis.ErrorClassification{Type: analysis.ErrorTypeTimeout, Severity: analysis.SeverityHigh},
	}

	result, err := s.Analyze(context.Background(), analysis.ErrorRecord{Message: "opaque"}, actx)
	require.NoError(t, err)

	assert.Contains(t, causeTypes(result), CauseNetworkTimeout)
}

// TestPatternMatchingDetails verifies matches carry the offending message
func TestPatternMatchingDetails(t *testing.T) {
	s := NewPatternMatching()

	result, err := s.Analyze(context.Background(), analysis.ErrorRecord{Message: "Request timed out"}, nil)
	require.NoError(t, err)

	require.Len(t, result.RootCauses, 1)
	assert.Equal(t, "Request timed out", result.RootCauses[0].Details["matchedMessage"])
}
