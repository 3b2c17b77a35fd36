package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClassify validates the classification rule table and its priority order
func TestClassify(t *testing.T) {
	tests := []struct {
		name             string
		message          string
		code             string
		critical         bool
		source           string
		expectedType     ErrorType
		expectedSeverity Severity
		expectedDomain   string
	}{
		// Programming faults (highest type priority)
		{
			name:             "TYPE_ERROR code",
			message:          "cannot read property",
			code:             "TYPE_ERROR",
			expectedType:     ErrorTypeProgramming,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "ERR_TYPE code",
			message:          "bad argument",
			code:             "ERR_TYPE",
			expectedType:     ErrorTypeProgramming,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "nil pointer message",
			message:          "runtime error: nil pointer dereference in handler",
			expectedType:     ErrorTypeProgramming,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "index out of range message",
			message:          "panic: index out of range [3] with length 2",
			expectedType:     ErrorTypeProgramming,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "type mismatch message",
			message:          "value type mismatch for column age",
			expectedType:     ErrorTypeProgramming,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "is not a function message",
			message:          "callback is not a function",
			expectedType:     ErrorTypeProgramming,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "programming marker beats connection code",
			message:          "type mismatch while dialing",
			code:             "ECONNREFUSED",
			expectedType:     ErrorTypeProgramming,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},

		// Connection refusals
		{
			name:             "ECONNREFUSED code",
			message:          "connect failed",
			code:             "ECONNREFUSED",
			expectedType:     ErrorTypeConnection,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "CONNECTION_REFUSED code",
			message:          "upstream rejected us",
			code:             "CONNECTION_REFUSED",
			expectedType:     ErrorTypeConnection,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},

		// Timeouts
		{
			name:             "ETIMEDOUT code",
			message:          "request gave up",
			code:             "ETIMEDOUT",
			expectedType:     ErrorTypeTimeout,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "lowercase timeout code is normalized",
			message:          "request gave up",
			code:             "etimedout",
			expectedType:     ErrorTypeTimeout,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "DEADLINE_EXCEEDED code",
			message:          "rpc failed",
			code:             "DEADLINE_EXCEEDED",
			expectedType:     ErrorTypeTimeout,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},
		{
			name:             "timeout code beats database message",
			message:          "Database connection failed: timeout",
			code:             "ETIMEDOUT",
			expectedType:     ErrorTypeTimeout,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "unknown",
		},

		// Database and validation messages
		{
			name:             "database message without source overrides domain",
			message:          "Database connection pool exhausted",
			expectedType:     ErrorTypeDatabase,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "database",
		},
		{
			name:             "database message keeps caller source as domain",
			message:          "database replica lag detected",
			source:           "billing-service",
			expectedType:     ErrorTypeDatabase,
			expectedSeverity: SeverityHigh,
			expectedDomain:   "billing-service",
		},
		{
			name:             "validation message",
			message:          "Validation failed for field email",
			expectedType:     ErrorTypeValidation,
			expectedSeverity: SeverityMedium,
			expectedDomain:   "unknown",
		},

		// Defaults and overrides
		{
			name:             "unmatched error defaults to unknown",
			message:          "something odd happened",
			expectedType:     ErrorTypeUnknown,
			expectedSeverity: SeverityMedium,
			expectedDomain:   "unknown",
		},
		{
			name:             "source becomes domain",
			message:          "something odd happened",
			source:           "checkout-service",
			expectedType:     ErrorTypeUnknown,
			expectedSeverity: SeverityMedium,
			expectedDomain:   "checkout-service",
		},
		{
			name:             "critical flag overrides type severity",
			message:          "request gave up",
			code:             "ETIMEDOUT",
			critical:         true,
			expectedType:     ErrorTypeTimeout,
			expectedSeverity: SeverityCritical,
			expectedDomain:   "unknown",
		},
		{
			name:             "critical flag on unknown error",
			message:          "something odd happened",
			critical:         true,
			expectedType:     ErrorTypeUnknown,
			expectedSeverity: SeverityCritical,
			expectedDomain:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ErrorRecord{Message: tt.message, Code: tt.code, Critical: tt.critical}
			var actx *AnalysisContext
			if tt.source != "" {
				actx = &AnalysisContext{Source: tt.source}
			}

			cls := Classify(rec, actx)

			assert.Equal(t, tt.expectedType, cls.Type)
			assert.Equal(t, tt.expectedSeverity, cls.Severity)
			assert.Equal(t, tt.expectedDomain, cls.Domain)
		})
	}
}

// TestClassifyIsDeterministic verifies repeated classification of the same
// input yields identical results
func TestClassifyIsDeterministic(t *testing.T) {
	rec := ErrorRecord{Message: "Database connection failed: timeout", Code: "ETIMEDOUT"}
	actx := &AnalysisContext{Source: "database-service"}

	first := Classify(rec, actx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(rec, actx))
	}
}

// TestClassifyNilContext verifies classification tolerates a missing context
func TestClassifyNilContext(t *testing.T) {
	cls := Classify(ErrorRecord{Message: "boom"}, nil)
	assert.Equal(t, ErrorTypeUnknown, cls.Type)
	assert.Equal(t, "unknown", cls.Domain)
}
