package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestFingerprintDeterminism verifies identical inputs always produce the
// same fingerprint
func TestFingerprintDeterminism(t *testing.T) {
	rec := ErrorRecord{Message: "Database connection failed", Code: "ETIMEDOUT"}
	actx := &AnalysisContext{Source: "database-service"}

	first := Fingerprint(rec, actx)
	assert.Len(t, first, 64)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Fingerprint(rec, actx))
	}
}

// TestFingerprintSensitivity verifies the identity fields each change the
// fingerprint while volatile context does not
func TestFingerprintSensitivity(t *testing.T) {
	base := ErrorRecord{Message: "boom", Code: "E1"}
	baseCtx := &AnalysisContext{Source: "svc"}
	baseKey := Fingerprint(base, baseCtx)

	t.Run("message changes key", func(t *testing.T) {
		assert.NotEqual(t, baseKey, Fingerprint(ErrorRecord{Message: "bang", Code: "E1"}, baseCtx))
	})
	t.Run("code changes key", func(t *testing.T) {
		assert.NotEqual(t, baseKey, Fingerprint(ErrorRecord{Message: "boom", Code: "E2"}, baseCtx))
	})
	t.Run("critical flag changes key", func(t *testing.T) {
		assert.NotEqual(t, baseKey, Fingerprint(ErrorRecord{Message: "boom", Code: "E1", Critical: true}, baseCtx))
	})
	t.Run("source changes key", func(t *testing.T) {
		assert.NotEqual(t, baseKey, Fingerprint(base, &AnalysisContext{Source: "other"}))
	})
	t.Run("stack does not change key", func(t *testing.T) {
		withStack := base
		withStack.Stack = "main.go:42"
		assert.Equal(t, baseKey, Fingerprint(withStack, baseCtx))
	})
	t.Run("recent events do not change key", func(t *testing.T) {
		busy := &AnalysisContext{
			Source: "svc",
			RecentEvents: []ContextEvent{
				{Timestamp: time.Now(), Type: "latency", Component: "svc"},
			},
			Dependencies: []DependencyHealth{{Name: "db", Status: StatusUnhealthy}},
		}
		assert.Equal(t, baseKey, Fingerprint(base, busy))
	})
	t.Run("nil context equals empty source", func(t *testing.T) {
		assert.Equal(t, Fingerprint(base, nil), Fingerprint(base, &AnalysisContext{}))
	})
}

// TestShortID verifies log-friendly truncation
func TestShortID(t *testing.T) {
	assert.Equal(t, "abcdefabcdef", shortID("abcdefabcdefabcdef"))
	assert.Equal(t, "short", shortID("short"))
}
