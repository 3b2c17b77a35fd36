package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateResultFillsDefaults verifies nil slices and missing identity
// fields are repaired in place
func TestValidateResultFillsDefaults(t *testing.T) {
	res := &AnalysisResult{Error: ErrorRecord{Message: "boom"}}

	validateResult(res)

	assert.NotEmpty(t, res.AnalysisID)
	assert.False(t, res.Timestamp.IsZero())
	assert.NotNil(t, res.RootCauses)
	assert.NotNil(t, res.RecoveryHints)
	assert.NotNil(t, res.AffectedComponents)
	assert.Equal(t, 0.0, res.Confidence)
}

// TestValidateResultClampsConfidence verifies out-of-range and NaN
// confidences are corrected
func TestValidateResultClampsConfidence(t *testing.T) {
	res := &AnalysisResult{
		RootCauses: []RootCause{
			{Type: "A", Confidence: 1.5},
			{Type: "B", Confidence: -0.2},
			{Type: "C", Confidence: math.NaN()},
		},
	}

	validateResult(res)

	require.Len(t, res.RootCauses, 3)
	assert.Equal(t, 1.0, res.RootCauses[0].Confidence)
	assert.Equal(t, 0.0, res.RootCauses[1].Confidence)
	assert.Equal(t, 0.0, res.RootCauses[2].Confidence)
	assert.Equal(t, 1.0, res.Confidence)
}

// TestValidateResultDeduplicatesTypes verifies the type uniqueness invariant
// is restored, keeping the first occurrence
func TestValidateResultDeduplicatesTypes(t *testing.T) {
	res := &AnalysisResult{
		RootCauses: []RootCause{
			{Type: "A", Confidence: 0.4, Description: "first"},
			{Type: "A", Confidence: 0.9, Description: "second"},
			{Type: "", Confidence: 0.1},
		},
	}

	validateResult(res)

	require.Len(t, res.RootCauses, 2)
	assert.Equal(t, "first", res.RootCauses[0].Description)
	assert.Equal(t, "UNKNOWN", res.RootCauses[1].Type)
	assert.Equal(t, 0.4, res.Confidence, "overall confidence tracks the surviving causes")
}
