package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConsolidateMergesDuplicateTypes verifies causes sharing a type
// collapse into the highest-confidence occurrence
func TestConsolidateMergesDuplicateTypes(t *testing.T) {
	results := []StrategyResult{
		{
			StrategyID: "s1",
			RootCauses: []RootCause{
				{Type: "NETWORK_TIMEOUT", Description: "from s1", Confidence: 0.7},
			},
		},
		{
			StrategyID: "s2",
			RootCauses: []RootCause{
				{Type: "NETWORK_TIMEOUT", Description: "from s2", Confidence: 0.8},
			},
		},
	}

	merged, confidence := consolidateResults(results)

	require.Len(t, merged, 1)
	assert.Equal(t, "NETWORK_TIMEOUT", merged[0].Type)
	assert.Equal(t, "from s2", merged[0].Description)
	assert.Equal(t, 0.8, merged[0].Confidence)
	assert.Equal(t, 0.8, confidence)
}

// TestConsolidateUnionsDetails verifies details merge across occurrences
// with earlier keys winning
func TestConsolidateUnionsDetails(t *testing.T) {
	results := []StrategyResult{
		{
			StrategyID: "s1",
			RootCauses: []RootCause{
				{Type: "X", Confidence: 0.4, Details: map[string]interface{}{"a": 1, "shared": "first"}},
			},
		},
		{
			StrategyID: "s2",
			RootCauses: []RootCause{
				{Type: "X", Confidence: 0.9, Details: map[string]interface{}{"b": 2, "shared": "second"}},
			},
		},
	}

	merged, _ := consolidateResults(results)

	require.Len(t, merged, 1)
	assert.Equal(t, 0.9, merged[0].Confidence, "highest confidence occurrence wins")
	assert.Equal(t, map[string]interface{}{
		"a":      1,
		"b":      2,
		"shared": "first",
	}, merged[0].Details, "earlier keys must not be overwritten")
}

// TestConsolidateSortsByConfidence verifies descending order with stable
// ties
func TestConsolidateSortsByConfidence(t *testing.T) {
	results := []StrategyResult{
		{StrategyID: "s1", RootCauses: []RootCause{
			{Type: "LOW", Confidence: 0.2},
			{Type: "TIE_FIRST", Confidence: 0.5},
		}},
		{StrategyID: "s2", RootCauses: []RootCause{
			{Type: "TIE_SECOND", Confidence: 0.5},
			{Type: "HIGH", Confidence: 0.9},
		}},
	}

	merged, confidence := consolidateResults(results)

	require.Len(t, merged, 4)
	assert.Equal(t, "HIGH", merged[0].Type)
	assert.Equal(t, "TIE_FIRST", merged[1].Type, "equal confidences keep first-seen order")
	assert.Equal(t, "TIE_SECOND", merged[2].Type)
	assert.Equal(t, "LOW", merged[3].Type)
	assert.Equal(t, 0.9, confidence)
}

// TestConsolidateEmpty verifies the degenerate cases
func TestConsolidateEmpty(t *testing.T) {
	merged, confidence := consolidateResults(nil)
	assert.Empty(t, merged)
	assert.Equal(t, 0.0, confidence)

	merged, confidence = consolidateResults([]StrategyResult{{StrategyID: "s1"}})
	assert.Empty(t, merged)
	assert.Equal(t, 0.0, confidence)
}

// TestConsolidateDropsEmptyDetails verifies a merged cause without details
// carries a nil map
func TestConsolidateDropsEmptyDetails(t *testing.T) {
	merged, _ := consolidateResults([]StrategyResult{
		{StrategyID: "s1", RootCauses: []RootCause{{Type: "X", Confidence: 0.4}}},
	})
	require.Len(t, merged, 1)
	assert.Nil(t, merged[0].Details)
}

// TestConsolidateNeverDuplicatesTypes verifies the output type uniqueness
// invariant across many overlapping strategies
func TestConsolidateNeverDuplicatesTypes(t *testing.T) {
	var results []StrategyResult
	for i := 0; i < 5; i++ {
		results = append(results, StrategyResult{
			StrategyID: "s",
			RootCauses: []RootCause{
				{Type: "A", Confidence: float64(i) / 10},
				{Type: "B", Confidence: 0.5},
			},
		})
	}

	merged, _ := consolidateResults(results)

	seen := map[string]int{}
	for _, rc := range merged {
		seen[rc.Type]++
	}
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, seen)
}
