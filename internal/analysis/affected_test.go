package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIdentifyAffectedComponents verifies the order-preserving union of
// source and blamed dependencies
func TestIdentifyAffectedComponents(t *testing.T) {
	actx := &AnalysisContext{Source: "api-gateway"}
	rootCauses := []RootCause{
		{
			Type: "DEPENDENCY_FAILURE",
			Details: map[string]interface{}{
				DetailFailedDependencies: []map[string]interface{}{
					{"name": "postgres"},
					{"name": "api-gateway"}, // duplicate of the source
				},
			},
		},
		{
			Type: "CASCADING_FAILURE",
			Details: map[string]interface{}{
				DetailFailedDependencies: []map[string]interface{}{
					{"name": "redis"},
					{"name": "postgres"}, // duplicate across causes
				},
			},
		},
	}

	affected := identifyAffectedComponents(actx, rootCauses)

	assert.Equal(t, []string{"api-gateway", "postgres", "redis"}, affected)
}

// TestIdentifyAffectedComponentsWithoutSource verifies dependencies alone
// still count
func TestIdentifyAffectedComponentsWithoutSource(t *testing.T) {
	rootCauses := []RootCause{
		{
			Type: "DEPENDENCY_FAILURE",
			Details: map[string]interface{}{
				DetailFailedDependencies: []map[string]interface{}{{"name": "kafka"}},
			},
		},
	}

	affected := identifyAffectedComponents(&AnalysisContext{}, rootCauses)
	assert.Equal(t, []string{"kafka"}, affected)
}

// TestIdentifyAffectedComponentsEmpty verifies nothing is invented
func TestIdentifyAffectedComponentsEmpty(t *testing.T) {
	assert.Empty(t, identifyAffectedComponents(nil, nil))
	assert.Empty(t, identifyAffectedComponents(&AnalysisContext{}, []RootCause{{Type: "X"}}))
}

// TestFailedDependencyNames verifies every supported detail shape
func TestFailedDependencyNames(t *testing.T) {
	tests := []struct {
		name     string
		details  map[string]interface{}
		expected []string
	}{
		{
			name: "typed dependency slice",
			details: map[string]interface{}{
				DetailFailedDependencies: []DependencyHealth{
					{Name: "postgres", Status: StatusUnhealthy},
					{Name: "redis", Status: "failed"},
				},
			},
			expected: []string{"postgres", "redis"},
		},
		{
			name: "map slice",
			details: map[string]interface{}{
				DetailFailedDependencies: []map[string]interface{}{
					{"name": "postgres"},
				},
			},
			expected: []string{"postgres"},
		},
		{
			name: "generic slice of maps, as after a JSON round trip",
			details: map[string]interface{}{
				DetailFailedDependencies: []interface{}{
					map[string]interface{}{"name": "postgres", "status": "unhealthy"},
					map[string]interface{}{"status": "unhealthy"}, // nameless entries are skipped
				},
			},
			expected: []string{"postgres"},
		},
		{
			name: "generic slice of strings",
			details: map[string]interface{}{
				DetailFailedDependencies: []interface{}{"postgres", "redis"},
			},
			expected: []string{"postgres", "redis"},
		},
		{
			name:     "missing key",
			details:  map[string]interface{}{"other": true},
			expected: nil,
		},
		{
			name: "unsupported shape",
			details: map[string]interface{}{
				DetailFailedDependencies: "postgres",
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, failedDependencyNames(tt.details))
		})
	}
}
