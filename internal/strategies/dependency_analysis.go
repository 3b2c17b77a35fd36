package strategies

import (
	"context"
	"fmt"
	"strings"

	"github.com/inquesthq/inquest/internal/analysis"
)

// Name fragments that mark a dependency as a datastore.
var datastoreMarkers = []string{
	"postgres", "mysql", "maria", "mongo", "redis", "cassandra", "sql", "db", "database",
}

func isDatastoreName(name string) bool {
	lowered := strings.ToLower(name)
	for _, marker := range datastoreMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// DependencyAnalysis blames the failure on unhealthy upstream dependencies
// reported in the context.
type DependencyAnalysis struct{}

// NewDependencyAnalysis creates the dependency analysis strategy.
func NewDependencyAnalysis() *DependencyAnalysis {
	return &DependencyAnalysis{}
}

// ID implements analysis.Strategy.
func (s *DependencyAnalysis) ID() string { return analysis.StrategyDependencyAnalysis }

// Analyze implements analysis.Strategy.
func (s *DependencyAnalysis) Analyze(_ context.Context, rec analysis.ErrorRecord, actx *analysis.AnalysisContext) (*analysis.StrategyResult, error) {
	result := &analysis.StrategyResult{StrategyID: s.ID()}
	if actx == nil || len(actx.Dependencies) == 0 {
		return result, nil
	}

	failed := actx.FailedDependencies()
	degraded := actx.DegradedDependencies()

	if len(failed) > 0 {
		// More failed dependencies means stronger evidence, capped at 0.9.
		confidence := 0.7 + 0.05*float64(len(failed)-1)
		if confidence > 0.9 {
			confidence = 0.9
		}
		result.RootCauses = append(result.RootCauses, analysis.RootCause{
			Type:        CauseDependencyFailure,
			Description: fmt.Sprintf("Dependency failure: %s", joinDependencyNames(failed)),
			Confidence:  confidence,
			Details: map[string]interface{}{
				analysis.DetailFailedDependencies: dependencyMaps(failed),
			},
		})
	} else if len(degraded) > 0 {
		result.RootCauses = append(result.RootCauses, analysis.RootCause{
			Type:        CauseDependencyDegraded,
			Description: fmt.Sprintf("Degraded dependencies may explain the failure: %s", joinDependencyNames(degraded)),
			Confidence:  0.5,
			Details: map[string]interface{}{
				"degradedDependencies": dependencyMaps(degraded),
			},
		})
	}

	if cause := s.detectDatastoreFailure(rec, actx, failed); cause != nil {
		result.RootCauses = append(result.RootCauses, *cause)
	}

	for _, rc := range result.RootCauses {
		if rc.Confidence > result.Confidence {
			result.Confidence = rc.Confidence
		}
	}
	return result, nil
}

// detectDatastoreFailure ties a database/connection/timeout classification
// to a failed datastore-looking dependency.
func (s *DependencyAnalysis) detectDatastoreFailure(rec analysis.ErrorRecord, actx *analysis.AnalysisContext, failed []analysis.DependencyHealth) *analysis.RootCause {
	switch classificationFor(rec, actx).Type {
	case analysis.ErrorTypeDatabase, analysis.ErrorTypeConnection, analysis.ErrorTypeTimeout:
	default:
		return nil
	}

	var datastores []analysis.DependencyHealth
	for _, dep := range failed {
		if isDatastoreName(dep.Name) {
			datastores = append(datastores, dep)
		}
	}
	if len(datastores) == 0 {
		return nil
	}

	return &analysis.RootCause{
		Type: CauseDBConnectionError,
		Description: fmt.Sprintf("Failed datastore dependency %s matches the error classification",
			joinDependencyNames(datastores)),
		Confidence: 0.85,
		Details: map[string]interface{}{
			analysis.DetailFailedDependencies: dependencyMaps(datastores),
		},
	}
}

func joinDependencyNames(deps []analysis.DependencyHealth) string {
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}
