// Package strategies ships the built-in root-cause analysis strategies.
//
// Each strategy examines one slice of the evidence: recent events, reported
// dependency health, raw message patterns, or the system-state snapshot.
// They run concurrently and independently under the analyzer's deadline, so
// every strategy must be fast, side-effect free, and deterministic for a
// given error and context.
package strategies

import "github.com/inquesthq/inquest/internal/analysis"

// Root-cause types produced by the built-in strategies. Hint generation
// matches on these strings, so renaming one changes engine behavior.
const (
	CauseEventStorm             = "EVENT_STORM"
	CauseCascadingFailure       = "CASCADING_FAILURE"
	CauseNetworkTimeout         = "NETWORK_TIMEOUT"
	CauseConnectionFailure      = "CONNECTION_FAILURE"
	CauseDBConnectionError      = "DB_CONNECTION_ERROR"
	CauseValidationFailure      = "VALIDATION_FAILURE"
	CauseResourceExhaustion     = "RESOURCE_EXHAUSTION"
	CauseProgrammingError       = "PROGRAMMING_ERROR"
	CauseDependencyFailure      = "DEPENDENCY_FAILURE"
	CauseDependencyDegraded     = "DEPENDENCY_DEGRADED"
	CauseStateDegradation       = "STATE_DEGRADATION"
	CauseSourceComponentFailure = "SOURCE_COMPONENT_FAILURE"
)

// Defaults returns one instance of every built-in strategy, ready to
// register with an analyzer.
func Defaults() []analysis.Strategy {
	return []analysis.Strategy{
		NewEventCorrelation(),
		NewDependencyAnalysis(),
		NewPatternMatching(),
		NewStateAnalysis(),
	}
}

// classificationFor returns the context's classification, computing it on
// the fly when a strategy is invoked outside the analyzer pipeline.
func classificationFor(rec analysis.ErrorRecord, actx *analysis.AnalysisContext) analysis.ErrorClassification {
	if actx != nil && actx.Classification != nil {
		return *actx.Classification
	}
	return analysis.Classify(rec, actx)
}

// dependencyMaps converts dependency records to the JSON-friendly shape used
// in root-cause details.
func dependencyMaps(deps []analysis.DependencyHealth) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(deps))
	for _, d := range deps {
		out = append(out, map[string]interface{}{"name": d.Name, "status": d.Status})
	}
	return out
}
