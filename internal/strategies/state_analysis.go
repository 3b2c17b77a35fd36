package strategies

import (
	"context"
	"fmt"
	"strings"

	"github.com/inquesthq/inquest/internal/analysis"
)

// StateAnalysis inspects the system-state snapshot for unhealthy components
// and for the error's own source being in a bad state.
type StateAnalysis struct{}

// NewStateAnalysis creates the state analysis strategy.
func NewStateAnalysis() *StateAnalysis {
	return &StateAnalysis{}
}

// ID implements analysis.Strategy.
func (s *StateAnalysis) ID() string { return analysis.StrategyStateAnalysis }

// Analyze implements analysis.Strategy.
func (s *StateAnalysis) Analyze(_ context.Context, _ analysis.ErrorRecord, actx *analysis.AnalysisContext) (*analysis.StrategyResult, error) {
	result := &analysis.StrategyResult{StrategyID: s.ID()}
	if actx == nil || len(actx.SystemState) == 0 {
		return result, nil
	}

	unhealthy := actx.UnhealthyComponents()
	if len(unhealthy) > 0 {
		// Wider degradation means stronger evidence, capped at 0.85.
		confidence := 0.5 + 0.1*float64(len(unhealthy))
		if confidence > 0.85 {
			confidence = 0.85
		}
		result.RootCauses = append(result.RootCauses, analysis.RootCause{
			Type:        CauseStateDegradation,
			Description: fmt.Sprintf("System state shows %d components not healthy: %s", len(unhealthy), strings.Join(unhealthy, ", ")),
			Confidence:  confidence,
			Details: map[string]interface{}{
				"unhealthyComponents": unhealthy,
			},
		})
	}

	if actx.Source != "" {
		if status, ok := actx.SystemState[actx.Source]; ok && analysis.IsUnhealthyStatus(status) {
			result.RootCauses = append(result.RootCauses, analysis.RootCause{
				Type:        CauseSourceComponentFailure,
				Description: fmt.Sprintf("Source component %q is itself reported %s", actx.Source, status),
				Confidence:  0.8,
				Details: map[string]interface{}{
					"component": actx.Source,
					"status":    status,
				},
			})
		}
	}

	for _, rc := range result.RootCauses {
		if rc.Confidence > result.Confidence {
			result.Confidence = rc.Confidence
		}
	}
	return result, nil
}
