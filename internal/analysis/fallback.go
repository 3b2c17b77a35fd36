package analysis

import (
	"time"
)

// Fallback logic for calls the pipeline could not complete
// This provides a minimal but valid result when analysis itself fails

// buildFallbackResult constructs the degraded result returned when the
// pipeline fails or times out with nothing usable. It carries a single
// ANALYSIS_FAILURE root cause at confidence zero plus the original error and
// context snapshot, and is never cached so a retry re-attempts full analysis.
func buildFallbackResult(analysisID string, rec ErrorRecord, actx *AnalysisContext, began time.Time, reason string) *AnalysisResult {
	snapshot := AnalysisContext{}
	if actx != nil {
		snapshot = *actx
	}
	return &AnalysisResult{
		AnalysisID: analysisID,
		Timestamp:  time.Now(),
		Error:      rec,
		Context:    snapshot,
		RootCauses: []RootCause{{
			Type:        RootCauseAnalysisFailure,
			Description: "Analysis could not complete: " + reason,
			Confidence:  0,
			Details:     map[string]interface{}{"failure": reason},
		}},
		Confidence:         0,
		RecoveryHints:      []RecoveryHint{},
		AffectedComponents: []string{},
		Quality: ResultQuality{
			Degraded:           true,
			DegradationReasons: []string{reason},
		},
		DurationMs: time.Since(began).Milliseconds(),
	}
}
