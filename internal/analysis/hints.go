package analysis

import (
	"fmt"
	"strings"
)

// generateRecoveryHints maps merged root causes to remedial actions. Rules
// are additive: every matching rule fires, and duplicate (action, target)
// pairs are emitted once. When the best confidence is below lowConfidence a
// MANUAL_INVESTIGATION hint is appended regardless of the other rules.
func generateRecoveryHints(rootCauses []RootCause, lowConfidence float64) []RecoveryHint {
	var hints []RecoveryHint
	seen := make(map[string]bool)

	add := func(action, target, description string) {
		key := action + "|" + target
		if seen[key] {
			return
		}
		seen[key] = true
		hints = append(hints, RecoveryHint{Action: action, Description: description, Target: target})
	}

	best := 0.0
	for _, rc := range rootCauses {
		if rc.Confidence > best {
			best = rc.Confidence
		}

		typ := strings.ToUpper(rc.Type)
		if strings.Contains(typ, "TIMEOUT") {
			add(ActionIncreaseTimeout, "", "Increase the operation timeout and retry")
			add(ActionCheckNetwork, "", "Check network connectivity and latency to upstream services")
		}
		if strings.Contains(typ, "DB_") || strings.Contains(typ, "DATABASE") {
			add(ActionRestartDBPool, "", "Restart the database connection pool")
			add(ActionCheckDBStatus, "", "Check database availability and credentials")
		}
		if strings.Contains(typ, "DEPENDENCY_FAILURE") {
			for _, name := range failedDependencyNames(rc.Details) {
				add(ActionCheckDependency, name, fmt.Sprintf("Check health of dependency %q", name))
			}
		}
	}

	if best < lowConfidence {
		add(ActionManualInvestigation, "", "Automated analysis has low confidence, investigate manually")
	}
	return hints
}
