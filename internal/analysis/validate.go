package analysis

import (
	"math"
	"time"
)

// validateResult repairs a result in place so callers can rely on its shape:
// non-nil slices, confidences clamped to [0,1], no duplicate cause types,
// and the overall confidence equal to the best root cause's. Malformed
// fields are corrected with safe defaults, never rejected.
func validateResult(res *AnalysisResult) {
	if res.AnalysisID == "" {
		res.AnalysisID = Fingerprint(res.Error, &res.Context)
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now()
	}
	if res.RootCauses == nil {
		res.RootCauses = []RootCause{}
	}
	if res.RecoveryHints == nil {
		res.RecoveryHints = []RecoveryHint{}
	}
	if res.AffectedComponents == nil {
		res.AffectedComponents = []string{}
	}

	seen := make(map[string]bool)
	causes := res.RootCauses[:0]
	for _, rc := range res.RootCauses {
		if rc.Type == "" {
			rc.Type = "UNKNOWN"
		}
		if seen[rc.Type] {
			continue
		}
		seen[rc.Type] = true
		rc.Confidence = clampConfidence(rc.Confidence)
		causes = append(causes, rc)
	}
	res.RootCauses = causes

	best := 0.0
	for _, rc := range res.RootCauses {
		if rc.Confidence > best {
			best = rc.Confidence
		}
	}
	res.Confidence = best
}

func clampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
