package analysis

import "sort"

// consolidateResults merges per-strategy root causes into one ranked,
// de-duplicated set. Causes sharing a type collapse into the occurrence with
// the highest confidence; their details maps are unioned, with keys from
// earlier occurrences winning over later ones. The overall confidence is the
// maximum across the merged causes, zero when there are none.
func consolidateResults(results []StrategyResult) ([]RootCause, float64) {
	type causeGroup struct {
		best    RootCause
		details map[string]interface{}
	}

	groups := make(map[string]*causeGroup)
	var order []string

	for _, sr := range results {
		for _, rc := range sr.RootCauses {
			group, ok := groups[rc.Type]
			if !ok {
				group = &causeGroup{best: rc, details: make(map[string]interface{})}
				groups[rc.Type] = group
				order = append(order, rc.Type)
			} else if rc.Confidence > group.best.Confidence {
				group.best = rc
			}
			for k, v := range rc.Details {
				if _, present := group.details[k]; !present {
					group.details[k] = v
				}
			}
		}
	}

	merged := make([]RootCause, 0, len(order))
	for _, typ := range order {
		group := groups[typ]
		cause := group.best
		if len(group.details) > 0 {
			cause.Details = group.details
		} else {
			cause.Details = nil
		}
		merged = append(merged, cause)
	}

	// Stable so equal confidences keep first-seen order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})

	confidence := 0.0
	if len(merged) > 0 {
		confidence = merged[0].Confidence
	}
	return merged, confidence
}
