package strategies

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/inquesthq/inquest/internal/analysis"
)

// Event types that indicate a component failing rather than routine
// operation.
func isFailureEventType(eventType string) bool {
	switch strings.ToLower(eventType) {
	case "error", "failure", "crash", "restart", "unhealthy":
		return true
	}
	return false
}

// isLatencyEvent reports whether an event describes slowness.
func isLatencyEvent(ev analysis.ContextEvent) bool {
	typ := strings.ToLower(ev.Type)
	if strings.Contains(typ, "latency") || strings.Contains(typ, "slow") {
		return true
	}
	return strings.Contains(strings.ToLower(ev.Message), "latency")
}

// EventCorrelation finds patterns in the events surrounding a failure: event
// storms, failures cascading across components, and latency build-up that
// explains a timeout.
type EventCorrelation struct {
	stormThreshold int // same-type events needed to call a storm
}

// NewEventCorrelation creates the event correlation strategy.
func NewEventCorrelation() *EventCorrelation {
	return &EventCorrelation{stormThreshold: 3}
}

// ID implements analysis.Strategy.
func (s *EventCorrelation) ID() string { return analysis.StrategyEventCorrelation }

// Analyze implements analysis.Strategy.
func (s *EventCorrelation) Analyze(_ context.Context, rec analysis.ErrorRecord, actx *analysis.AnalysisContext) (*analysis.StrategyResult, error) {
	result := &analysis.StrategyResult{StrategyID: s.ID()}
	if actx == nil || len(actx.RecentEvents) == 0 {
		return result, nil
	}

	if cause := s.detectEventStorm(actx.RecentEvents); cause != nil {
		result.RootCauses = append(result.RootCauses, *cause)
	}
	if cause := s.detectCascadingFailure(actx); cause != nil {
		result.RootCauses = append(result.RootCauses, *cause)
	}
	if cause := s.detectLatencyTimeout(rec, actx); cause != nil {
		result.RootCauses = append(result.RootCauses, *cause)
	}

	for _, rc := range result.RootCauses {
		if rc.Confidence > result.Confidence {
			result.Confidence = rc.Confidence
		}
	}
	return result, nil
}

// detectEventStorm flags a burst of same-type events. The dominant type is
// reported; more occurrences raise confidence up to 0.9.
func (s *EventCorrelation) detectEventStorm(events []analysis.ContextEvent) *analysis.RootCause {
	counts := make(map[string]int)
	for _, ev := range events {
		if ev.Type != "" {
			counts[ev.Type]++
		}
	}

	dominantType, dominantCount := "", 0
	for typ, count := range counts {
		if count > dominantCount || (count == dominantCount && typ < dominantType) {
			dominantType, dominantCount = typ, count
		}
	}
	if dominantCount < s.stormThreshold {
		return nil
	}

	confidence := 0.5 + 0.1*float64(dominantCount)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return &analysis.RootCause{
		Type:        CauseEventStorm,
		Description: fmt.Sprintf("%d %q events in the recent window indicate an event storm", dominantCount, dominantType),
		Confidence:  confidence,
		Details: map[string]interface{}{
			"eventType":  dominantType,
			"eventCount": dominantCount,
		},
	}
}

// detectCascadingFailure flags failure events spreading across multiple
// components including the error's own source.
func (s *EventCorrelation) detectCascadingFailure(actx *analysis.AnalysisContext) *analysis.RootCause {
	if actx.Source == "" {
		return nil
	}

	components := make(map[string]bool)
	for _, ev := range actx.RecentEvents {
		if ev.Component != "" && isFailureEventType(ev.Type) {
			components[ev.Component] = true
		}
	}
	if len(components) < 2 || !components[actx.Source] {
		return nil
	}

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	return &analysis.RootCause{
		Type: CauseCascadingFailure,
		Description: fmt.Sprintf("Failure events across %d components (%s) suggest a cascading failure reaching %s",
			len(names), strings.Join(names, ", "), actx.Source),
		Confidence: 0.75,
		Details: map[string]interface{}{
			"components": names,
		},
	}
}

// detectLatencyTimeout correlates a timeout classification with latency
// events observed before the failure.
func (s *EventCorrelation) detectLatencyTimeout(rec analysis.ErrorRecord, actx *analysis.AnalysisContext) *analysis.RootCause {
	if classificationFor(rec, actx).Type != analysis.ErrorTypeTimeout {
		return nil
	}

	latencyCount := 0
	for _, ev := range actx.RecentEvents {
		if isLatencyEvent(ev) {
			latencyCount++
		}
	}
	if latencyCount == 0 {
		return nil
	}

	return &analysis.RootCause{
		Type: CauseNetworkTimeout,
		Description: fmt.Sprintf("Timeout preceded by %d latency events, pointing at network or upstream slowness",
			latencyCount),
		Confidence: 0.8,
		Details: map[string]interface{}{
			"latencyEvents": latencyCount,
		},
	}
}
