package analysis

import (
	"context"
	"sort"
	"strings"
	"time"
)

// ============================================================================
// ERROR INPUT
// ============================================================================

// ErrorRecord describes the failure under analysis. Message is the only
// required field; everything else sharpens classification and strategy
// selection when present.
type ErrorRecord struct {
	Message  string `json:"message"`            // human-readable failure text
	Code     string `json:"code,omitempty"`     // machine code, e.g. ETIMEDOUT
	Stack    string `json:"stack,omitempty"`    // stack trace if captured
	Critical bool   `json:"critical,omitempty"` // caller judged this severity-critical
}

// ContextEvent is one observation that happened near the failure, such as a
// health transition or a latency spike reported by a monitor.
type ContextEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`                // e.g. "latency", "restart", "health"
	Component string                 `json:"component,omitempty"` // emitting component
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// DependencyHealth is the caller-reported health of one upstream dependency
// at the time of the failure.
type DependencyHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"` // healthy, degraded, unhealthy, unknown
}

// Dependency and component status values. Context normalization lowercases
// incoming statuses so comparisons always run against these forms.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
)

// AnalysisContext carries the environmental evidence for one analysis call.
// The analyzer enriches it in place: classification and affected components
// are filled during the pipeline and visible to later stages.
type AnalysisContext struct {
	Source       string             `json:"source,omitempty"`      // component that raised the error
	SystemState  map[string]string  `json:"systemState,omitempty"` // component name -> status
	RecentEvents []ContextEvent     `json:"recentEvents,omitempty"`
	Dependencies []DependencyHealth `json:"dependencies,omitempty"`

	// Enrichment fields, populated by the pipeline.
	Classification     *ErrorClassification `json:"errorClassification,omitempty"`
	AffectedComponents []string             `json:"affectedComponents,omitempty"`
}

// FailedDependencies returns the dependencies whose status marks them failed.
func (c *AnalysisContext) FailedDependencies() []DependencyHealth {
	var out []DependencyHealth
	for _, dep := range c.Dependencies {
		if IsUnhealthyStatus(dep.Status) {
			out = append(out, dep)
		}
	}
	return out
}

// DegradedDependencies returns the dependencies reported as degraded but not
// failed outright.
func (c *AnalysisContext) DegradedDependencies() []DependencyHealth {
	var out []DependencyHealth
	for _, dep := range c.Dependencies {
		if IsDegradedStatus(dep.Status) {
			out = append(out, dep)
		}
	}
	return out
}

// UnhealthyComponents returns the system-state components that are not
// healthy, sorted by name so downstream output is deterministic.
func (c *AnalysisContext) UnhealthyComponents() []string {
	var out []string
	for name, status := range c.SystemState {
		if IsUnhealthyStatus(status) || IsDegradedStatus(status) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IsUnhealthyStatus reports whether a normalized status string marks a
// component as failed.
func IsUnhealthyStatus(status string) bool {
	switch status {
	case StatusUnhealthy, "failed", "down", "error", "critical":
		return true
	}
	return false
}

// IsDegradedStatus reports whether a normalized status string marks a
// component as impaired but still serving.
func IsDegradedStatus(status string) bool {
	switch status {
	case StatusDegraded, "warning", "slow":
		return true
	}
	return false
}

// normalizeContext trims and lowercases status strings so strategies and
// hint rules compare against the canonical forms above.
func normalizeContext(actx *AnalysisContext) {
	for i, dep := range actx.Dependencies {
		actx.Dependencies[i].Status = strings.ToLower(strings.TrimSpace(dep.Status))
	}
	for name, status := range actx.SystemState {
		actx.SystemState[name] = strings.ToLower(strings.TrimSpace(status))
	}
}

// ============================================================================
// CLASSIFICATION
// ============================================================================

// ErrorType is the coarse category a classified error falls into. It drives
// strategy selection.
type ErrorType string

const (
	ErrorTypeProgramming ErrorType = "programming" // type errors, nil derefs, bad indexing
	ErrorTypeConnection  ErrorType = "connection"  // refused or dropped connections
	ErrorTypeTimeout     ErrorType = "timeout"     // deadlines and socket timeouts
	ErrorTypeDatabase    ErrorType = "database"    // datastore-related failures
	ErrorTypeValidation  ErrorType = "validation"  // rejected input
	ErrorTypeState       ErrorType = "state"       // inconsistent or degraded system state
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Severity grades how urgent a classified error is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ErrorClassification is the classifier's verdict for one error.
type ErrorClassification struct {
	Type     ErrorType `json:"type"`
	Severity Severity  `json:"severity"`
	Domain   string    `json:"domain"` // originating domain, "unknown" when undeterminable
}

// ============================================================================
// STRATEGIES
// ============================================================================

// Strategy is one pluggable root-cause analysis technique. Implementations
// must honor ctx cancellation: the executor abandons strategies that outlive
// the analysis deadline.
type Strategy interface {
	// ID returns the stable identifier the registry and strategy selection
	// use for this strategy.
	ID() string

	// Analyze inspects the error and its context and returns the root causes
	// this technique can support, or an error when the technique cannot run.
	Analyze(ctx context.Context, rec ErrorRecord, actx *AnalysisContext) (*StrategyResult, error)
}

// Identifiers of the built-in strategies.
const (
	StrategyEventCorrelation   = "event-correlation"
	StrategyDependencyAnalysis = "dependency-analysis"
	StrategyPatternMatching    = "pattern-matching"
	StrategyStateAnalysis      = "state-analysis"
)

// StrategyResult is the outcome of one strategy run.
type StrategyResult struct {
	StrategyID string      `json:"strategyId"`
	RootCauses []RootCause `json:"rootCauses"`
	Confidence float64     `json:"confidence"` // strategy's own confidence, 0..1
}

// RootCause is one hypothesis about why the error happened.
type RootCause struct {
	Type        string                 `json:"type"` // e.g. NETWORK_TIMEOUT, DB_CONNECTION_ERROR
	Description string                 `json:"description"`
	Confidence  float64                `json:"confidence"` // 0..1
	Details     map[string]interface{} `json:"details,omitempty"`
}

// RootCauseAnalysisFailure marks the fallback cause attached when the
// pipeline itself fails.
const RootCauseAnalysisFailure = "ANALYSIS_FAILURE"

// DetailFailedDependencies keys the dependency records a strategy blames in
// RootCause.Details. Hint generation and affected-component identification
// read it back out.
const DetailFailedDependencies = "failedDependencies"

// ============================================================================
// RESULTS
// ============================================================================

// RecoveryHint is one suggested remedial action.
type RecoveryHint struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Target      string `json:"target,omitempty"` // affected dependency or component, when specific
}

// Recovery hint actions.
const (
	ActionIncreaseTimeout     = "INCREASE_TIMEOUT"
	ActionCheckNetwork        = "CHECK_NETWORK"
	ActionRestartDBPool       = "RESTART_DB_POOL"
	ActionCheckDBStatus       = "CHECK_DB_STATUS"
	ActionCheckDependency     = "CHECK_DEPENDENCY"
	ActionManualInvestigation = "MANUAL_INVESTIGATION"
)

// ResultQuality reports how trustworthy a result is and why it may be
// incomplete.
type ResultQuality struct {
	Degraded           bool     `json:"degraded"`
	DegradationReasons []string `json:"degradationReasons,omitempty"`
	Warnings           []string `json:"warnings,omitempty"`
}

// AnalysisResult is the complete outcome of one analysis call.
type AnalysisResult struct {
	AnalysisID         string          `json:"analysisId"` // fingerprint of the analyzed error
	Timestamp          time.Time       `json:"timestamp"`
	Error              ErrorRecord     `json:"error"`
	Context            AnalysisContext `json:"context"`
	RootCauses         []RootCause     `json:"rootCauses"` // ranked, highest confidence first
	Confidence         float64         `json:"confidence"` // max over root causes, 0 when none
	RecoveryHints      []RecoveryHint  `json:"recoveryHints"`
	AffectedComponents []string        `json:"affectedComponents"`
	Quality            ResultQuality   `json:"quality"`
	DurationMs         int64           `json:"durationMs"`
}

// Options tunes one analysis call. The zero value means cached, default
// deadline, default strategy selection.
type Options struct {
	SkipCache  bool          // bypass cache read and write
	Timeout    time.Duration // per-call strategy deadline, analyzer default when zero
	Strategies []string      // exact strategy ids to run, overrides selection
}

// ============================================================================
// COLLABORATORS
// ============================================================================

// EventBus receives lifecycle notifications from the analyzer. Emit must not
// block the caller.
type EventBus interface {
	Emit(name string, payload map[string]interface{})
}

// Events emitted by the analyzer.
const (
	EventAnalysisStarted   = "analysis:started"
	EventAnalysisCompleted = "analysis:completed"
)

// MetricsSink receives analyzer measurements.
type MetricsSink interface {
	RecordMetric(name string, value float64)
	IncrementCounter(name string)
}

// Metric names recorded by the analyzer.
const (
	MetricAnalysisDurationMs     = "causal_analysis_duration_ms"
	MetricAnalysisCacheHit       = "causal_analysis_cache_hit"
	MetricAnalysisCacheMiss      = "causal_analysis_cache_miss"
	MetricAnalysisCompletedTotal = "causal_analysis_completed_total"
	MetricAnalysisErrorTotal     = "causal_analysis_error_total"
)

// ResultEnricher augments a finished result before it is cached and
// returned, for example with knowledge base references.
type ResultEnricher interface {
	Enrich(ctx context.Context, result *AnalysisResult) error
}

type nopBus struct{}

func (nopBus) Emit(string, map[string]interface{}) {}

type nopMetrics struct{}

func (nopMetrics) RecordMetric(string, float64) {}
func (nopMetrics) IncrementCounter(string)      {}
