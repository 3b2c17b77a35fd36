package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/inquesthq/inquest/internal/logging"
)

// Config holds the analyzer tunables. Zero fields fall back to defaults.
type Config struct {
	CacheCapacity          int           // max cached results
	CacheTTL               time.Duration // cached result lifetime
	DefaultTimeout         time.Duration // strategy deadline when Options.Timeout is zero
	LowConfidenceThreshold float64       // below this, MANUAL_INVESTIGATION is hinted
}

// DefaultConfig returns the standard analyzer tunables.
func DefaultConfig() Config {
	return Config{
		CacheCapacity:          256,
		CacheTTL:               5 * time.Minute,
		DefaultTimeout:         3 * time.Second,
		LowConfidenceThreshold: 0.3,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = def.CacheCapacity
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = def.DefaultTimeout
	}
	if c.LowConfidenceThreshold <= 0 {
		c.LowConfidenceThreshold = def.LowConfidenceThreshold
	}
	return c
}

// Dependencies are the analyzer's injected collaborators. Nil fields default
// to no-op implementations, so a bare analyzer works with zero wiring.
type Dependencies struct {
	Bus      EventBus
	Metrics  MetricsSink
	Enricher ResultEnricher
}

// CausalAnalyzer orchestrates the analysis pipeline and owns the result
// cache. Safe for concurrent use: concurrent calls share only the cache,
// which tolerates racing writers.
type CausalAnalyzer struct {
	cfg      Config
	registry *StrategyRegistry
	cache    *resultCache
	executor *strategyExecutor
	bus      EventBus
	metrics  MetricsSink
	enricher ResultEnricher
	logger   *logging.Logger
}

// NewAnalyzer creates an analyzer with the given tunables and collaborators.
func NewAnalyzer(cfg Config, deps Dependencies) (*CausalAnalyzer, error) {
	cfg = cfg.withDefaults()
	cache, err := newResultCache(cfg.CacheCapacity, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}

	a := &CausalAnalyzer{
		cfg:      cfg,
		registry: NewStrategyRegistry(),
		cache:    cache,
		executor: newStrategyExecutor(),
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		enricher: deps.Enricher,
		logger:   logging.GetLogger("analysis"),
	}
	if a.bus == nil {
		a.bus = nopBus{}
	}
	if a.metrics == nil {
		a.metrics = nopMetrics{}
	}
	return a, nil
}

// RegisterStrategy adds or replaces an analysis strategy.
func (a *CausalAnalyzer) RegisterStrategy(s Strategy) {
	a.registry.Register(s)
}

// RegisteredStrategies returns the ids of all registered strategies, sorted.
func (a *CausalAnalyzer) RegisteredStrategies() []string {
	return a.registry.List()
}

// CacheStats returns a snapshot of the result cache counters.
func (a *CausalAnalyzer) CacheStats() CacheStats {
	return a.cache.Stats()
}

// AnalyzeError runs the full pipeline for one error and always returns a
// usable result. Internal failures and full timeouts degrade to a fallback
// result carrying an ANALYSIS_FAILURE root cause; fallbacks are never
// cached, so a later retry re-attempts full analysis.
func (a *CausalAnalyzer) AnalyzeError(ctx context.Context, rec ErrorRecord, actx *AnalysisContext, opts *Options) *AnalysisResult {
	began := time.Now()
	if actx == nil {
		actx = &AnalysisContext{}
	}
	options := Options{}
	if opts != nil {
		options = *opts
	}

	analysisID := Fingerprint(rec, actx)
	logger := a.logger.WithField("analysisId", shortID(analysisID))

	if !options.SkipCache {
		if cached, ok := a.cache.Get(analysisID); ok {
			a.metrics.IncrementCounter(MetricAnalysisCacheHit)
			a.emitStarted(analysisID, rec, actx)
			a.emitCompleted(analysisID, cached)
			logger.Debug("Cache hit, returning stored result")
			return cached
		}
	}
	a.metrics.IncrementCounter(MetricAnalysisCacheMiss)
	a.emitStarted(analysisID, rec, actx)

	result, err := a.runPipeline(ctx, analysisID, rec, actx, options, logger)
	if err != nil {
		logger.Error("Analysis failed: %v", err)
		a.metrics.IncrementCounter(MetricAnalysisErrorTotal)
		return buildFallbackResult(analysisID, rec, actx, began, err.Error())
	}

	result.DurationMs = time.Since(began).Milliseconds()
	if !options.SkipCache {
		a.cache.Set(analysisID, result)
	}
	a.metrics.RecordMetric(MetricAnalysisDurationMs, float64(result.DurationMs))
	a.metrics.IncrementCounter(MetricAnalysisCompletedTotal)
	a.emitCompleted(analysisID, result)

	logger.InfoWithFields("Analysis completed",
		logging.F("rootCauses", len(result.RootCauses)),
		logging.F("confidence", fmt.Sprintf("%.2f", result.Confidence)),
		logging.F("durationMs", result.DurationMs),
		logging.F("degraded", result.Quality.Degraded),
	)
	return result
}

// runPipeline executes classification through validation. Panics are
// recovered into errors so AnalyzeError can fall back.
func (a *CausalAnalyzer) runPipeline(ctx context.Context, analysisID string, rec ErrorRecord, actx *AnalysisContext, options Options, logger *logging.Logger) (result *AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	cls := Classify(rec, actx)
	actx.Classification = &cls
	normalizeContext(actx)
	logger.Debug("Classified error: type=%s severity=%s domain=%s", cls.Type, cls.Severity, cls.Domain)

	strategies := a.registry.Select(cls, options.Strategies)
	logger.Debug("Selected %d strategies", len(strategies))

	deadline := options.Timeout
	if deadline <= 0 {
		deadline = a.cfg.DefaultTimeout
	}

	strategyResults, timedOut := a.executor.execute(ctx, strategies, rec, actx, deadline)
	if timedOut && len(strategyResults) == 0 {
		return nil, fmt.Errorf("analysis timed out after %v with no strategy results", deadline)
	}

	quality := ResultQuality{}
	if timedOut {
		quality.Degraded = true
		quality.DegradationReasons = append(quality.DegradationReasons,
			fmt.Sprintf("strategy deadline %v elapsed before all strategies finished", deadline))
	}
	if len(strategyResults) < len(strategies) {
		quality.Warnings = append(quality.Warnings,
			fmt.Sprintf("%d of %d strategies contributed no result", len(strategies)-len(strategyResults), len(strategies)))
	}

	rootCauses, confidence := consolidateResults(strategyResults)
	logger.Debug("Consolidated %d strategy results into %d root causes", len(strategyResults), len(rootCauses))

	hints := generateRecoveryHints(rootCauses, a.cfg.LowConfidenceThreshold)
	affected := identifyAffectedComponents(actx, rootCauses)
	actx.AffectedComponents = affected

	result = &AnalysisResult{
		AnalysisID:         analysisID,
		Timestamp:          time.Now(),
		Error:              rec,
		Context:            *actx,
		RootCauses:         rootCauses,
		Confidence:         confidence,
		RecoveryHints:      hints,
		AffectedComponents: affected,
		Quality:            quality,
	}

	if a.enricher != nil {
		if err := a.enricher.Enrich(ctx, result); err != nil {
			return nil, fmt.Errorf("semantic enrichment: %w", err)
		}
	}

	validateResult(result)
	return result, nil
}

func (a *CausalAnalyzer) emitStarted(analysisID string, rec ErrorRecord, actx *AnalysisContext) {
	a.bus.Emit(EventAnalysisStarted, map[string]interface{}{
		"analysisId": analysisID,
		"error":      rec,
		"context":    actx,
	})
}

func (a *CausalAnalyzer) emitCompleted(analysisID string, result *AnalysisResult) {
	a.bus.Emit(EventAnalysisCompleted, map[string]interface{}{
		"analysisId": analysisID,
		"result":     result,
	})
}
