// Package analysis implements causal root-cause analysis for runtime errors.
//
// # Overview
//
// This package turns an error plus a snapshot of its environment (recent
// events, dependency health, system state) into a ranked set of root-cause
// hypotheses, recovery hints, and the list of components the failure touches.
// Analysis is deterministic and rule-based: no inference service is involved,
// so the same error in the same context always produces the same result.
//
// # Architecture
//
// One analysis call runs a fixed pipeline:
//
//  1. Fingerprint the error and consult the result cache
//  2. Classify the error (type, severity, domain)
//  3. Select strategies for the classification, or honor an explicit list
//  4. Execute the selected strategies concurrently under a shared deadline
//  5. Consolidate strategy results, merging duplicate cause types
//  6. Generate recovery hints and identify affected components
//  7. Enrich, validate, cache, and publish the result
//
// Every stage is fault-tolerant. Strategy failures and timeouts degrade the
// result (recorded in ResultQuality) instead of failing the call; if the
// pipeline itself breaks, the caller still receives a fallback result with
// an ANALYSIS_FAILURE root cause. AnalyzeError never returns an error.
//
// # Key Concepts
//
// Fingerprint: A deterministic hash over the identity fields of an error and
// its source. It doubles as the analysis id and the cache key, so repeated
// failures of the same shape are answered from the cache.
//
// Strategy: One pluggable analysis technique behind the Strategy interface.
// Strategies run concurrently and independently; the executor abandons any
// strategy that outlives the deadline and keeps whatever finished in time.
//
// Consolidation: Root causes from separate strategies that name the same
// cause type collapse into one, keeping the highest confidence and the union
// of details. The result's overall confidence is the maximum across the
// merged causes.
//
// # File Organization
//
//   - types.go: Data model, interfaces, and domain constants
//   - classifier.go: Error classification rules
//   - fingerprint.go: Cache key derivation
//   - cache.go: Bounded TTL result cache
//   - registry.go: Strategy registration and selection
//   - executor.go: Concurrent strategy execution with deadline
//   - consolidate.go: Result merging and ranking
//   - hints.go: Recovery hint generation
//   - affected.go: Affected component identification
//   - fallback.go: Degraded-result construction
//   - analyzer.go: Pipeline orchestration
//
// # Usage Example
//
//	analyzer, err := analysis.NewAnalyzer(analysis.DefaultConfig(), analysis.Dependencies{})
//	if err != nil {
//		return err
//	}
//	analyzer.RegisterStrategy(strategies.NewPatternMatching())
//	result := analyzer.AnalyzeError(ctx, analysis.ErrorRecord{
//		Message: "Database connection failed: timeout",
//		Code:    "ETIMEDOUT",
//	}, &analysis.AnalysisContext{Source: "checkout-service"}, nil)
//
// # Design Principles
//
//  1. Never fail the caller: every path ends in a usable AnalysisResult
//  2. Deterministic computation: same input always produces same output
//  3. Bounded latency: strategies race a deadline, stragglers are abandoned
//  4. Transparent degradation: incomplete results say so in ResultQuality
package analysis
