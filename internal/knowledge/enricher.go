package knowledge

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/inquesthq/inquest/internal/analysis"
	"github.com/inquesthq/inquest/internal/logging"
)

// DetailKnowledgeRefs keys the attached references in RootCause.Details.
const DetailKnowledgeRefs = "knowledgeRefs"

// EnricherStats is a point-in-time snapshot of enricher activity.
type EnricherStats struct {
	Results  uint64 `json:"results"`  // results passed through Enrich
	Enriched uint64 `json:"enriched"` // root causes that received references
}

// Enricher attaches knowledge references to analysis results. It implements
// analysis.ResultEnricher and tolerates having no base at all, so it can be
// wired unconditionally and fed a base later by the watcher.
type Enricher struct {
	mu     sync.RWMutex
	base   *Base
	logger *logging.Logger

	// stats counters (atomic)
	results  uint64
	enriched uint64
}

var _ analysis.ResultEnricher = (*Enricher)(nil)

// NewEnricher creates an enricher over the given base. A nil base is valid
// and makes Enrich a no-op until SetBase supplies one.
func NewEnricher(base *Base) *Enricher {
	return &Enricher{
		base:   base,
		logger: logging.GetLogger("knowledge.enricher"),
	}
}

// SetBase swaps the active knowledge base. The file watcher calls this after
// a successful reload; in-flight Enrich calls keep the base they started with.
func (e *Enricher) SetBase(base *Base) {
	e.mu.Lock()
	e.base = base
	e.mu.Unlock()

	if base != nil {
		e.logger.Info("Knowledge base active: %d entries from %s", base.Len(), base.Path())
	}
}

func (e *Enricher) snapshot() *Base {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.base
}

// Enrich attaches matching knowledge references to each root cause under
// Details[DetailKnowledgeRefs]. Existing details keys are never overwritten.
// It never fails: with no base or no matches the result passes through
// untouched.
func (e *Enricher) Enrich(_ context.Context, result *analysis.AnalysisResult) error {
	atomic.AddUint64(&e.results, 1)

	base := e.snapshot()
	if base == nil || base.Len() == 0 || result == nil {
		return nil
	}

	for i := range result.RootCauses {
		cause := &result.RootCauses[i]
		if _, present := cause.Details[DetailKnowledgeRefs]; present {
			continue
		}

		refs := base.Match(*cause, result.Error)
		if len(refs) == 0 {
			continue
		}

		if cause.Details == nil {
			cause.Details = make(map[string]interface{}, 1)
		}
		cause.Details[DetailKnowledgeRefs] = refs
		atomic.AddUint64(&e.enriched, 1)

		e.logger.Debug("Attached %d knowledge refs to %s", len(refs), cause.Type)
	}
	return nil
}

// Stats returns a snapshot of enricher activity.
func (e *Enricher) Stats() EnricherStats {
	return EnricherStats{
		Results:  atomic.LoadUint64(&e.results),
		Enriched: atomic.LoadUint64(&e.enriched),
	}
}
