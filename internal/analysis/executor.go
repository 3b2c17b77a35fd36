package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/inquesthq/inquest/internal/logging"
)

// strategyExecutor fans strategies out to goroutines and collects whatever
// finishes before the deadline. A failing or panicking strategy is logged
// and excluded without disturbing its siblings; strategies still running
// when the deadline fires are abandoned and their late results discarded.
type strategyExecutor struct {
	logger *logging.Logger
}

func newStrategyExecutor() *strategyExecutor {
	return &strategyExecutor{logger: logging.GetLogger("analysis.executor")}
}

type strategyOutcome struct {
	id     string
	result *StrategyResult
	err    error
	took   time.Duration
}

// execute runs every strategy concurrently and returns the results that
// completed within deadline, plus whether the deadline fired first. The
// deadline is enforced here regardless of whether strategies honor ctx
// cancellation.
func (e *strategyExecutor) execute(ctx context.Context, strategies []Strategy, rec ErrorRecord, actx *AnalysisContext, deadline time.Duration) ([]StrategyResult, bool) {
	if len(strategies) == 0 {
		return nil, false
	}

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// Buffered to the strategy count so abandoned goroutines can always
	// deliver their outcome and exit.
	outcomes := make(chan strategyOutcome, len(strategies))
	for _, s := range strategies {
		go func(s Strategy) {
			began := time.Now()
			defer func() {
				if r := recover(); r != nil {
					outcomes <- strategyOutcome{
						id:   s.ID(),
						err:  fmt.Errorf("panic: %v", r),
						took: time.Since(began),
					}
				}
			}()
			result, err := s.Analyze(runCtx, rec, actx)
			outcomes <- strategyOutcome{id: s.ID(), result: result, err: err, took: time.Since(began)}
		}(s)
	}

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	var results []StrategyResult
	for received := 0; received < len(strategies); received++ {
		select {
		case o := <-outcomes:
			if o.err != nil {
				e.logger.Warn("Strategy %s failed after %dms: %v", o.id, o.took.Milliseconds(), o.err)
				continue
			}
			if o.result == nil {
				e.logger.Warn("Strategy %s returned no result", o.id)
				continue
			}
			e.logger.Debug("Strategy %s completed in %dms with %d root causes",
				o.id, o.took.Milliseconds(), len(o.result.RootCauses))
			results = append(results, *o.result)
		case <-timer.C:
			e.logger.Warn("Strategy deadline %v elapsed with %d of %d strategies finished",
				deadline, received, len(strategies))
			return results, true
		}
	}
	return results, false
}
