package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardledger/pricefeed-go/pkg/logging"
	"github.com/cardledger/pricefeed-go/pkg/metrics"
	"github.com/cardledger/pricefeed-go/pkg/pricing/selector"
	"github.com/cardledger/pricefeed-go/pkg/pricing/sources"
)

// Orchestrator defaults.
const (
	DefaultGroupSize  = 3
	DefaultGroupDelay = 500 * time.Millisecond
	DefaultSkipWindow = time.Hour
)

// OrchestratorConfig holds batch refresh tuning knobs. Zero values take
// the defaults above.
type OrchestratorConfig struct {
	GroupSize  int           // items refreshed concurrently per group
	GroupDelay time.Duration // fixed pause between groups
	SkipWindow time.Duration // skip items updated within this window
	Progress   ProgressFunc  // optional, invoked per dispatched item
}

// ItemRefresher is the single-item operation the orchestrator drives.
// *Refresher implements it.
type ItemRefresher interface {
	Refresh(ctx context.Context, item Item, force bool) (*selector.Result, error)
}

// Orchestrator drives the refresher across a whole inventory: fixed-size
// concurrent groups, a fixed delay between groups as the rate limit, and
// at most one batch in flight per orchestrator.
type Orchestrator struct {
	refresher  ItemRefresher
	logger     *logging.Logger
	groupSize  int
	groupDelay time.Duration
	skipWindow time.Duration
	progress   ProgressFunc
	running    atomic.Bool
	now        func() time.Time
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(refresher ItemRefresher, cfg OrchestratorConfig, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = DefaultGroupSize
	}
	if cfg.GroupDelay == 0 {
		cfg.GroupDelay = DefaultGroupDelay
	}
	if cfg.SkipWindow == 0 {
		cfg.SkipWindow = DefaultSkipWindow
	}
	return &Orchestrator{
		refresher:  refresher,
		logger:     logger,
		groupSize:  cfg.GroupSize,
		groupDelay: cfg.GroupDelay,
		skipWindow: cfg.SkipWindow,
		progress:   cfg.Progress,
		now:        time.Now,
	}
}

// SetClock overrides the orchestrator's clock. Tests only.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Running reports whether a batch is currently in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// itemOutcome is the per-item result of one group, reduced into the
// summary after the group joins so counter updates stay single-writer.
type itemOutcome int

const (
	outcomeNone itemOutcome = iota
	outcomeSuccess
	outcomeFailed
	outcomeSkipped
)

type groupResult struct {
	outcome itemOutcome
	source  sources.Source
}

// RefreshAll refreshes every item under bounded concurrency. A second
// call while one is in flight returns an all-zero summary immediately.
// No per-item failure aborts the batch; cancellation is honored at group
// boundaries and flows into in-flight adapter calls.
func (o *Orchestrator) RefreshAll(ctx context.Context, items []Item, force bool) Summary {
	if !o.running.CompareAndSwap(false, true) {
		o.logger.Warn("Batch refresh already running, ignoring request")
		return NewSummary(0)
	}
	defer o.running.Store(false)

	start := time.Now()
	defer func() {
		metrics.RecordBatchRefresh(time.Since(start))
	}()

	summary := NewSummary(len(items))
	total := len(items)

	o.logger.Info("Starting batch refresh", "items", total, "force", force)

	for groupStart := 0; groupStart < total; groupStart += o.groupSize {
		if groupStart > 0 {
			select {
			case <-ctx.Done():
				o.logger.Warn("Batch refresh canceled", "processed", groupStart)
				return summary
			case <-time.After(o.groupDelay):
			}
		}

		groupEnd := groupStart + o.groupSize
		if groupEnd > total {
			groupEnd = total
		}
		group := items[groupStart:groupEnd]
		results := make([]groupResult, len(group))

		g := new(errgroup.Group)
		for i, item := range group {
			if !force && o.recentlyUpdated(item) {
				results[i] = groupResult{outcome: outcomeSkipped}
				continue
			}

			o.emitProgress(groupStart+i+1, total, item.Name)

			i, item := i, item
			g.Go(func() error {
				result, err := o.refresher.Refresh(ctx, item, force)
				switch {
				case err != nil:
					o.logger.Warn("Item refresh failed", "item", item.Name, "error", err)
					results[i] = groupResult{outcome: outcomeFailed}
				case result == nil:
					o.logger.Warn("No price found for item", "item", item.Name)
					results[i] = groupResult{outcome: outcomeFailed}
				default:
					results[i] = groupResult{outcome: outcomeSuccess, source: result.PrimarySource}
				}
				return nil
			})
		}
		_ = g.Wait()

		for _, res := range results {
			switch res.outcome {
			case outcomeSuccess:
				summary.Success++
				summary.BySource[res.source]++
				metrics.RecordRefreshItem("success")
			case outcomeFailed:
				summary.Failed++
				metrics.RecordRefreshItem("failed")
			case outcomeSkipped:
				summary.Skipped++
				metrics.RecordRefreshItem("skipped")
			}
		}
	}

	o.logger.Info("Batch refresh complete",
		"total", summary.Total,
		"success", summary.Success,
		"failed", summary.Failed,
		"skipped", summary.Skipped)

	return summary
}

// recentlyUpdated reports whether the item's price was written within
// the skip window.
func (o *Orchestrator) recentlyUpdated(item Item) bool {
	if item.LastPriceUpdate.IsZero() {
		return false
	}
	return o.now().Sub(item.LastPriceUpdate) < o.skipWindow
}

func (o *Orchestrator) emitProgress(current, total int, itemName string) {
	if o.progress != nil {
		o.progress(current, total, itemName)
	}
}
