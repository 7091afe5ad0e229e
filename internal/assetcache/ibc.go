package assetcache

import (
	"context"
	"sync"
	"sync/atomic"

	ibctypes "github.com/cosmos/ibc-go/v7/modules/apps/transfer/types"
)

// TraceSource lists IBC denom traces known to a chain.
type TraceSource interface {
	DenomTraces(ctx context.Context, network string) ([]ibctypes.DenomTrace, error)
}

// Traces holds verified IBC denom traces of a network keyed by `ibc/<HASH>`.
type Traces struct {
	sync.Mutex
	traces map[string]ibctypes.DenomTrace
	misses atomic.Uint64
}

func newTraces(string) *Traces {
	return &Traces{
		traces: make(map[string]ibctypes.DenomTrace),
	}
}

func (t *Traces) Add(traces ...ibctypes.DenomTrace) {
	t.Lock()
	defer t.Unlock()

	for _, trace := range traces {
		t.traces[trace.IBCDenom()] = trace
	}
}

func (t *Traces) Verified(denom string) (ibctypes.DenomTrace, bool) {
	t.Lock()
	defer t.Unlock()

	trace, found := t.traces[denom]
	if !found {
		t.misses.Add(1)
	}
	return trace, found
}

func (t *Traces) Len() int {
	t.Lock()
	defer t.Unlock()
	return len(t.traces)
}

func (c *Cache) loadTraces(net string) bool {
	if c.repo == nil {
		return false
	}
	traces := c.repo.IBCDenomAll(net)
	if len(traces) == 0 {
		return false
	}

	c.traces.Get(net).Add(traces...)
	c.logger.Info("SYNC: IBC Denoms loaded", "network", net, "len(traces)", len(traces))

	return true
}

// PreHeatTraces loads verified IBC traces from the repository, falling back to the chain.
func (c *Cache) PreHeatTraces(ctx context.Context, net string, source TraceSource) {
	if c.loadTraces(net) || source == nil {
		return
	}

	traces, err := source.DenomTraces(ctx, net)
	if err != nil {
		c.errCounter.Add(1)
		c.logger.Warn("SYNC: Failed to fetch denom traces", "network", net, "err", err)
		return
	}

	c.traces.Get(net).Add(traces...)
	if c.repo != nil {
		for _, trace := range traces {
			if err := c.repo.SaveIBCDenom(net, trace); err != nil {
				c.errCounter.Add(1)
				c.logger.Warn("SYNC: Failed to save denom trace", "denom", trace.IBCDenom(), "err", err)
			}
		}
	}

	c.logger.Info("SYNC: IBC Denoms fetched", "network", net, "len(traces)", len(traces))
}

// AddTraces marks IBC denoms of a network as verified.
func (c *Cache) AddTraces(net string, traces ...ibctypes.DenomTrace) {
	c.traces.Get(net).Add(traces...)
}
