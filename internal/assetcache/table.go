package assetcache

import (
	"sync"

	"github.com/Synternet/terraswap-core/pkg/types"
)

// AssetTable is the per network asset store together with its fetch queue.
type AssetTable struct {
	sync.Mutex
	network string
	assets  []types.CachedAsset
	index   map[string]int

	queue    []string
	pending  map[string]struct{}
	fetching bool
	idle     chan struct{}

	// inflight is the address being refreshed; dirty marks it replaced meanwhile.
	inflight string
	dirty    bool
}

func newAssetTable(network string) *AssetTable {
	return &AssetTable{
		network: network,
		index:   make(map[string]int),
		pending: make(map[string]struct{}),
	}
}

// upsert replaces the asset with the same address or appends it.
func (t *AssetTable) upsert(asset types.CachedAsset) {
	if idx, ok := t.index[asset.Address]; ok {
		t.assets[idx] = asset
		return
	}
	t.index[asset.Address] = len(t.assets)
	t.assets = append(t.assets, asset)
}

func (t *AssetTable) get(address string) (types.CachedAsset, bool) {
	idx, ok := t.index[address]
	if !ok {
		return types.CachedAsset{}, false
	}
	return t.assets[idx], true
}

// enqueue adds the address unless it is already queued or being refreshed.
func (t *AssetTable) enqueue(address string) bool {
	if _, ok := t.pending[address]; ok {
		return false
	}
	t.pending[address] = struct{}{}
	t.queue = append(t.queue, address)
	return true
}

// invalidate queues a refresh of address even when one is already running for it.
func (t *AssetTable) invalidate(address string) {
	if t.inflight == address {
		t.dirty = true
		return
	}
	t.enqueue(address)
}

// dequeue pops the next address and marks it in flight.
func (t *AssetTable) dequeue() string {
	address := t.queue[0]
	t.queue = t.queue[1:]
	t.inflight = address
	t.dirty = false
	return address
}

// complete ends the refresh of the in-flight address. A refresh of an entry
// replaced meanwhile only contributes its balance, and the address is queued
// again. It reports whether the result was stored as is.
func (t *AssetTable) complete(address string, updated types.CachedAsset, ok bool) bool {
	t.inflight = ""
	if t.dirty {
		t.dirty = false
		if current, found := t.get(address); found && ok {
			current.Balance = updated.Balance
			t.upsert(current)
		}
		t.queue = append(t.queue, address)
		return false
	}
	delete(t.pending, address)
	if ok {
		t.upsert(updated)
	}
	return ok
}

// startFetching flips the in-flight flag. It reports false if a drain is
// already running or there is nothing to do.
func (t *AssetTable) startFetching() bool {
	if t.fetching || len(t.queue) == 0 {
		return false
	}
	t.fetching = true
	t.idle = make(chan struct{})
	return true
}

func (t *AssetTable) stopFetching() {
	t.fetching = false
	if t.idle != nil {
		close(t.idle)
		t.idle = nil
	}
}

func (t *AssetTable) Assets() []types.CachedAsset {
	t.Lock()
	defer t.Unlock()

	ret := make([]types.CachedAsset, len(t.assets))
	copy(ret, t.assets)
	return ret
}

func (t *AssetTable) QueueLen() int {
	t.Lock()
	defer t.Unlock()
	return len(t.queue)
}
