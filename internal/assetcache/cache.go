package assetcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/internal/network"
	"github.com/Synternet/terraswap-core/pkg/repository"
	"github.com/Synternet/terraswap-core/pkg/types"
)

const (
	DefaultStaleAfter     = time.Second * 5
	DefaultCoolDown       = time.Millisecond * 100
	DefaultTimeout        = time.Second * 10
	DefaultNativeDecimals = 6
)

var ErrFetchFailed = errors.New("asset refresh failed")

// Fetcher retrieves balances of the connected wallet and token metadata.
type Fetcher interface {
	NativeBalance(ctx context.Context, network, denom string) (string, error)
	TokenBalance(ctx context.Context, network, contract string) (string, error)
	TokenMetadata(ctx context.Context, network, contract string) (types.TokenMetadata, error)
}

type Cache struct {
	ctx          context.Context
	logger       *slog.Logger
	fetcher      Fetcher
	connectivity network.Connectivity
	repo         repository.Repository
	stores       *network.Stores[*AssetTable]
	traces       *network.Stores[*Traces]

	staleAfter time.Duration
	coolDown   time.Duration
	timeout    time.Duration
	now        func() time.Time

	refreshCounter atomic.Uint64
	errCounter     atomic.Uint64
	skippedCounter atomic.Uint64

	refreshesTotal prometheus.Counter
	errorsTotal    prometheus.Counter
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func WithRepository(repo repository.Repository) Option {
	return func(c *Cache) { c.repo = repo }
}

func WithStaleAfter(d time.Duration) Option {
	return func(c *Cache) { c.staleAfter = d }
}

func WithCoolDown(d time.Duration) Option {
	return func(c *Cache) { c.coolDown = d }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithStores(stores *network.Stores[*AssetTable]) Option {
	return func(c *Cache) { c.stores = stores }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) { c.registerMetrics(reg) }
}

func NewStores() *network.Stores[*AssetTable] {
	return network.NewStores(newAssetTable)
}

// New creates the cache. Queue workers stop once ctx is done.
func New(ctx context.Context, fetcher Fetcher, connectivity network.Connectivity, opts ...Option) *Cache {
	ret := &Cache{
		ctx:          ctx,
		logger:       slog.Default(),
		fetcher:      fetcher,
		connectivity: connectivity,
		traces:       network.NewStores(newTraces),
		staleAfter:   DefaultStaleAfter,
		coolDown:     DefaultCoolDown,
		timeout:      DefaultTimeout,
		now:          time.Now,
	}
	ret.registerMetrics(nil)
	for _, opt := range opts {
		opt(ret)
	}
	if ret.stores == nil {
		ret.stores = NewStores()
	}
	return ret
}

func (c *Cache) registerMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)
	c.refreshesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "terraswap_assets_refreshes",
		Help: "The total number of completed asset refreshes",
	})
	c.errorsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "terraswap_assets_errors",
		Help: "The total number of failed asset refreshes",
	})
}

// Subscribe wires the cache to connectivity and network switch events.
func (c *Cache) Subscribe(m *network.Monitor) {
	m.OnConnectivityChange(c.OnConnectivityChange)
	m.OnNetworkSwitch(c.OnNetworkSwitch)
}

// OnConnectivityChange resumes queues that were paused while offline.
func (c *Cache) OnConnectivityChange(online bool) {
	if !online {
		return
	}
	for _, name := range c.stores.Names() {
		c.resume(c.stores.Get(name))
	}
}

// OnNetworkSwitch drops the in-memory store of the network being left.
func (c *Cache) OnNetworkSwitch(from, to string) {
	if from == "" {
		return
	}
	c.stores.Drop(from)
	c.logger.Info("Cache.OnNetworkSwitch", "from", from, "to", to)
}

// Store returns the asset table handle of a network.
func (c *Cache) Store(net string) *AssetTable {
	return c.stores.Get(net)
}

// PreHeat loads persisted snapshots without queueing refreshes.
func (c *Cache) PreHeat(net string) int {
	if c.repo == nil {
		return 0
	}
	assets, err := c.repo.Assets(net)
	if err != nil {
		c.errCounter.Add(1)
		c.logger.Warn("SYNC: Failed loading assets", "network", net, "err", err)
		return 0
	}

	table := c.Store(net)
	table.Lock()
	for _, a := range assets {
		table.upsert(a)
	}
	table.Unlock()

	c.logger.Info("SYNC: Assets loaded", "network", net, "len(assets)", len(assets))
	return len(assets)
}

// GetOrQueue returns the current snapshot of an asset, possibly stale, and
// whether it existed. A refresh is queued when the asset is unknown, or when
// it is stale and the client is online.
func (c *Cache) GetOrQueue(net, address string) (types.CachedAsset, bool) {
	ref := asset.Classify(address)
	table := c.Store(net)

	table.Lock()
	snapshot, found := table.get(ref.Address)
	queue := false
	if !found {
		snapshot = types.CachedAsset{Address: ref.Address, IsNative: ref.IsNative}
		table.upsert(snapshot)
		queue = true
	} else if c.now().Sub(snapshot.UpdatedAt) > c.staleAfter && c.connectivity.Online() {
		queue = true
	}
	if queue {
		table.enqueue(ref.Address)
	}
	table.Unlock()

	if queue {
		c.resume(table)
	}
	return snapshot, found
}

// AddCustomAsset replaces or appends the asset and queues a refresh.
func (c *Cache) AddCustomAsset(net string, a types.CachedAsset) types.CachedAsset {
	ref := asset.Classify(a.Address)
	a.Address = ref.Address
	a.IsNative = ref.IsNative

	table := c.Store(net)
	table.Lock()
	table.upsert(a)
	table.invalidate(a.Address)
	table.Unlock()

	c.resume(table)
	return a
}

func (c *Cache) Assets(net string) []types.CachedAsset {
	return c.Store(net).Assets()
}

// WaitIdle blocks until the network queue has no refresh in flight.
func (c *Cache) WaitIdle(ctx context.Context, net string) error {
	table := c.Store(net)
	table.Lock()
	idle := table.idle
	table.Unlock()

	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resume starts a drain of the table unless one is running or the client is offline.
func (c *Cache) resume(table *AssetTable) {
	if !c.connectivity.Online() {
		c.skippedCounter.Add(1)
		c.logger.Debug("Cache.resume", "network", table.network, "err", network.ErrOffline)
		return
	}

	table.Lock()
	start := table.startFetching()
	table.Unlock()

	if start {
		go c.drain(table)
	}
}

// drain refreshes queued addresses one at a time, pausing for the cool-down between them.
func (c *Cache) drain(table *AssetTable) {
	for {
		table.Lock()
		if len(table.queue) == 0 || !c.connectivity.Online() || c.ctx.Err() != nil {
			if len(table.queue) > 0 {
				c.skippedCounter.Add(1)
			}
			table.stopFetching()
			table.Unlock()
			return
		}
		address := table.dequeue()
		entry, _ := table.get(address)
		table.Unlock()

		updated, err := c.refresh(entry, table.network)

		table.Lock()
		stored := table.complete(address, updated, err == nil)
		table.Unlock()

		if err != nil {
			c.errCounter.Add(1)
			c.errorsTotal.Inc()
			c.logger.Warn("Cache.refresh failed", "network", table.network, "address", address, "err", err)
		} else {
			c.refreshCounter.Add(1)
			c.refreshesTotal.Inc()
			if stored {
				c.persist(table.network, updated)
			}
		}

		timer := time.NewTimer(c.coolDown)
		select {
		case <-c.ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (c *Cache) persist(net string, a types.CachedAsset) {
	if c.repo == nil {
		return
	}
	if err := c.repo.SaveAsset(net, a); err != nil {
		c.errCounter.Add(1)
		c.logger.Warn("Cache.persist failed", "network", net, "address", a.Address, "err", err)
	}
}

func (c *Cache) refresh(entry types.CachedAsset, net string) (types.CachedAsset, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	switch {
	case entry.IsNative && asset.IsIBCDenom(entry.Address):
		if trace, ok := c.traces.Get(net).Verified(entry.Address); ok {
			balance, err := c.fetcher.NativeBalance(ctx, net, entry.Address)
			if err != nil {
				return entry, fmt.Errorf("%w: ibc balance %s: %w", ErrFetchFailed, entry.Address, err)
			}
			entry.Balance = balance
			entry.IBCPath = trace.Path
			if entry.Symbol == "" {
				entry.Symbol = strings.ToUpper(trace.BaseDenom)
			}
			if entry.Name == "" {
				entry.Name = trace.GetFullDenomPath()
			}
			if entry.Decimals == 0 {
				entry.Decimals = DefaultNativeDecimals
			}
			break
		}
		fallthrough
	case entry.IsNative:
		balance, err := c.fetcher.NativeBalance(ctx, net, entry.Address)
		if err != nil {
			return entry, fmt.Errorf("%w: native balance %s: %w", ErrFetchFailed, entry.Address, err)
		}
		entry.Balance = balance
		if entry.Symbol == "" {
			entry.Symbol = nativeSymbol(entry.Address)
		}
		if entry.Name == "" {
			entry.Name = entry.Address
		}
		if entry.Decimals == 0 {
			entry.Decimals = DefaultNativeDecimals
		}
	default:
		balance, err := c.fetcher.TokenBalance(ctx, net, entry.Address)
		if err != nil {
			return entry, fmt.Errorf("%w: token balance %s: %w", ErrFetchFailed, entry.Address, err)
		}
		meta, err := c.fetcher.TokenMetadata(ctx, net, entry.Address)
		if err != nil {
			return entry, fmt.Errorf("%w: token info %s: %w", ErrFetchFailed, entry.Address, err)
		}
		entry.Balance = balance
		entry.Name = meta.Name
		entry.Symbol = meta.Symbol
		entry.Decimals = meta.Decimals
		entry.TotalSupply = meta.TotalSupply
	}

	entry.UpdatedAt = c.now()
	return entry, nil
}

// nativeSymbol turns micro denoms like `uluna` into `LUNA`.
func nativeSymbol(denom string) string {
	if len(denom) > 1 && denom[0] == 'u' && !strings.Contains(denom, "/") {
		return strings.ToUpper(denom[1:])
	}
	return strings.ToUpper(denom)
}

func (c *Cache) GetStatus() map[string]any {
	networks := make(map[string]any)
	for _, name := range c.stores.Names() {
		table := c.stores.Get(name)
		networks[name] = map[string]any{
			"assets": len(table.Assets()),
			"queue":  table.QueueLen(),
			"ibc":    c.traces.Get(name).Len(),
		}
	}
	return map[string]any{
		"assets": map[string]any{
			"refreshes": c.refreshCounter.Load(),
			"errors":    c.errCounter.Load(),
			"skipped":   c.skippedCounter.Load(),
			"networks":  networks,
		},
	}
}
