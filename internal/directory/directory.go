package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/internal/network"
	dir "github.com/Synternet/terraswap-core/pkg/directory"
	"github.com/Synternet/terraswap-core/pkg/repository"
	"github.com/Synternet/terraswap-core/pkg/types"
)

var _ dir.Directory = (*Directory)(nil)

const (
	PageLimit      = 30
	DefaultTimeout = time.Second * 10
)

var ErrFetchFailed = errors.New("pair page fetch failed")

// Lister is the factory pair listing query.
type Lister interface {
	ListPairs(ctx context.Context, network string, limit int, startAfter *[2]types.AssetInfo) ([]types.PairInfo, error)
}

type PageHook func(network string, pairs []types.Pair)

type Directory struct {
	logger       *slog.Logger
	lister       Lister
	connectivity network.Connectivity
	repo         repository.Repository
	stores       *network.Stores[*PairIndex]
	hooks        []PageHook
	timeout      time.Duration

	errCounter     atomic.Uint64
	pageCounter    atomic.Uint64
	skippedCounter atomic.Uint64

	pagesTotal  prometheus.Counter
	errorsTotal prometheus.Counter
	pairsTotal  prometheus.Counter
}

type Option func(*Directory)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) { d.logger = logger }
}

func WithRepository(repo repository.Repository) Option {
	return func(d *Directory) { d.repo = repo }
}

func WithPageHook(hook PageHook) Option {
	return func(d *Directory) { d.hooks = append(d.hooks, hook) }
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *Directory) { d.timeout = timeout }
}

func WithStores(stores *network.Stores[*PairIndex]) Option {
	return func(d *Directory) { d.stores = stores }
}

// WithRegisterer registers metrics. Metrics stay unregistered without it.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(d *Directory) { d.registerMetrics(reg) }
}

// NewStores creates a pair index registry usable with WithStores.
func NewStores() *network.Stores[*PairIndex] {
	return network.NewStores(newPairIndex)
}

func New(lister Lister, connectivity network.Connectivity, opts ...Option) *Directory {
	ret := &Directory{
		logger:       slog.Default(),
		lister:       lister,
		connectivity: connectivity,
		timeout:      DefaultTimeout,
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

func (d *Directory) registerMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)
	d.pagesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "terraswap_directory_pages",
		Help: "The total number of pair pages fetched",
	})
	d.errorsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "terraswap_directory_errors",
		Help: "The total number of failed pair page fetches",
	})
	d.pairsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "terraswap_directory_pairs",
		Help: "The total number of discovered pairs",
	})
}

// Store returns the pair index handle of a network.
func (d *Directory) Store(net string) *PairIndex {
	return d.stores.Get(net)
}

// PreHeat loads pairs persisted by a previous run.
func (d *Directory) PreHeat(net string) int {
	if d.repo == nil {
		return 0
	}
	pairs, err := d.repo.Pairs(net)
	if err != nil {
		d.errCounter.Add(1)
		d.logger.Warn("SYNC: Failed loading pairs", "network", net, "err", err)
		return 0
	}
	added := d.Store(net).Append(pairs...)
	d.logger.Info("SYNC: Pairs loaded", "network", net, "len(pairs)", len(added))
	return len(added)
}

// FetchNextPage requests the page after the last indexed pair. It returns the
// number of newly indexed pairs and whether a request completed. Offline,
// in-flight and failed fetches are logged and reported as not fetched.
func (d *Directory) FetchNextPage(ctx context.Context, net string) (int, bool) {
	net = network.Normalize(net)
	if !d.connectivity.Online() {
		d.skippedCounter.Add(1)
		d.logger.Debug("SYNC: Pair page skipped", "network", net, "err", network.ErrOffline)
		return 0, false
	}

	index := d.Store(net)
	index.Lock()
	if index.fetching {
		index.Unlock()
		d.skippedCounter.Add(1)
		return 0, false
	}
	index.fetching = true
	cursor := index.cursor()
	index.Unlock()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	infos, err := d.lister.ListPairs(ctx, net, PageLimit, cursor)
	cancel()

	var page []types.Pair
	if err == nil {
		page = make([]types.Pair, 0, len(infos))
		for _, info := range infos {
			pair, perr := asset.PairFromInfo(info)
			if perr != nil {
				d.errCounter.Add(1)
				d.logger.Warn("SYNC: Malformed pair skipped", "network", net, "contract", info.ContractAddr, "err", perr)
				continue
			}
			page = append(page, pair)
		}
	}

	index.Lock()
	index.fetching = false
	var added []types.Pair
	if err == nil {
		added = index.append(page)
	}
	index.Unlock()

	if err != nil {
		d.errCounter.Add(1)
		d.errorsTotal.Inc()
		d.logger.Error("SYNC: Pair page failed", "network", net, "err", errors.Join(ErrFetchFailed, err))
		return 0, false
	}

	d.pageCounter.Add(1)
	d.pagesTotal.Inc()
	d.pairsTotal.Add(float64(len(added)))
	d.logger.Debug("SYNC: Pair page", "network", net, "received", len(infos), "added", len(added))

	if len(added) > 0 {
		if d.repo != nil {
			if err := d.repo.SavePairs(net, added); err != nil {
				d.errCounter.Add(1)
				d.logger.Error("SYNC: Failed saving pairs", "network", net, "err", err)
			}
		}
		for _, hook := range d.hooks {
			hook(net, added)
		}
	}

	return len(added), true
}

// Sync fetches pages until one yields no new pairs, a fetch does not complete
// or the context is done. Returns the number of pairs added.
func (d *Directory) Sync(ctx context.Context, net string) int {
	total := 0
	for ctx.Err() == nil {
		added, fetched := d.FetchNextPage(ctx, net)
		total += added
		if !fetched || added == 0 {
			break
		}
	}
	if total > 0 {
		d.logger.Info("SYNC: Pairs synced", "network", net, "added", total, "total", d.Store(net).Len())
	}
	return total
}

func (d *Directory) Pairs(net string) []types.Pair {
	return d.Store(net).Pairs()
}

func (d *Directory) Pair(net, contract string) (types.Pair, bool) {
	return d.Store(net).Pair(contract)
}

func (d *Directory) PairsByAsset(net, address string) []types.Pair {
	return d.Store(net).PairsByAsset(address)
}

func (d *Directory) FindPair(net, a, b string) (types.Pair, bool) {
	return d.Store(net).FindPair(a, b)
}

func (d *Directory) AssetAddresses(net string) []types.AssetRef {
	return d.Store(net).Assets()
}

func (d *Directory) GetStatus() map[string]any {
	networks := make(map[string]any)
	for _, name := range d.stores.Names() {
		index := d.stores.Get(name)
		networks[name] = map[string]any{
			"pairs":  index.Len(),
			"assets": len(index.Assets()),
		}
	}
	return map[string]any{
		"directory": map[string]any{
			"errors":   d.errCounter.Load(),
			"pages":    d.pageCounter.Load(),
			"skipped":  d.skippedCounter.Load(),
			"networks": networks,
		},
	}
}
