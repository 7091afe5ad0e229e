package terraswap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"

	"github.com/Synternet/terraswap-core/internal/assetcache"
	"github.com/Synternet/terraswap-core/internal/directory"
	"github.com/Synternet/terraswap-core/internal/network"
	"github.com/Synternet/terraswap-core/internal/quote"
	"github.com/Synternet/terraswap-core/pkg/types"
)

var ErrNoEndpoints = errors.New("no network endpoints configured")

// Service runs discovery, refresh and connectivity loops against the configured networks.
type Service struct {
	Options
	Cancel context.CancelCauseFunc
	Group  *errgroup.Group

	client    *Client
	monitor   *network.Monitor
	directory *directory.Directory
	cache     *assetcache.Cache
	swaps     *quote.SwapEngine
	liquidity *quote.LiquidityEngine

	statusMu        sync.Mutex
	statusCallbacks []func() map[string]any

	counter           atomic.Int64
	publishedMessages atomic.Uint64
	probeCounter      atomic.Uint64
	errCounter        atomic.Uint64

	// Total counters
	messagesCounter prometheus.Counter
	probeFailures   prometheus.Counter

	// Gauges
	blockHeight *prometheus.GaugeVec
	online      prometheus.Gauge
}

func New(opts ...Option) (*Service, error) {
	cfg := defaultOptions()
	cfg.Parse(opts...)
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	ctx, cancel := context.WithCancelCause(cfg.Context)
	group, ctx := errgroup.WithContext(ctx)
	cfg.Context = ctx

	factory := promauto.With(cfg.Registerer)
	ret := &Service{
		Options: cfg,
		Cancel:  cancel,
		Group:   group,
		messagesCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: "terraswap_messages",
			Help: "The total number of messages published",
		}),
		probeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "terraswap_probe_failures",
			Help: "The total number of failed connectivity probes",
		}),
		blockHeight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "terraswap_block_height",
			Help: "The latest block height as seen by the connectivity probe",
		}, []string{"network"}),
		online: factory.NewGauge(prometheus.GaugeOpts{
			Name: "terraswap_online",
			Help: "1 while the active network answers probes",
		}),
	}

	client, err := NewClient(cfg.Logger, cfg.Wallet, cfg.RateLimit, cfg.QueryTimeout, cfg.Endpoints...)
	if err != nil {
		cancel(err)
		return nil, fmt.Errorf("failed connecting to chain: %w", err)
	}
	ret.client = client

	current := network.Normalize(cfg.Network)
	if _, err := client.lookup(current); err != nil {
		cancel(err)
		client.Close()
		return nil, err
	}
	ret.monitor = network.NewMonitor(current, false)

	dirOpts := []directory.Option{
		directory.WithLogger(cfg.Logger),
		directory.WithRegisterer(cfg.Registerer),
		directory.WithTimeout(cfg.QueryTimeout),
		directory.WithPageHook(ret.onPage),
	}
	cacheOpts := []assetcache.Option{
		assetcache.WithLogger(cfg.Logger),
		assetcache.WithRegisterer(cfg.Registerer),
		assetcache.WithTimeout(cfg.QueryTimeout),
	}
	if cfg.Repository != nil {
		dirOpts = append(dirOpts, directory.WithRepository(cfg.Repository))
		cacheOpts = append(cacheOpts, assetcache.WithRepository(cfg.Repository))
	}
	ret.directory = directory.New(client, ret.monitor, dirOpts...)
	ret.cache = assetcache.New(ctx, client, ret.monitor, cacheOpts...)
	ret.cache.Subscribe(ret.monitor)
	ret.monitor.OnConnectivityChange(ret.onConnectivityChange)

	ret.swaps = quote.NewSwapEngine(ret.directory, client)
	ret.liquidity = quote.NewLiquidityEngine(ret.directory, client)

	ret.AddStatusCallback(ret.getStatus)
	ret.AddStatusCallback(ret.directory.GetStatus)
	ret.AddStatusCallback(ret.cache.GetStatus)
	ret.AddStatusCallback(ret.client.GetStatus)

	ret.Logger.Info("Service created", "network", current, "networks", client.Networks(), "assets", len(cfg.Assets))

	return ret, nil
}

func (s *Service) Client() *Client { return s.client }
func (s *Service) Monitor() *network.Monitor { return s.monitor }
func (s *Service) Directory() *directory.Directory { return s.directory }
func (s *Service) Cache() *assetcache.Cache { return s.cache }
func (s *Service) Swaps() *quote.SwapEngine { return s.swaps }
func (s *Service) Liquidity() *quote.LiquidityEngine { return s.liquidity }
func (s *Service) CurrentNetwork() string { return s.monitor.Current() }

func (s *Service) AddStatusCallback(cb func() map[string]any) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.statusCallbacks = append(s.statusCallbacks, cb)
}

// Status merges the status maps of every component.
func (s *Service) Status() map[string]any {
	s.statusMu.Lock()
	callbacks := append([]func() map[string]any(nil), s.statusCallbacks...)
	s.statusMu.Unlock()

	ret := make(map[string]any)
	for _, cb := range callbacks {
		maps.Copy(ret, cb())
	}
	return ret
}

// Probe checks the active network and updates connectivity.
func (s *Service) Probe(ctx context.Context) bool {
	net := s.monitor.Current()
	s.probeCounter.Add(1)

	st, err := s.client.Probe(ctx, net)
	online := err == nil
	if err != nil {
		s.probeFailures.Inc()
		s.Logger.Debug("Probe failed", "network", net, "err", err)
	} else if st.Height > 0 {
		s.blockHeight.WithLabelValues(net).Set(float64(st.Height))
	}
	s.monitor.SetOnline(online)
	return online
}

// Bootstrap probes the active network, loads persisted state and syncs the
// pair directory. Returns the number of pairs discovered.
func (s *Service) Bootstrap(ctx context.Context) int {
	net := s.monitor.Current()
	s.Probe(ctx)

	s.directory.PreHeat(net)
	s.cache.PreHeat(net)
	s.cache.PreHeatTraces(ctx, net, s.client)
	for _, address := range s.Assets {
		s.cache.GetOrQueue(net, address)
	}

	return s.directory.Sync(ctx, net)
}

// SwitchNetwork makes name the active network and bootstraps it.
func (s *Service) SwitchNetwork(ctx context.Context, name string) error {
	if _, err := s.client.lookup(name); err != nil {
		return err
	}
	s.monitor.Switch(name)
	s.Bootstrap(ctx)
	return nil
}

func (s *Service) onConnectivityChange(online bool) {
	if online {
		s.online.Set(1)
	} else {
		s.online.Set(0)
	}
	s.Logger.Info("Connectivity changed", "network", s.monitor.Current(), "online", online)
}

func (s *Service) onPage(net string, pairs []types.Pair) {
	s.publishPairs(net, pairs)
	if !s.TrackPairAssets {
		return
	}
	for _, pair := range pairs {
		for _, ref := range pair.Assets {
			s.cache.GetOrQueue(net, ref.Address)
		}
	}
}

func (s *Service) every(period time.Duration, fn func()) {
	ticker := time.NewTicker(period)
	s.Group.Go(func() error {
		defer ticker.Stop()
		for {
			select {
			case <-s.Context.Done():
				return nil
			case <-ticker.C:
				fn()
			}
		}
	})
}

func (s *Service) Start() context.Context {
	if s.MetricsURL != "" {
		s.serveMetrics()
	}

	s.Group.Go(func() error {
		added := s.Bootstrap(s.Context)
		s.Logger.Info("Bootstrap done", "network", s.monitor.Current(), "added", added)
		return nil
	})

	s.every(s.ProbePeriod, func() {
		s.Probe(s.Context)
	})
	s.every(s.SyncPeriod, func() {
		if s.monitor.Online() {
			s.directory.Sync(s.Context, s.monitor.Current())
		}
	})
	s.every(s.TelemetryPeriod, func() {
		s.Logger.Info("Status", "status", s.Status())
	})

	return s.Context
}

func (s *Service) serveMetrics() {
	handler := promhttp.Handler()
	if gatherer, ok := s.Registerer.(prometheus.Gatherer); ok {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{
		Addr:              s.MetricsURL,
		Handler:           mux,
		ReadHeaderTimeout: time.Second * 5,
	}

	s.Group.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("Metrics server failed", "url", s.MetricsURL, "err", err)
		}
		return nil
	})
	s.Group.Go(func() error {
		<-s.Context.Done()
		return server.Close()
	})
}

func (s *Service) Close() error {
	s.Logger.Info("Service.Close")
	s.Cancel(nil)
	var errArr []error

	s.Logger.Info("Service.Group.Wait")
	errGr := s.Group.Wait()
	if !errors.Is(errGr, context.Canceled) {
		errArr = append(errArr, errGr)
	}
	if err := s.client.Close(); err != nil {
		errArr = append(errArr, fmt.Errorf("failure during client Close: %w", err))
	}
	err := errors.Join(errArr...)
	s.Logger.Info("Service.Close DONE", "err", err)
	return err
}

func (s *Service) getStatus() map[string]any {
	return map[string]any{
		"network":   s.monitor.Current(),
		"online":    s.monitor.Online(),
		"probes":    s.probeCounter.Swap(0),
		"errors":    s.errCounter.Swap(0),
		"published": s.publishedMessages.Swap(0),
	}
}
