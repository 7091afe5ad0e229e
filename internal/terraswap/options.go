package terraswap

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/time/rate"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/pkg/repository"
)

const (
	DefaultName            = "terraswap"
	DefaultPrefix          = "synternet"
	DefaultTelemetryPeriod = time.Second * 3
	DefaultSyncPeriod      = time.Minute
	DefaultProbePeriod     = time.Second * 5
	DefaultRateLimit       = rate.Limit(20)
	DefaultQueryTimeout    = time.Second * 5
)

type Options struct {
	Context         context.Context
	Logger          *slog.Logger
	Name            string
	Prefix          string
	Nats            *nats.Conn
	Repository      repository.Repository
	Registerer      prometheus.Registerer
	MetricsURL      string
	TelemetryPeriod time.Duration
	SyncPeriod      time.Duration
	ProbePeriod     time.Duration
	Endpoints       []Endpoint
	Network         string
	Wallet          string
	Assets          []string
	TrackPairAssets bool
	RateLimit       rate.Limit
	QueryTimeout    time.Duration
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Context:         context.Background(),
		Logger:          slog.Default(),
		Name:            DefaultName,
		Prefix:          DefaultPrefix,
		Registerer:      prometheus.DefaultRegisterer,
		TelemetryPeriod: DefaultTelemetryPeriod,
		SyncPeriod:      DefaultSyncPeriod,
		ProbePeriod:     DefaultProbePeriod,
		RateLimit:       DefaultRateLimit,
		QueryTimeout:    DefaultQueryTimeout,
	}
}

func (o *Options) Parse(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
	if o.Network == "" && len(o.Endpoints) > 0 {
		o.Network = o.Endpoints[0].Name
	}
}

func WithContext(ctx context.Context) Option {
	return func(o *Options) { o.Context = ctx }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithNats enables publishing. A nil connection disables it.
func WithNats(conn *nats.Conn) Option {
	return func(o *Options) { o.Nats = conn }
}

func WithRepository(repo repository.Repository) Option {
	return func(o *Options) { o.Repository = repo }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *Options) { o.Registerer = reg }
}

func WithMetricsURL(url string) Option {
	return func(o *Options) { o.MetricsURL = url }
}

func WithTelemetryPeriod(d time.Duration) Option {
	return func(o *Options) { o.TelemetryPeriod = d }
}

func WithSyncPeriod(d time.Duration) Option {
	return func(o *Options) { o.SyncPeriod = d }
}

func WithProbePeriod(d time.Duration) Option {
	return func(o *Options) { o.ProbePeriod = d }
}

func WithEndpoints(endpoints ...Endpoint) Option {
	return func(o *Options) { o.Endpoints = append(o.Endpoints, endpoints...) }
}

// WithNetwork selects the active network. Defaults to the first endpoint.
func WithNetwork(name string) Option {
	return func(o *Options) { o.Network = name }
}

func WithWallet(address string) Option {
	return func(o *Options) { o.Wallet = asset.Normalize(address) }
}

// WithAssets sets the asset addresses queued for refresh on start. Duplicates are removed.
func WithAssets(addresses []string) Option {
	set := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		if address = asset.Normalize(address); address != "" {
			set[address] = struct{}{}
		}
	}
	addresses = maps.Keys(set)
	slices.Sort(addresses)

	return func(o *Options) { o.Assets = addresses }
}

// WithTrackPairAssets queues every asset of newly discovered pairs for refresh.
func WithTrackPairAssets(track bool) Option {
	return func(o *Options) { o.TrackPairAssets = track }
}

// WithRateLimit limits queries per second sent to each network.
func WithRateLimit(limit rate.Limit) Option {
	return func(o *Options) { o.RateLimit = limit }
}

func WithQueryTimeout(d time.Duration) Option {
	return func(o *Options) { o.QueryTimeout = d }
}
