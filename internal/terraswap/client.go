package terraswap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	IBCTypes "github.com/cosmos/ibc-go/v7/modules/apps/transfer/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/time/rate"

	"github.com/Synternet/terraswap-core/internal/assetcache"
	"github.com/Synternet/terraswap-core/internal/directory"
	"github.com/Synternet/terraswap-core/internal/network"
	"github.com/Synternet/terraswap-core/internal/quote"
	"github.com/Synternet/terraswap-core/pkg/types"
)

var (
	_ directory.Lister       = (*Client)(nil)
	_ assetcache.Fetcher     = (*Client)(nil)
	_ assetcache.TraceSource = (*Client)(nil)
	_ quote.PoolQuerier      = (*Client)(nil)
	_ quote.Simulator        = (*Client)(nil)
)

// Client routes chain queries to the endpoint of the requested network.
type Client struct {
	logger   *slog.Logger
	wallet   string
	networks map[string]*rpc
}

func NewClient(logger *slog.Logger, wallet string, limit rate.Limit, timeout time.Duration, endpoints ...Endpoint) (*Client, error) {
	ret := &Client{
		logger:   logger,
		wallet:   wallet,
		networks: make(map[string]*rpc, len(endpoints)),
	}
	for _, endpoint := range endpoints {
		endpoint.Name = network.Normalize(endpoint.Name)
		if _, ok := ret.networks[endpoint.Name]; ok {
			ret.Close()
			return nil, fmt.Errorf("duplicate network %q", endpoint.Name)
		}
		r, err := newRpc(endpoint, logger, limit, timeout)
		if err != nil {
			ret.Close()
			return nil, err
		}
		ret.networks[endpoint.Name] = r
	}
	return ret, nil
}

func (c *Client) Close() error {
	var errArr []error
	for _, r := range c.networks {
		errArr = append(errArr, r.Close())
	}
	return errors.Join(errArr...)
}

// Networks lists configured network names in order.
func (c *Client) Networks() []string {
	names := maps.Keys(c.networks)
	slices.Sort(names)
	return names
}

func (c *Client) lookup(net string) (*rpc, error) {
	r, ok := c.networks[network.Normalize(net)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, net)
	}
	return r, nil
}

func (c *Client) ListPairs(ctx context.Context, net string, limit int, startAfter *[2]types.AssetInfo) ([]types.PairInfo, error) {
	r, err := c.lookup(net)
	if err != nil {
		return nil, err
	}
	if r.endpoint.Factory == "" {
		return nil, fmt.Errorf("no factory configured for %s", net)
	}
	var res pairsResponse
	if err := r.SmartQuery(ctx, r.endpoint.Factory, newPairsQuery(limit, startAfter), &res); err != nil {
		return nil, err
	}
	return res.Pairs, nil
}

// quoteError keeps transport failures apart from answers the engines cannot use.
func quoteError(err error) error {
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrContractRejected) {
		return fmt.Errorf("%w: %w", quote.ErrSimulationUnavailable, err)
	}
	return err
}

func (c *Client) Pool(ctx context.Context, net, pairAddress string) (types.PoolState, error) {
	r, err := c.lookup(net)
	if err != nil {
		return types.PoolState{}, err
	}
	var res types.PoolState
	if err := r.SmartQuery(ctx, pairAddress, poolQuery{}, &res); err != nil {
		return types.PoolState{}, quoteError(err)
	}
	res.PairAddress = pairAddress
	return res, nil
}

func (c *Client) Simulate(ctx context.Context, net, pairAddress string, offer types.AssetInfo, amount string) (types.Simulation, error) {
	r, err := c.lookup(net)
	if err != nil {
		return types.Simulation{}, err
	}
	var res types.Simulation
	if err := r.SmartQuery(ctx, pairAddress, newSimulationQuery(offer, amount), &res); err != nil {
		return types.Simulation{}, quoteError(err)
	}
	return res, nil
}

func (c *Client) ReverseSimulate(ctx context.Context, net, pairAddress string, ask types.AssetInfo, amount string) (types.ReverseSimulation, error) {
	r, err := c.lookup(net)
	if err != nil {
		return types.ReverseSimulation{}, err
	}
	var res types.ReverseSimulation
	if err := r.SmartQuery(ctx, pairAddress, newReverseSimulationQuery(ask, amount), &res); err != nil {
		return types.ReverseSimulation{}, quoteError(err)
	}
	return res, nil
}

// NativeBalance returns the wallet's bank balance, "0" without a wallet.
func (c *Client) NativeBalance(ctx context.Context, net, denom string) (string, error) {
	r, err := c.lookup(net)
	if err != nil {
		return "", err
	}
	if c.wallet == "" {
		return "0", nil
	}
	return r.Balance(ctx, c.wallet, denom)
}

// TokenBalance returns the wallet's cw20 balance, "0" without a wallet.
func (c *Client) TokenBalance(ctx context.Context, net, contract string) (string, error) {
	r, err := c.lookup(net)
	if err != nil {
		return "", err
	}
	if c.wallet == "" {
		return "0", nil
	}
	var res balanceResponse
	if err := r.SmartQuery(ctx, contract, newBalanceQuery(c.wallet), &res); err != nil {
		return "", err
	}
	return res.Balance, nil
}

func (c *Client) TokenMetadata(ctx context.Context, net, contract string) (types.TokenMetadata, error) {
	r, err := c.lookup(net)
	if err != nil {
		return types.TokenMetadata{}, err
	}
	var res types.TokenMetadata
	if err := r.SmartQuery(ctx, contract, tokenInfoQuery{}, &res); err != nil {
		return types.TokenMetadata{}, err
	}
	return res, nil
}

func (c *Client) DenomTraces(ctx context.Context, net string) ([]IBCTypes.DenomTrace, error) {
	r, err := c.lookup(net)
	if err != nil {
		return nil, err
	}
	return r.DenomTraces(ctx)
}

func (c *Client) Probe(ctx context.Context, net string) (ChainStatus, error) {
	r, err := c.lookup(net)
	if err != nil {
		return ChainStatus{}, err
	}
	return r.Probe(ctx)
}

func (c *Client) GetStatus() map[string]any {
	networks := make(map[string]any, len(c.networks))
	for name, r := range c.networks {
		networks[name] = r.getStatus()
	}
	return map[string]any{"rpc": networks}
}
