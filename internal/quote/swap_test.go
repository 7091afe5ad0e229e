package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/pkg/types"
)

const (
	pairA  = "terra1hctfgkx74rkksr358p7fgckn0y75cnng4kfhskzkamkhxwnhdl6s65vd6w"
	tokenX = "terra16jhggnqcn30n3hwhuc8wekasjyf2jy7fnuhl34kuzm6zqk2zakgq5hvaxw"
	tokenY = "terra1h39ks339me3q9dqvqn9086lwy2ysatunj40vh9wlk87lggqpwueqk0fapf"
)

type simCall struct {
	reverse bool
	info    types.AssetInfo
	amount  string
}

// fakeChain serves a single luna/X pair.
type fakeChain struct {
	mu    sync.Mutex
	pools map[string]types.PoolState
	calls []simCall
	err   error
	sim   types.Simulation
	rsim  types.ReverseSimulation
	// gate, when set, blocks simulations until a value is received.
	gate chan struct{}
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		pools: make(map[string]types.PoolState),
		sim:   types.Simulation{ReturnAmount: "39500", SpreadAmount: "300", CommissionAmount: "120"},
		rsim:  types.ReverseSimulation{OfferAmount: "10150", SpreadAmount: "50", CommissionAmount: "30"},
	}
}

func (c *fakeChain) FindPair(net, a, b string) (types.Pair, bool) {
	if asset.PairKey(a, b) != asset.PairKey("uluna", tokenX) || asset.Normalize(a) == asset.Normalize(b) {
		return types.Pair{}, false
	}
	return types.Pair{
		ContractAddress: pairA,
		AssetInfos:      [2]types.AssetInfo{types.NativeAsset("uluna"), types.TokenAsset(tokenX)},
		Assets:          [2]types.AssetRef{{Address: "uluna", IsNative: true}, {Address: tokenX}},
		AssetDecimals:   [2]int{6, 6},
	}, true
}

func (c *fakeChain) Pool(ctx context.Context, net, pairAddress string) (types.PoolState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return types.PoolState{}, c.err
	}
	pool, ok := c.pools[pairAddress]
	if !ok {
		return types.PoolState{}, errors.New("not found")
	}
	return pool, nil
}

func (c *fakeChain) record(call simCall) error {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	gate := c.gate
	err := c.err
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (c *fakeChain) Simulate(ctx context.Context, net, pairAddress string, offer types.AssetInfo, amount string) (types.Simulation, error) {
	if err := c.record(simCall{info: offer, amount: amount}); err != nil {
		return types.Simulation{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ret := c.sim
	if amount != "10000" {
		ret.ReturnAmount = amount
	}
	return ret, nil
}

func (c *fakeChain) ReverseSimulate(ctx context.Context, net, pairAddress string, ask types.AssetInfo, amount string) (types.ReverseSimulation, error) {
	if err := c.record(simCall{reverse: true, info: ask, amount: amount}); err != nil {
		return types.ReverseSimulation{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rsim, nil
}

func (c *fakeChain) Calls() []simCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]simCall(nil), c.calls...)
}

func TestSwapEngine_Forward(t *testing.T) {
	chain := newFakeChain()
	engine := NewSwapEngine(chain, chain)

	got, err := engine.Quote(context.Background(), SwapRequest{Network: "mainnet", OfferAsset: "uluna", AskAsset: tokenX, Amount: "10000"})
	require.NoError(t, err)
	require.Equal(t, "39500", got.EstimatedAmount.String())
	require.Equal(t, "120", got.CommissionAmount.String())
	require.Equal(t, "300", got.SpreadAmount.String())
	require.Equal(t, pairA, got.Pair.ContractAddress)

	calls := chain.Calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].info.NativeToken)
	require.Nil(t, calls[0].info.Token)
	require.Equal(t, "uluna", calls[0].info.NativeToken.Denom)
}

func TestSwapEngine_Reverse(t *testing.T) {
	chain := newFakeChain()
	engine := NewSwapEngine(chain, chain)

	got, err := engine.Quote(context.Background(), SwapRequest{Network: "mainnet", OfferAsset: "uluna", AskAsset: tokenX, Amount: "40000", Reverse: true})
	require.NoError(t, err)
	require.Equal(t, "10150", got.EstimatedAmount.String())
	require.True(t, got.Reverse)

	calls := chain.Calls()
	require.Len(t, calls, 1)
	require.True(t, calls[0].reverse)
	require.NotNil(t, calls[0].info.Token)
	require.Equal(t, tokenX, calls[0].info.Token.ContractAddr)
	require.Equal(t, "40000", calls[0].amount)
}

func TestSwapEngine_Unavailable(t *testing.T) {
	chain := newFakeChain()
	engine := NewSwapEngine(chain, chain)

	tests := []struct {
		name string
		req  SwapRequest
	}{
		{"identical assets", SwapRequest{OfferAsset: "uluna", AskAsset: "uluna", Amount: "10"}},
		{"identical tokens", SwapRequest{OfferAsset: tokenX, AskAsset: tokenX, Amount: "10"}},
		{"not a number", SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "abc"}},
		{"empty amount", SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: ""}},
		{"zero amount", SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "0"}},
		{"negative amount", SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "-1"}},
		{"fractional amount", SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "12.9"}},
		{"amount above 256 bits", SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "1" + strings.Repeat("0", 80)}},
		{"huge exponent", SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "1e100000000"}},
		{"reverse amount above 256 bits", SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "1e100", Reverse: true}},
		{"no pair", SwapRequest{OfferAsset: "uluna", AskAsset: tokenY, Amount: "10"}},
		{"missing asset", SwapRequest{OfferAsset: "", AskAsset: tokenY, Amount: "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Quote(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrSimulationUnavailable)
		})
	}
	require.Empty(t, chain.Calls())
}

func TestSwapEngine_Responses(t *testing.T) {
	chain := newFakeChain()
	engine := NewSwapEngine(chain, chain)
	req := SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "10000"}

	chain.sim = types.Simulation{ReturnAmount: "0", SpreadAmount: "0", CommissionAmount: "0"}
	got, err := engine.Quote(context.Background(), req)
	require.NoError(t, err)
	require.True(t, got.EstimatedAmount.IsZero())

	chain.sim = types.Simulation{ReturnAmount: "NaN", SpreadAmount: "0", CommissionAmount: "0"}
	_, err = engine.Quote(context.Background(), req)
	require.ErrorIs(t, err, ErrSimulationUnavailable)

	chain.err = errors.New("connection refused")
	_, err = engine.Quote(context.Background(), req)
	require.ErrorIs(t, err, ErrFetchFailed)

	// A contract rejection reported by the simulator is not a transport failure.
	chain.err = fmt.Errorf("%w: pool is empty", ErrSimulationUnavailable)
	_, err = engine.Quote(context.Background(), req)
	require.ErrorIs(t, err, ErrSimulationUnavailable)
	require.NotErrorIs(t, err, ErrFetchFailed)
}

func TestSwapStream_TrailingEdge(t *testing.T) {
	chain := newFakeChain()
	engine := NewSwapEngine(chain, chain)
	stream := engine.NewSwapStream(context.Background(), WithDebounce(time.Millisecond*50))
	defer stream.Close()

	results := make(chan Result[SwapQuote], 10)
	stream.Subscribe(func(r Result[SwapQuote]) { results <- r })

	var last uint64
	for _, amount := range []string{"1", "12", "123", "1234"} {
		last = stream.Submit(SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: amount})
	}

	select {
	case r := <-results:
		require.NoError(t, r.Err)
		require.Equal(t, last, r.Generation)
		require.Equal(t, "1234", r.Value.EstimatedAmount.String())
	case <-time.After(time.Second * 5):
		t.Fatal("no result committed")
	}

	calls := chain.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "1234", calls[0].amount)
}

func TestSwapStream_DiscardsSuperseded(t *testing.T) {
	chain := newFakeChain()
	chain.gate = make(chan struct{})
	engine := NewSwapEngine(chain, chain)
	stream := engine.NewSwapStream(context.Background(), WithDebounce(time.Millisecond))
	defer stream.Close()

	results := make(chan Result[SwapQuote], 10)
	stream.Subscribe(func(r Result[SwapQuote]) { results <- r })

	stream.Submit(SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "111"})
	require.Eventually(t, func() bool { return len(chain.Calls()) == 1 }, time.Second*5, time.Millisecond)

	// A newer input arrives while the first simulation is in flight.
	second := stream.Submit(SwapRequest{OfferAsset: "uluna", AskAsset: tokenX, Amount: "222"})
	require.Eventually(t, func() bool { return len(chain.Calls()) == 2 }, time.Second*5, time.Millisecond)

	// Release both; only the newer one may commit.
	chain.gate <- struct{}{}
	chain.gate <- struct{}{}

	r := <-results
	require.Equal(t, second, r.Generation)
	require.Equal(t, "222", r.Value.EstimatedAmount.String())

	require.Eventually(t, func() bool { return stream.Discarded() == 1 }, time.Second*5, time.Millisecond)
	select {
	case r := <-results:
		t.Fatalf("superseded result committed: %+v", r)
	default:
	}

	latest, ok := stream.Latest()
	require.True(t, ok)
	require.Equal(t, second, latest.Generation)
}

func TestSwapStream_UnavailableIsAResult(t *testing.T) {
	chain := newFakeChain()
	engine := NewSwapEngine(chain, chain)
	stream := engine.NewSwapStream(context.Background(), WithDebounce(time.Millisecond))
	defer stream.Close()

	results := make(chan Result[SwapQuote], 1)
	stream.Subscribe(func(r Result[SwapQuote]) { results <- r })
	stream.Submit(SwapRequest{OfferAsset: tokenX, AskAsset: tokenX, Amount: "abc"})

	r := <-results
	require.ErrorIs(t, r.Err, ErrSimulationUnavailable)
}
