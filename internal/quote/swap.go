package quote

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/pkg/types"
)

type PairFinder interface {
	FindPair(network, a, b string) (types.Pair, bool)
}

type PoolQuerier interface {
	Pool(ctx context.Context, network, pairAddress string) (types.PoolState, error)
}

// Simulator runs the pair contract's own swap simulation.
type Simulator interface {
	Simulate(ctx context.Context, network, pairAddress string, offer types.AssetInfo, amount string) (types.Simulation, error)
	ReverseSimulate(ctx context.Context, network, pairAddress string, ask types.AssetInfo, amount string) (types.ReverseSimulation, error)
}

type SwapRequest struct {
	Network    string `json:"network"`
	OfferAsset string `json:"offer_asset"`
	AskAsset   string `json:"ask_asset"`
	// Amount is in base units: the offer amount, or the ask amount when Reverse is set.
	Amount  string `json:"amount"`
	Reverse bool   `json:"reverse"`
}

type SwapQuote struct {
	Pair             types.Pair  `json:"pair"`
	Reverse          bool        `json:"reverse"`
	Amount           sdkmath.Int `json:"amount"`
	EstimatedAmount  sdkmath.Int `json:"estimated_amount"`
	CommissionAmount sdkmath.Int `json:"commission_amount"`
	SpreadAmount     sdkmath.Int `json:"spread_amount"`
}

type SwapEngine struct {
	pairs     PairFinder
	simulator Simulator
}

func NewSwapEngine(pairs PairFinder, simulator Simulator) *SwapEngine {
	return &SwapEngine{pairs: pairs, simulator: simulator}
}

// Quote validates the request, asks the pair contract for a simulation and
// normalizes the result. Forward quotes estimate the ask amount received,
// reverse quotes estimate the offer amount required.
func (e *SwapEngine) Quote(ctx context.Context, req SwapRequest) (SwapQuote, error) {
	offer, ask := asset.Classify(req.OfferAsset), asset.Classify(req.AskAsset)
	if offer.Address == "" || ask.Address == "" {
		return SwapQuote{}, fmt.Errorf("%w: missing asset", ErrSimulationUnavailable)
	}
	if asset.Equal(offer, ask) {
		return SwapQuote{}, fmt.Errorf("%w: identical assets %s", ErrSimulationUnavailable, offer.Address)
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return SwapQuote{}, err
	}
	pair, ok := e.pairs.FindPair(req.Network, offer.Address, ask.Address)
	if !ok {
		return SwapQuote{}, fmt.Errorf("%w: no pair for %s and %s", ErrSimulationUnavailable, offer.Address, ask.Address)
	}

	ret := SwapQuote{
		Pair:    pair,
		Reverse: req.Reverse,
		Amount:  amount,
	}

	var estimated, commission, spread string
	if req.Reverse {
		sim, err := e.simulator.ReverseSimulate(ctx, req.Network, pair.ContractAddress, assetInfo(pair, ask), amount.String())
		if err != nil {
			return SwapQuote{}, fetchError("reverse simulation "+pair.ContractAddress, err)
		}
		estimated, commission, spread = sim.OfferAmount, sim.CommissionAmount, sim.SpreadAmount
	} else {
		sim, err := e.simulator.Simulate(ctx, req.Network, pair.ContractAddress, assetInfo(pair, offer), amount.String())
		if err != nil {
			return SwapQuote{}, fetchError("simulation "+pair.ContractAddress, err)
		}
		estimated, commission, spread = sim.ReturnAmount, sim.CommissionAmount, sim.SpreadAmount
	}

	if ret.EstimatedAmount, err = parseReserve(estimated); err != nil {
		return SwapQuote{}, err
	}
	if ret.CommissionAmount, err = parseReserve(commission); err != nil {
		return SwapQuote{}, err
	}
	if ret.SpreadAmount, err = parseReserve(spread); err != nil {
		return SwapQuote{}, err
	}
	return ret, nil
}

// assetInfo prefers the pair's own descriptor so the payload matches what the contract stores.
func assetInfo(pair types.Pair, ref types.AssetRef) types.AssetInfo {
	if idx := pair.Index(ref.Address); idx >= 0 {
		return pair.AssetInfos[idx]
	}
	return asset.Info(ref)
}

// NewSwapStream debounces quote requests, committing only the latest one.
func (e *SwapEngine) NewSwapStream(ctx context.Context, opts ...StreamOption) *Stream[SwapRequest, SwapQuote] {
	return NewStream(ctx, e.Quote, opts...)
}
