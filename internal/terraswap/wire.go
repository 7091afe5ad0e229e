package terraswap

import "github.com/Synternet/terraswap-core/pkg/types"

// Smart query messages understood by the factory, pair and cw20 contracts.

type pairsQuery struct {
	Pairs pairsArgs `json:"pairs"`
}

type pairsArgs struct {
	Limit      int                 `json:"limit,omitempty"`
	StartAfter *[2]types.AssetInfo `json:"start_after,omitempty"`
}

type pairsResponse struct {
	Pairs []types.PairInfo `json:"pairs"`
}

type poolQuery struct {
	Pool struct{} `json:"pool"`
}

type assetAmount struct {
	Info   types.AssetInfo `json:"info"`
	Amount string          `json:"amount"`
}

type simulationQuery struct {
	Simulation struct {
		OfferAsset assetAmount `json:"offer_asset"`
	} `json:"simulation"`
}

type reverseSimulationQuery struct {
	ReverseSimulation struct {
		AskAsset assetAmount `json:"ask_asset"`
	} `json:"reverse_simulation"`
}

type balanceQuery struct {
	Balance struct {
		Address string `json:"address"`
	} `json:"balance"`
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

type tokenInfoQuery struct {
	TokenInfo struct{} `json:"token_info"`
}

func newPairsQuery(limit int, startAfter *[2]types.AssetInfo) pairsQuery {
	return pairsQuery{Pairs: pairsArgs{Limit: limit, StartAfter: startAfter}}
}

func newSimulationQuery(offer types.AssetInfo, amount string) simulationQuery {
	var q simulationQuery
	q.Simulation.OfferAsset = assetAmount{Info: offer, Amount: amount}
	return q
}

func newReverseSimulationQuery(ask types.AssetInfo, amount string) reverseSimulationQuery {
	var q reverseSimulationQuery
	q.ReverseSimulation.AskAsset = assetAmount{Info: ask, Amount: amount}
	return q
}

func newBalanceQuery(address string) balanceQuery {
	var q balanceQuery
	q.Balance.Address = address
	return q
}

// PairsMessage is published for every page of newly discovered pairs.
type PairsMessage struct {
	Nonce   string       `json:"nonce"`
	Network string       `json:"network"`
	Pairs   []types.Pair `json:"pairs"`
}
