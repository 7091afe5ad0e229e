package directory

import (
	"context"

	"github.com/Synternet/terraswap-core/pkg/types"
)

type Directory interface {
	// FetchNextPage requests the next page of pairs after the last indexed pair.
	// It is a no-op while offline or while another page of the same network is in flight.
	FetchNextPage(ctx context.Context, network string) (added int, fetched bool)

	// Sync keeps fetching pages until a page adds no new pairs
	Sync(ctx context.Context, network string) int

	// Pairs returns indexed pairs in discovery order
	Pairs(network string) []types.Pair

	// PairsByAsset returns all pairs containing the asset
	PairsByAsset(network, address string) []types.Pair

	// FindPair returns the pair holding both assets. Identical assets never match.
	FindPair(network, a, b string) (types.Pair, bool)

	// AssetAddresses returns distinct assets of all pairs in first-seen order
	AssetAddresses(network string) []types.AssetRef

	// GetStatus used for telemetry and will return a map of status variables
	GetStatus() map[string]any
}
