package repository

import (
	IBCTypes "github.com/cosmos/ibc-go/v7/modules/apps/transfer/types"

	"github.com/Synternet/terraswap-core/pkg/types"
)

type Repository interface {
	// IBCDenom will return a denom mapped from IBC denom on a network
	IBCDenom(network, ibcDenom string) (IBCTypes.DenomTrace, bool)
	// IBCDenomAll will return all ibc trace denoms of a network
	IBCDenomAll(network string) []IBCTypes.DenomTrace
	// Pairs will return the pair index of a network in discovery order
	Pairs(network string) ([]types.Pair, error)
	// Assets will return cached asset snapshots of a network
	Assets(network string) ([]types.CachedAsset, error)

	SaveIBCDenom(network string, trace IBCTypes.DenomTrace) error
	// SavePairs appends pairs after the ones already stored for the network.
	// Pairs already present are left untouched.
	SavePairs(network string, pairs []types.Pair) error
	SaveAsset(network string, asset types.CachedAsset) error
	DeleteAssets(network string) error
}
