package repository

import (
	"time"

	IBCTypes "github.com/cosmos/ibc-go/v7/modules/apps/transfer/types"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/internal/network"
	"github.com/Synternet/terraswap-core/pkg/types"
)

func (r *Repository) IBCDenom(net, ibc string) (IBCTypes.DenomTrace, bool) {
	var denom IBCDenom
	result := r.dbCon.Model(&IBCDenom{}).Limit(1).Find(&denom, "network = ? AND ibc = ?", network.Normalize(net), ibc)
	if result.Error != nil {
		r.logger.Error("Error fetching IBC Denom from DB", "err", result.Error)
	}
	if result.RowsAffected == 0 {
		return IBCTypes.DenomTrace{}, false
	}

	return IBCTypes.DenomTrace{
		Path:      denom.Path,
		BaseDenom: denom.BaseDenom,
	}, true
}

func (r *Repository) IBCDenomAll(net string) []IBCTypes.DenomTrace {
	var denoms []IBCDenom
	result := r.dbCon.Model(&IBCDenom{}).Find(&denoms, "network = ?", network.Normalize(net))
	if result.Error != nil {
		r.logger.Error("Error fetching all IBC Denoms from DB", "err", result.Error)
		return nil
	}

	traces := make([]IBCTypes.DenomTrace, len(denoms))
	for i, d := range denoms {
		traces[i] = IBCTypes.DenomTrace{
			Path:      d.Path,
			BaseDenom: d.BaseDenom,
		}
	}
	return traces
}

// Pairs will return pairs of a network ordered as they were discovered
func (r *Repository) Pairs(net string) ([]types.Pair, error) {
	var rows []Pair
	result := r.dbCon.Model(&Pair{}).Order("seq ASC").Find(&rows, "network = ?", network.Normalize(net))
	if result.Error != nil {
		r.logger.Error("Error fetching Pairs from DB", "network", net, "err", result.Error)
		return nil, result.Error
	}

	ret := make([]types.Pair, len(rows))
	for i, p := range rows {
		assets := [2]types.AssetRef{
			{Address: p.Asset1, IsNative: p.Asset1Native},
			{Address: p.Asset2, IsNative: p.Asset2Native},
		}
		ret[i] = types.Pair{
			ContractAddress: p.ContractAddr,
			AssetInfos:      [2]types.AssetInfo{asset.Info(assets[0]), asset.Info(assets[1])},
			Assets:          assets,
			LiquidityToken:  p.LiquidityToken,
			AssetDecimals:   [2]int{p.Decimals1, p.Decimals2},
		}
	}
	return ret, nil
}

func (r *Repository) Assets(net string) ([]types.CachedAsset, error) {
	var rows []Asset
	result := r.dbCon.Model(&Asset{}).Order("created_at ASC").Find(&rows, "network = ?", network.Normalize(net))
	if result.Error != nil {
		r.logger.Error("Error fetching Assets from DB", "network", net, "err", result.Error)
		return nil, result.Error
	}

	ret := make([]types.CachedAsset, len(rows))
	for i, a := range rows {
		ret[i] = types.CachedAsset{
			Address:     a.Address,
			IsNative:    a.IsNative,
			Balance:     a.Balance,
			Name:        a.Name,
			Symbol:      a.Symbol,
			Decimals:    a.Decimals,
			TotalSupply: a.TotalSupply,
			IBCPath:     a.IBCPath,
		}
		if a.RefreshedAt != 0 {
			ret[i].UpdatedAt = time.Unix(0, a.RefreshedAt)
		}
	}
	return ret, nil
}
