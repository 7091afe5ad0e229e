package repository

import (
	"fmt"

	IBCTypes "github.com/cosmos/ibc-go/v7/modules/apps/transfer/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Synternet/terraswap-core/internal/network"
	"github.com/Synternet/terraswap-core/pkg/types"
)

func (r *Repository) SaveIBCDenom(net string, ibc IBCTypes.DenomTrace) error {
	ibcDenom := IBCDenom{
		Network:   network.Normalize(net),
		IBC:       ibc.IBCDenom(),
		Path:      ibc.Path,
		BaseDenom: ibc.BaseDenom,
	}
	result := r.dbCon.Clauses(clause.OnConflict{DoNothing: true}).Model(&IBCDenom{}).Create(&ibcDenom)
	return result.Error
}

func (r *Repository) SavePairs(net string, pairs []types.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	net = network.Normalize(net)

	return r.dbCon.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Pair{}).Where("network = ?", net).Count(&count).Error; err != nil {
			return fmt.Errorf("failed counting pairs: %w", err)
		}

		rows := make([]Pair, len(pairs))
		for i, p := range pairs {
			rows[i] = Pair{
				Network:        net,
				ContractAddr:   p.ContractAddress,
				Seq:            uint64(count) + uint64(i),
				Asset1:         p.Assets[0].Address,
				Asset1Native:   p.Assets[0].IsNative,
				Asset2:         p.Assets[1].Address,
				Asset2Native:   p.Assets[1].IsNative,
				LiquidityToken: p.LiquidityToken,
				Decimals1:      p.AssetDecimals[0],
				Decimals2:      p.AssetDecimals[1],
			}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Model(&Pair{}).Create(&rows).Error
	})
}

func (r *Repository) SaveAsset(net string, asset types.CachedAsset) error {
	row := Asset{
		Network:     network.Normalize(net),
		Address:     asset.Address,
		IsNative:    asset.IsNative,
		Balance:     asset.Balance,
		Name:        asset.Name,
		Symbol:      asset.Symbol,
		Decimals:    asset.Decimals,
		TotalSupply: asset.TotalSupply,
		IBCPath:     asset.IBCPath,
	}
	if !asset.UpdatedAt.IsZero() {
		row.RefreshedAt = asset.UpdatedAt.UnixNano()
	}
	result := r.dbCon.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "network"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "balance", "name", "symbol", "decimals", "total_supply", "ibc_path", "refreshed_at"}),
	}).Model(&Asset{}).Create(&row)
	return result.Error
}

func (r *Repository) DeleteAssets(net string) error {
	return r.dbCon.Where("network = ?", network.Normalize(net)).Delete(&Asset{}).Error
}
