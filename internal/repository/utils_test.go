package repository_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	IBCTypes "github.com/cosmos/ibc-go/v7/modules/apps/transfer/types"
	_ "github.com/lib/pq"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/internal/repository"
	"github.com/Synternet/terraswap-core/internal/repository/sqlite"
	"github.com/Synternet/terraswap-core/pkg/types"
)

const (
	pairA  = "terra1hctfgkx74rkksr358p7fgckn0y75cnng4kfhskzkamkhxwnhdl6s65vd6w"
	pairB  = "terra1p0dzs8wyjr3dlg4k6hr7n840gh2kcg0gleeq246cc0pv0hnrchhskgnavd"
	pairC  = "terra1jxqgzh7x0a38alkgm5n4kts46jw24h4dwmg2c75yfycfq3rvh6ns92n2a5"
	tokenX = "terra16jhggnqcn30n3hwhuc8wekasjyf2jy7fnuhl34kuzm6zqk2zakgq5hvaxw"
	lpA    = "terra1fd0nuq9wvc86eg2zcqz4qvj78m0nq4c36r5myux6lcd8q0n25xdqcapxxv"
	lpB    = "terra1l3rrcd0afzv3v2lwvz5terltk53rrqzd3jvu44lcmg2dsw3taeuqvx4nkq"
	lpC    = "terra193kdg4z454kgvdeag7kx8l5fnptcrs6naaa0wmsakl9x2tkwsx8qxjfv7c"

	TimestampBase = 1706716320
)

// makeDB opens a private in-memory database per test.
func makeDB(t *testing.T) *repository.Repository {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sqlite.New(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), false)
	if err != nil {
		t.Fatal(err)
	}
	repo, err := repository.New(db, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func makePair(contract, lp string, a, b string) types.Pair {
	assets := [2]types.AssetRef{asset.Classify(a), asset.Classify(b)}
	return types.Pair{
		ContractAddress: contract,
		AssetInfos:      [2]types.AssetInfo{asset.Info(assets[0]), asset.Info(assets[1])},
		Assets:          assets,
		LiquidityToken:  lp,
		AssetDecimals:   [2]int{6, 6},
	}
}

func addIBCDenoms(t *testing.T, repo *repository.Repository) {
	for _, base := range []string{"A", "B", "C"} {
		err := repo.SaveIBCDenom("mainnet", IBCTypes.DenomTrace{Path: "transfer/channel-229", BaseDenom: base})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func addPairs(t *testing.T, repo *repository.Repository) {
	err := repo.SavePairs("mainnet", []types.Pair{
		makePair(pairA, lpA, "uluna", tokenX),
		makePair(pairB, lpB, "uluna", "uusd"),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func addAssets(t *testing.T, repo *repository.Repository) {
	err := repo.SaveAsset("mainnet", types.CachedAsset{
		Address:   "uluna",
		IsNative:  true,
		Balance:   "100",
		Symbol:    "LUNA",
		Decimals:  6,
		UpdatedAt: time.Unix(TimestampBase, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
}
