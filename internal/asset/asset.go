package asset

import (
	"strings"

	"github.com/cosmos/cosmos-sdk/types/bech32"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/Synternet/terraswap-core/pkg/types"
)

const IBCPrefix = "ibc/"

// Normalize trims the address and lowercases bech32 contract addresses.
// Native denoms are case sensitive (ibc/<HASH>) and are left as is.
func Normalize(address string) string {
	address = strings.TrimSpace(address)
	if isContract(address) {
		return strings.ToLower(address)
	}
	return address
}

func isContract(address string) bool {
	hrp, data, err := bech32.DecodeAndConvert(address)
	if err != nil || hrp == "" {
		return false
	}
	// 20 byte accounts and 32 byte CosmWasm contract addresses.
	return len(data) == 20 || len(data) == 32
}

// Classify decides whether the address is a bank denom or a contract token.
func Classify(address string) types.AssetRef {
	address = Normalize(address)
	return types.AssetRef{
		Address:  address,
		IsNative: !isContract(address),
	}
}

func IsIBCDenom(address string) bool {
	return strings.HasPrefix(address, IBCPrefix) && len(address) > len(IBCPrefix)
}

// ValidNative reports whether the address is an acceptable bank denom.
func ValidNative(address string) bool {
	return sdk.ValidateDenom(address) == nil
}

func Equal(a, b types.AssetRef) bool {
	return Normalize(a.Address) == Normalize(b.Address)
}

// Info returns the wire descriptor for the asset.
func Info(ref types.AssetRef) types.AssetInfo {
	if ref.IsNative {
		return types.NativeAsset(ref.Address)
	}
	return types.TokenAsset(ref.Address)
}

// InfoOf classifies the address and returns its wire descriptor.
func InfoOf(address string) types.AssetInfo {
	return Info(Classify(address))
}

func Ref(info types.AssetInfo) (types.AssetRef, error) {
	if err := info.Validate(); err != nil {
		return types.AssetRef{}, err
	}
	switch info.Kind() {
	case types.KindNative:
		return types.AssetRef{Address: Normalize(info.NativeToken.Denom), IsNative: true}, nil
	case types.KindToken:
		return types.AssetRef{Address: Normalize(info.Token.ContractAddr), IsNative: false}, nil
	}
	return types.AssetRef{}, types.ErrMalformedAssetInfo
}

// PairKey is an order independent lookup key for two assets.
func PairKey(a, b string) string {
	a, b = Normalize(a), Normalize(b)
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// PairFromInfo converts a factory listing entry into a directory pair.
func PairFromInfo(info types.PairInfo) (types.Pair, error) {
	var assets [2]types.AssetRef
	for i := range info.AssetInfos {
		ref, err := Ref(info.AssetInfos[i])
		if err != nil {
			return types.Pair{}, err
		}
		assets[i] = ref
	}
	return types.Pair{
		ContractAddress: Normalize(info.ContractAddr),
		AssetInfos:      info.AssetInfos,
		Assets:          assets,
		LiquidityToken:  Normalize(info.LiquidityToken),
		AssetDecimals:   info.AssetDecimals,
	}, nil
}
