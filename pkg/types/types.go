package types

import (
	"errors"
	"fmt"
	"time"
)

var ErrMalformedAssetInfo = errors.New("asset info must have exactly one of native_token or token")

type AssetKind int

const (
	KindNative AssetKind = iota + 1
	KindToken
)

type NativeToken struct {
	Denom string `json:"denom"`
}

type Token struct {
	ContractAddr string `json:"contract_addr"`
}

// AssetInfo is the on-chain asset descriptor. Exactly one of NativeToken and Token is set.
type AssetInfo struct {
	NativeToken *NativeToken `json:"native_token,omitempty"`
	Token       *Token       `json:"token,omitempty"`
}

func NativeAsset(denom string) AssetInfo {
	return AssetInfo{NativeToken: &NativeToken{Denom: denom}}
}

func TokenAsset(contract string) AssetInfo {
	return AssetInfo{Token: &Token{ContractAddr: contract}}
}

func (a AssetInfo) Validate() error {
	if (a.NativeToken == nil) == (a.Token == nil) {
		return ErrMalformedAssetInfo
	}
	return nil
}

// Kind panics on a malformed AssetInfo; decode paths call Validate first.
func (a AssetInfo) Kind() AssetKind {
	switch {
	case a.NativeToken != nil && a.Token == nil:
		return KindNative
	case a.Token != nil && a.NativeToken == nil:
		return KindToken
	}
	panic(ErrMalformedAssetInfo)
}

func (a AssetInfo) Address() string {
	switch a.Kind() {
	case KindNative:
		return a.NativeToken.Denom
	case KindToken:
		return a.Token.ContractAddr
	}
	return ""
}

func (a AssetInfo) String() string {
	if a.Validate() != nil {
		return "<invalid>"
	}
	return a.Address()
}

type AssetRef struct {
	Address  string `json:"address"`
	IsNative bool   `json:"is_native"`
}

// PairInfo is a single entry of the factory `pairs` response.
type PairInfo struct {
	AssetInfos     [2]AssetInfo `json:"asset_infos"`
	ContractAddr   string       `json:"contract_addr"`
	LiquidityToken string       `json:"liquidity_token"`
	AssetDecimals  [2]int       `json:"asset_decimals"`
}

type Pair struct {
	ContractAddress string       `json:"contract_address"`
	AssetInfos      [2]AssetInfo `json:"asset_infos"`
	Assets          [2]AssetRef  `json:"assets"`
	LiquidityToken  string       `json:"liquidity_token"`
	AssetDecimals   [2]int       `json:"asset_decimals"`
}

// Has reports whether the pair holds the asset with the given normalized address.
func (p Pair) Has(address string) bool {
	return p.Assets[0].Address == address || p.Assets[1].Address == address
}

// Index returns the position of the asset within the pair or -1.
func (p Pair) Index(address string) int {
	for i, a := range p.Assets {
		if a.Address == address {
			return i
		}
	}
	return -1
}

type PoolAsset struct {
	Info   AssetInfo `json:"info"`
	Amount string    `json:"amount"`
}

// PoolState is the `pool` query response of a pair contract.
type PoolState struct {
	PairAddress string       `json:"-"`
	Assets      [2]PoolAsset `json:"assets"`
	TotalShare  string       `json:"total_share"`
}

type Simulation struct {
	ReturnAmount     string `json:"return_amount"`
	SpreadAmount     string `json:"spread_amount"`
	CommissionAmount string `json:"commission_amount"`
}

type ReverseSimulation struct {
	OfferAmount      string `json:"offer_amount"`
	SpreadAmount     string `json:"spread_amount"`
	CommissionAmount string `json:"commission_amount"`
}

type TokenMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	TotalSupply string `json:"total_supply"`
}

type CachedAsset struct {
	Address     string    `json:"address"`
	IsNative    bool      `json:"is_native"`
	Balance     string    `json:"balance"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Decimals    int       `json:"decimals"`
	TotalSupply string    `json:"total_supply"`
	IBCPath     string    `json:"ibc_path,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a CachedAsset) String() string {
	return fmt.Sprintf("%s(%s balance=%s)", a.Symbol, a.Address, a.Balance)
}
