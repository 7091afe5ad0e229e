package quote

import (
	"context"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/pkg/decimalmath"
	"github.com/Synternet/terraswap-core/pkg/types"
)

// LockedLPSupply is the share the pair contract keeps locked out of the first
// provision. Callers offering pool creation subtract it from the minted share.
const LockedLPSupply = 1_000

// Reserves are pool amounts in base units ordered as the caller's assets.
type Reserves struct {
	Reserve1   sdkmath.Int
	Reserve2   sdkmath.Int
	TotalShare sdkmath.Int
}

type ProvideQuote struct {
	Share             sdkmath.Int     `json:"share"`
	Amount1           sdkmath.Int     `json:"amount1"`
	Amount2           sdkmath.Int     `json:"amount2"`
	PercentageOfShare decimal.Decimal `json:"percentage_of_share"`
	// NoExistingPool is set when there is no share to compare against.
	NoExistingPool bool `json:"no_existing_pool"`
	// Balanced is set when Amount2 was derived from Amount1 and the pool ratio,
	// replacing any amount2 the caller supplied.
	Balanced bool `json:"balanced"`
}

type WithdrawQuote struct {
	LPAmount sdkmath.Int `json:"lp_amount"`
	Amount1  sdkmath.Int `json:"amount1"`
	Amount2  sdkmath.Int `json:"amount2"`
}

// maxAmountDigits bounds the decimal exponent of an amount; 10^78 exceeds 2^256.
const maxAmountDigits = 78

// ParseAmount parses a positive integer base unit amount that fits in an Int.
func ParseAmount(value string) (sdkmath.Int, error) {
	d, err := decimalmath.Parse(value)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: %w", ErrSimulationUnavailable, err)
	}
	// Bound the exponent before Truncate or BigInt scale the coefficient.
	if exp := d.Exponent(); exp > maxAmountDigits || -int(exp) > len(value) {
		return sdkmath.Int{}, fmt.Errorf("%w: amount %q out of range", ErrSimulationUnavailable, value)
	}
	if !d.Equal(d.Truncate(0)) {
		return sdkmath.Int{}, fmt.Errorf("%w: amount %q is not a whole number of base units", ErrSimulationUnavailable, value)
	}
	if !d.IsPositive() {
		return sdkmath.Int{}, fmt.Errorf("%w: amount %q must be positive", ErrSimulationUnavailable, value)
	}
	v := d.BigInt()
	if v.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.Int{}, fmt.Errorf("%w: amount %q out of range", ErrSimulationUnavailable, value)
	}
	return sdkmath.NewIntFromBigInt(v), nil
}

func parseReserve(value string) (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(value)
	if !ok || amount.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: malformed pool amount %q", ErrSimulationUnavailable, value)
	}
	return amount, nil
}

// ReservesFor orders pool amounts as (asset1, asset2).
func ReservesFor(pool types.PoolState, asset1, asset2 string) (Reserves, error) {
	asset1, asset2 = asset.Normalize(asset1), asset.Normalize(asset2)

	var amounts [2]*sdkmath.Int
	for _, pa := range pool.Assets {
		ref, err := asset.Ref(pa.Info)
		if err != nil {
			return Reserves{}, fmt.Errorf("%w: %w", ErrSimulationUnavailable, err)
		}
		amount, err := parseReserve(pa.Amount)
		if err != nil {
			return Reserves{}, err
		}
		switch ref.Address {
		case asset1:
			amounts[0] = &amount
		case asset2:
			amounts[1] = &amount
		}
	}
	if amounts[0] == nil || amounts[1] == nil {
		return Reserves{}, fmt.Errorf("%w: pool %s does not hold %s and %s", ErrSimulationUnavailable, pool.PairAddress, asset1, asset2)
	}
	total, err := parseReserve(pool.TotalShare)
	if err != nil {
		return Reserves{}, err
	}
	return Reserves{Reserve1: *amounts[0], Reserve2: *amounts[1], TotalShare: total}, nil
}

// safeMul refuses products that would exceed the Int bit length instead of panicking.
func safeMul(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.BigInt().BitLen()+b.BigInt().BitLen() > sdkmath.MaxBitLen {
		return sdkmath.Int{}, fmt.Errorf("%w: %s * %s overflows", ErrSimulationUnavailable, a, b)
	}
	return a.Mul(b), nil
}

func intSqrt(v sdkmath.Int) sdkmath.Int {
	return sdkmath.NewIntFromBigInt(new(big.Int).Sqrt(v.BigInt()))
}

// ceilDiv returns ceil(a / b) for non-negative a and positive b.
func ceilDiv(a, b sdkmath.Int) sdkmath.Int {
	q := a.Quo(b)
	if !a.Mod(b).IsZero() {
		q = q.AddRaw(1)
	}
	return q
}

func percentage(share, total sdkmath.Int) decimal.Decimal {
	return decimalmath.Percentage(
		decimal.NewFromBigInt(share.BigInt(), 0),
		decimal.NewFromBigInt(total.BigInt(), 0),
	)
}

// ProvideBoth quotes a provision of both assets. Without an existing share the
// minted share is floor(sqrt(amount1*amount2)) and the provider owns the pool.
// With an existing pool the quote is balanced from amount1: amount2 is ignored
// and the returned quote has Balanced set.
func ProvideBoth(r Reserves, amount1, amount2 sdkmath.Int) (ProvideQuote, error) {
	if !amount1.IsPositive() || !amount2.IsPositive() {
		return ProvideQuote{}, fmt.Errorf("%w: amounts must be positive", ErrSimulationUnavailable)
	}
	if r.TotalShare.IsNil() || r.TotalShare.IsZero() {
		product, err := safeMul(amount1, amount2)
		if err != nil {
			return ProvideQuote{}, err
		}
		return ProvideQuote{
			Share:             intSqrt(product),
			Amount1:           amount1,
			Amount2:           amount2,
			PercentageOfShare: decimal.NewFromInt(100),
			NoExistingPool:    true,
		}, nil
	}
	return ProvideSingle(r, amount1)
}

// ProvideSingle quotes the share minted for amount1 and the counterpart amount
// required to keep the pool ratio. Both round up.
func ProvideSingle(r Reserves, amount1 sdkmath.Int) (ProvideQuote, error) {
	if !amount1.IsPositive() {
		return ProvideQuote{}, fmt.Errorf("%w: amount must be positive", ErrSimulationUnavailable)
	}
	if r.TotalShare.IsNil() || !r.TotalShare.IsPositive() {
		return ProvideQuote{NoExistingPool: true}, fmt.Errorf("%w: pool has no liquidity", ErrSimulationUnavailable)
	}
	if !r.Reserve1.IsPositive() || !r.Reserve2.IsPositive() {
		return ProvideQuote{}, fmt.Errorf("%w: zero reserve", ErrSimulationUnavailable)
	}

	minted, err := safeMul(amount1, r.TotalShare)
	if err != nil {
		return ProvideQuote{}, err
	}
	share := ceilDiv(minted, r.Reserve1)
	required, err := safeMul(share, r.Reserve2)
	if err != nil {
		return ProvideQuote{}, err
	}
	amount2 := ceilDiv(required, r.TotalShare)

	return ProvideQuote{
		Share:             share,
		Amount1:           amount1,
		Amount2:           amount2,
		PercentageOfShare: percentage(share, share.Add(r.TotalShare)),
		Balanced:          true,
	}, nil
}

// Withdraw quotes the assets returned for burning lpAmount. Both round down.
func Withdraw(r Reserves, lpAmount sdkmath.Int) (WithdrawQuote, error) {
	if !lpAmount.IsPositive() {
		return WithdrawQuote{}, fmt.Errorf("%w: amount must be positive", ErrSimulationUnavailable)
	}
	if r.TotalShare.IsNil() || !r.TotalShare.IsPositive() {
		return WithdrawQuote{}, fmt.Errorf("%w: pool has no liquidity", ErrSimulationUnavailable)
	}
	if lpAmount.GT(r.TotalShare) {
		return WithdrawQuote{}, fmt.Errorf("%w: %s exceeds total share %s", ErrSimulationUnavailable, lpAmount, r.TotalShare)
	}
	if !r.Reserve1.IsPositive() || !r.Reserve2.IsPositive() {
		return WithdrawQuote{}, fmt.Errorf("%w: zero reserve", ErrSimulationUnavailable)
	}

	out1, err := safeMul(lpAmount, r.Reserve1)
	if err != nil {
		return WithdrawQuote{}, err
	}
	out2, err := safeMul(lpAmount, r.Reserve2)
	if err != nil {
		return WithdrawQuote{}, err
	}

	return WithdrawQuote{
		LPAmount: lpAmount,
		Amount1:  out1.Quo(r.TotalShare),
		Amount2:  out2.Quo(r.TotalShare),
	}, nil
}

// LiquidityEngine resolves pairs and pool state for liquidity quotes.
type LiquidityEngine struct {
	pairs PairFinder
	pools PoolQuerier
}

func NewLiquidityEngine(pairs PairFinder, pools PoolQuerier) *LiquidityEngine {
	return &LiquidityEngine{pairs: pairs, pools: pools}
}

// reserves reports false without error when the two assets have no pair yet.
func (e *LiquidityEngine) reserves(ctx context.Context, net, asset1, asset2 string) (Reserves, bool, error) {
	if asset.Normalize(asset1) == asset.Normalize(asset2) {
		return Reserves{}, false, fmt.Errorf("%w: identical assets", ErrSimulationUnavailable)
	}
	pair, ok := e.pairs.FindPair(net, asset1, asset2)
	if !ok {
		return Reserves{}, false, nil
	}
	pool, err := e.pools.Pool(ctx, net, pair.ContractAddress)
	if err != nil {
		return Reserves{}, true, fetchError("pool "+pair.ContractAddress, err)
	}
	pool.PairAddress = pair.ContractAddress
	r, err := ReservesFor(pool, asset1, asset2)
	return r, true, err
}

// QuoteProvide quotes a provision. An empty amount2 requests auto-balancing
// from amount1; a missing pair is quoted as a first provision.
func (e *LiquidityEngine) QuoteProvide(ctx context.Context, net, asset1, asset2, amount1, amount2 string) (ProvideQuote, error) {
	a1, err := ParseAmount(amount1)
	if err != nil {
		return ProvideQuote{}, err
	}
	r, exists, err := e.reserves(ctx, net, asset1, asset2)
	if err != nil {
		return ProvideQuote{}, err
	}

	if amount2 == "" {
		if !exists {
			return ProvideQuote{NoExistingPool: true}, fmt.Errorf("%w: no pair for %s and %s", ErrSimulationUnavailable, asset1, asset2)
		}
		return ProvideSingle(r, a1)
	}

	a2, err := ParseAmount(amount2)
	if err != nil {
		return ProvideQuote{}, err
	}
	return ProvideBoth(r, a1, a2)
}

func (e *LiquidityEngine) QuoteWithdraw(ctx context.Context, net, asset1, asset2, lpAmount string) (WithdrawQuote, error) {
	lp, err := ParseAmount(lpAmount)
	if err != nil {
		return WithdrawQuote{}, err
	}
	r, exists, err := e.reserves(ctx, net, asset1, asset2)
	if err != nil {
		return WithdrawQuote{}, err
	}
	if !exists {
		return WithdrawQuote{}, fmt.Errorf("%w: no pair for %s and %s", ErrSimulationUnavailable, asset1, asset2)
	}
	return Withdraw(r, lp)
}
