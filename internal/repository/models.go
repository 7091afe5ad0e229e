package repository

import (
	"time"
)

type IBCDenom struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Network   string `gorm:"index:idx_network_ibc,unique"`
	IBC       string `gorm:"index:idx_network_ibc,unique"`
	Path      string
	BaseDenom string
}

type Pair struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Network        string `gorm:"index:idx_pair,unique;index:idx_pair_seq"`
	ContractAddr   string `gorm:"index:idx_pair,unique"`
	Seq            uint64 `gorm:"index:idx_pair_seq"`
	Asset1         string
	Asset1Native   bool
	Asset2         string
	Asset2Native   bool
	LiquidityToken string
	Decimals1      int
	Decimals2      int
}

type Asset struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Network     string `gorm:"index:idx_asset,unique"`
	Address     string `gorm:"index:idx_asset,unique"`
	IsNative    bool
	Balance     string
	Name        string
	Symbol      string
	Decimals    int
	TotalSupply string
	IBCPath     string
	RefreshedAt int64
}
