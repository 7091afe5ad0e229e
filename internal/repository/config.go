package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const TablePrefix = "terraswap_"

// GormConfig keeps gorm quiet unless verbose and prefixes every table.
func GormConfig(verbose bool) *gorm.Config {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		NamingStrategy: schema.NamingStrategy{TablePrefix: TablePrefix},
	}
}
