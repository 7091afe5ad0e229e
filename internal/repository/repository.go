package repository

import (
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Synternet/terraswap-core/pkg/repository"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	logger *slog.Logger
	dbCon  *gorm.DB
}

func New(db *gorm.DB, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ret := &Repository{
		logger: logger,
		dbCon:  db,
	}

	// Create tables for data structures (if table already exists it will not be overwritten)
	err := db.AutoMigrate(&IBCDenom{})
	if err != nil {
		return nil, fmt.Errorf("IBCDenom table migrate error: %w", err)
	}
	// Traces used to be unique across networks.
	if db.Migrator().HasIndex(&IBCDenom{}, "idx_ibc") {
		if err := db.Migrator().DropIndex(&IBCDenom{}, "idx_ibc"); err != nil {
			return nil, fmt.Errorf("IBCDenom index migrate error: %w", err)
		}
	}
	err = db.AutoMigrate(&Pair{})
	if err != nil {
		return nil, fmt.Errorf("Pair table migrate error: %w", err)
	}
	err = db.AutoMigrate(&Asset{})
	if err != nil {
		return nil, fmt.Errorf("Asset table migrate error: %w", err)
	}

	return ret, nil
}

func (r *Repository) Close() error {
	db, err := r.dbCon.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
