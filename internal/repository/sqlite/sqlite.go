package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Synternet/terraswap-core/internal/repository"
)

// InMemory is a DSN for a database shared by connections of one process.
const InMemory = "file::memory:?cache=shared"

// New opens an SQLite database file. An empty path opens InMemory.
func New(path string, verbose bool) (*gorm.DB, error) {
	if path == "" {
		path = InMemory
	}
	return gorm.Open(sqlite.Open(path), repository.GormConfig(verbose))
}
