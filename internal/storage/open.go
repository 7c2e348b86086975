package storage

import (
	"fmt"

	"proposals/internal/config"
	"proposals/internal/domain"
)

// ProposalBackend is a proposal store that may own a connection.
type ProposalBackend interface {
	domain.ProposalStore
	Close() error
}

// OpenProposalStore returns the configured proposal store. The local SQLite
// store shares db; shared backends open their own connection.
func OpenProposalStore(db *DB, sc config.StoreConfig) (ProposalBackend, error) {
	switch sc.Driver {
	case "", config.DriverSQLite:
		return NewProposalStore(db), nil
	case config.DriverPostgres, config.DriverMySQL:
		return OpenSQL(sc)
	case config.DriverMongo:
		return OpenMongo(sc)
	}
	return nil, fmt.Errorf("unsupported store driver: %s", sc.Driver)
}
