package storage

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"proposals/internal/config"
)

// dialect holds what differs between the SQL backends: the driver name,
// the schema and the placeholder style.
type dialect struct {
	driver       string
	schema       []string
	numberedArgs bool
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS proposals (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			client TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			proposal_id TEXT NOT NULL REFERENCES proposals(id),
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			is_continuation INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_proposal ON pages(proposal_id)`,
	},
}

var postgresDialect = dialect{
	driver:       "postgres",
	numberedArgs: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS proposals (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			client TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			proposal_id TEXT NOT NULL REFERENCES proposals(id),
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			is_continuation BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_proposal ON pages(proposal_id)`,
	},
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS proposals (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			client VARCHAR(255) NOT NULL DEFAULT '',
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS pages (
			id VARCHAR(64) PRIMARY KEY,
			proposal_id VARCHAR(64) NOT NULL,
			position INT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			body LONGTEXT NOT NULL,
			is_continuation BOOLEAN NOT NULL DEFAULT FALSE,
			INDEX idx_pages_proposal (proposal_id),
			FOREIGN KEY (proposal_id) REFERENCES proposals(id)
		) CHARACTER SET utf8mb4`,
	},
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (d dialect) rebind(query string) string {
	if !d.numberedArgs {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func buildPostgresDSN(sc config.StoreConfig) string {
	if sc.URI != "" {
		return sc.URI
	}
	port := sc.Port
	if port == 0 {
		port = 5432
	}
	sslMode := sc.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		sc.Host, port, sc.Username, sc.Password, sc.Database, sslMode,
	)
}

func buildMySQLDSN(sc config.StoreConfig) string {
	if sc.URI != "" {
		return sc.URI
	}
	port := sc.Port
	if port == 0 {
		port = 3306
	}
	// user:password@tcp(host:port)/dbname?parseTime=true
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		sc.Username, sc.Password, sc.Host, port, sc.Database,
	)
	if sc.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
