package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"proposals/internal/config"
	"proposals/internal/document"
	"proposals/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = document.ErrCorrupt
)

// ProposalStore implements domain.ProposalStore on database/sql. The same
// code serves the local SQLite file and shared Postgres/MySQL servers.
type ProposalStore struct {
	conn    *sql.DB
	dialect dialect
	owned   bool
}

// NewProposalStore keeps proposals in the local SQLite database.
func NewProposalStore(db *DB) *ProposalStore {
	return &ProposalStore{conn: db.conn, dialect: sqliteDialect}
}

// OpenSQL connects to a shared Postgres or MySQL store and ensures the schema.
func OpenSQL(sc config.StoreConfig) (*ProposalStore, error) {
	var d dialect
	var dsn string
	switch sc.Driver {
	case config.DriverPostgres:
		d, dsn = postgresDialect, buildPostgresDSN(sc)
	case config.DriverMySQL:
		d, dsn = mysqlDialect, buildMySQLDSN(sc)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", sc.Driver)
	}

	conn, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	for _, m := range d.schema {
		if _, err := conn.Exec(m); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate %s: %w", d.driver, err)
		}
	}
	log.Printf("[STORE] using shared %s store at %s", d.driver, sc.Host)
	return &ProposalStore{conn: conn, dialect: d, owned: true}, nil
}

// Close releases the connection when the store opened it itself.
func (s *ProposalStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.conn.Close()
}

func (s *ProposalStore) exec(query string, args ...any) (sql.Result, error) {
	return s.conn.Exec(s.dialect.rebind(query), args...)
}

func (s *ProposalStore) CreateProposal(p *domain.Proposal) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.exec(
		`INSERT INTO proposals (id, name, client, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Client, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *ProposalStore) GetProposal(id string) (*domain.Proposal, error) {
	p := &domain.Proposal{}
	err := s.conn.QueryRow(
		s.dialect.rebind(`SELECT id, name, client, created_at, updated_at FROM proposals WHERE id = ?`), id,
	).Scan(&p.ID, &p.Name, &p.Client, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get proposal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

func (s *ProposalStore) ListProposals() ([]domain.Proposal, error) {
	rows, err := s.conn.Query(`SELECT id, name, client, created_at, updated_at FROM proposals ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []domain.Proposal
	for rows.Next() {
		var p domain.Proposal
		if err := rows.Scan(&p.ID, &p.Name, &p.Client, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func (s *ProposalStore) UpdateProposal(p *domain.Proposal) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.exec(
		`UPDATE proposals SET name = ?, client = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Client, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update proposal %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *ProposalStore) DeleteProposal(id string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.dialect.rebind(`DELETE FROM pages WHERE proposal_id = ?`), id); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}
	if _, err := tx.Exec(s.dialect.rebind(`DELETE FROM proposals WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	return tx.Commit()
}

// SavePages atomically replaces every page record of a proposal.
func (s *ProposalStore) SavePages(proposalID string, pages []domain.Page) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.dialect.rebind(`DELETE FROM pages WHERE proposal_id = ?`), proposalID); err != nil {
		return fmt.Errorf("clear pages: %w", err)
	}
	insert := s.dialect.rebind(
		`INSERT INTO pages (id, proposal_id, position, kind, body, is_continuation) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	for i, p := range pages {
		if _, err := tx.Exec(insert, p.ID, proposalID, i, string(p.Kind), p.Body, p.IsContinuation); err != nil {
			return fmt.Errorf("insert page %s: %w", p.ID, err)
		}
	}
	res, err := tx.Exec(s.dialect.rebind(`UPDATE proposals SET updated_at = ? WHERE id = ?`), time.Now().UTC(), proposalID)
	if err != nil {
		return fmt.Errorf("touch proposal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("save pages %s: %w", proposalID, ErrNotFound)
	}
	return tx.Commit()
}

// LoadPages returns the page records of a proposal ordered by position.
// Duplicate positions mean the records were written by something other
// than SavePages and are reported as corrupt.
func (s *ProposalStore) LoadPages(proposalID string) ([]domain.Page, error) {
	rows, err := s.conn.Query(
		s.dialect.rebind(`SELECT id, position, kind, body, is_continuation FROM pages WHERE proposal_id = ? ORDER BY position ASC`),
		proposalID,
	)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	last := -1
	for rows.Next() {
		var p domain.Page
		var pos int
		var kind string
		if err := rows.Scan(&p.ID, &pos, &kind, &p.Body, &p.IsContinuation); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if pos == last {
			return nil, fmt.Errorf("%w: two pages at position %d", ErrCorrupt, pos)
		}
		last = pos
		p.Kind = domain.PageKind(kind)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
