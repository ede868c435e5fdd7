package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/prospecta/leadgen-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock's PgxPoolIface
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_sessions (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	session_id TEXT NOT NULL,
	platform   TEXT NOT NULL,
	query      TEXT NOT NULL DEFAULT '',
	lead_data  JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_search_sessions_owner ON search_sessions(owner);
CREATE INDEX IF NOT EXISTS idx_search_sessions_created_at ON search_sessions(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertSession(ctx context.Context, row SessionRow) error {
	leadJSON, err := json.Marshal(row.Leads)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal leads")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_sessions (id, owner, session_id, platform, query, lead_data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.ID, row.Owner, row.SessionID, row.Platform, row.Query, leadJSON, row.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert session")
}

func (s *PostgresStore) LeadsByOwner(ctx context.Context, owner string) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lead_data FROM search_sessions WHERE owner = $1`,
		owner,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: leads by owner")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var leadJSON []byte
		if err := rows.Scan(&leadJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead_data")
		}
		var batch []model.Lead
		if err := json.Unmarshal(leadJSON, &batch); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead_data")
		}
		leads = append(leads, batch...)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: leads by owner iterate")
}

func (s *PostgresStore) SessionsByOwner(ctx context.Context, owner string, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner, session_id, platform, query, lead_data, created_at
		 FROM search_sessions WHERE owner = $1 ORDER BY created_at DESC LIMIT $2`,
		owner, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sessions by owner")
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var row SessionRow
		var leadJSON []byte
		if err := rows.Scan(&row.ID, &row.Owner, &row.SessionID, &row.Platform, &row.Query, &leadJSON, &row.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		if err := json.Unmarshal(leadJSON, &row.Leads); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead_data")
		}
		sessions = append(sessions, row)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: sessions by owner iterate")
}
