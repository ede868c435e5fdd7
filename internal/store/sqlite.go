package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/prospecta/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_sessions (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	session_id TEXT NOT NULL,
	platform   TEXT NOT NULL,
	query      TEXT NOT NULL DEFAULT '',
	lead_data  TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_search_sessions_owner ON search_sessions(owner);
CREATE INDEX IF NOT EXISTS idx_search_sessions_created_at ON search_sessions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertSession(ctx context.Context, row SessionRow) error {
	leadJSON, err := json.Marshal(row.Leads)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal leads")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_sessions (id, owner, session_id, platform, query, lead_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Owner, row.SessionID, row.Platform, row.Query, string(leadJSON), row.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert session")
}

func (s *SQLiteStore) LeadsByOwner(ctx context.Context, owner string) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead_data FROM search_sessions WHERE owner = ?`,
		owner,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: leads by owner")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var leadJSON string
		if err := rows.Scan(&leadJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead_data")
		}
		var batch []model.Lead
		if err := json.Unmarshal([]byte(leadJSON), &batch); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead_data")
		}
		leads = append(leads, batch...)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: leads by owner iterate")
}

func (s *SQLiteStore) SessionsByOwner(ctx context.Context, owner string, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, session_id, platform, query, lead_data, created_at
		 FROM search_sessions WHERE owner = ? ORDER BY created_at DESC LIMIT ?`,
		owner, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sessions by owner")
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var row SessionRow
		var leadJSON string
		if err := rows.Scan(&row.ID, &row.Owner, &row.SessionID, &row.Platform, &row.Query, &leadJSON, &row.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		if err := json.Unmarshal([]byte(leadJSON), &row.Leads); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead_data")
		}
		sessions = append(sessions, row)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: sessions by owner iterate")
}
