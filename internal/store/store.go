// Package store persists search sessions and serves a user's historical
// lead corpus for deduplication.
package store

import (
	"context"
	"time"

	"github.com/prospecta/leadgen-cli/internal/model"
)

// SessionRow is one persisted acquisition run. Rows are append-only; no
// update or delete path exists.
type SessionRow struct {
	ID        string       `json:"id"`
	Owner     string       `json:"owner"`
	SessionID string       `json:"session_id"`
	Platform  string       `json:"platform"`
	Query     string       `json:"query"`
	Leads     []model.Lead `json:"lead_data"`
	CreatedAt time.Time    `json:"created_at"`
}

// Session converts a row to the caller-facing session shape.
func (r SessionRow) Session() model.SearchSession {
	return model.SearchSession{
		ID:           r.SessionID,
		Date:         r.CreatedAt,
		Query:        r.Query,
		Source:       model.LeadSource(r.Platform),
		ResultsCount: len(r.Leads),
		Leads:        r.Leads,
	}
}

// Store defines the persistence interface for the acquisition pipeline.
type Store interface {
	// InsertSession appends one session row.
	InsertSession(ctx context.Context, row SessionRow) error

	// LeadsByOwner returns every historical lead owned by the user,
	// flattened across all of their sessions.
	LeadsByOwner(ctx context.Context, owner string) ([]model.Lead, error)

	// SessionsByOwner returns the user's sessions, newest first.
	SessionsByOwner(ctx context.Context, owner string, limit int) ([]SessionRow, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
