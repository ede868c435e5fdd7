package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospecta/leadgen-cli/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sessionRow(id, owner, sessionID string, createdAt time.Time, leads ...model.Lead) SessionRow {
	return SessionRow{
		ID:        id,
		Owner:     owner,
		SessionID: sessionID,
		Platform:  "gmaps",
		Query:     "reformas",
		Leads:     leads,
		CreatedAt: createdAt,
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStore(t)

	lead := model.Lead{
		ID:          "l1",
		Source:      model.SourceGmaps,
		CompanyName: "Reformas García",
		Website:     "garcia.com",
		Location:    "Calle Mayor 1, Madrid",
		DecisionMaker: model.DecisionMaker{
			Name:  "Equipo Reformas García",
			Role:  "Gerencia",
			Email: "info@garcia.com",
		},
		AIAnalysis: model.AIAnalysis{Summary: "Empresa de Reformas con 12 reseñas."},
		Status:     model.StatusEnriched,
	}

	require.NoError(t, st.InsertSession(ctx, sessionRow("row-1", "user-1", "sess-1", time.Now().UTC(), lead)))

	sessions, err := st.SessionsByOwner(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Leads, 1)

	got := sessions[0].Leads[0]
	assert.Equal(t, lead.CompanyName, got.CompanyName)
	assert.Equal(t, lead.DecisionMaker.Email, got.DecisionMaker.Email)
	assert.Equal(t, lead.Status, got.Status)
	assert.Equal(t, lead.AIAnalysis.Summary, got.AIAnalysis.Summary)
}

func TestSQLiteLeadsByOwnerFlattens(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStore(t)

	now := time.Now().UTC()
	require.NoError(t, st.InsertSession(ctx, sessionRow("row-1", "user-1", "sess-1", now,
		model.Lead{ID: "l1", CompanyName: "A"},
		model.Lead{ID: "l2", CompanyName: "B"},
	)))
	require.NoError(t, st.InsertSession(ctx, sessionRow("row-2", "user-1", "sess-2", now,
		model.Lead{ID: "l3", CompanyName: "C"},
	)))
	require.NoError(t, st.InsertSession(ctx, sessionRow("row-3", "user-2", "sess-3", now,
		model.Lead{ID: "l4", CompanyName: "D"},
	)))

	leads, err := st.LeadsByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, leads, 3)

	other, err := st.LeadsByOwner(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSQLiteSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertSession(ctx, sessionRow("row-1", "user-1", "sess-old", base)))
	require.NoError(t, st.InsertSession(ctx, sessionRow("row-2", "user-1", "sess-new", base.Add(time.Hour))))

	sessions, err := st.SessionsByOwner(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "sess-new", sessions[0].SessionID)
	assert.Equal(t, "sess-old", sessions[1].SessionID)
}

func TestSQLiteSessionsLimit(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, st.InsertSession(ctx, sessionRow(
			"row-"+string(rune('a'+i)), "user-1", "sess-"+string(rune('a'+i)),
			base.Add(time.Duration(i)*time.Minute),
		)))
	}

	sessions, err := st.SessionsByOwner(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSessionRowSession(t *testing.T) {
	row := sessionRow("row-1", "user-1", "sess-1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		model.Lead{ID: "l1", CompanyName: "A"},
		model.Lead{ID: "l2", CompanyName: "B"},
	)

	s := row.Session()
	assert.Equal(t, "sess-1", s.ID)
	assert.Equal(t, model.SourceGmaps, s.Source)
	assert.Equal(t, "reformas", s.Query)
	assert.Equal(t, 2, s.ResultsCount)
	assert.Len(t, s.Leads, 2)
}

func TestSQLiteUnknownOwner(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStore(t)

	leads, err := st.LeadsByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, leads)

	sessions, err := st.SessionsByOwner(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
