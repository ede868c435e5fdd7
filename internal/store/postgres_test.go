package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prospecta/leadgen-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresMigrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS search_sessions").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertSession(t *testing.T) {
	st, mock := newMockStore(t)

	leads := []model.Lead{{ID: "l1", Source: model.SourceGmaps, CompanyName: "Reformas García"}}
	leadJSON, err := json.Marshal(leads)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO search_sessions").
		WithArgs("row-1", "user-1", "sess-1", "gmaps", "reformas", leadJSON, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = st.InsertSession(context.Background(), SessionRow{
		ID:        "row-1",
		Owner:     "user-1",
		SessionID: "sess-1",
		Platform:  "gmaps",
		Query:     "reformas",
		Leads:     leads,
		CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLeadsByOwner(t *testing.T) {
	st, mock := newMockStore(t)

	batch1, _ := json.Marshal([]model.Lead{{ID: "l1", CompanyName: "Reformas García"}})
	batch2, _ := json.Marshal([]model.Lead{{ID: "l2", CompanyName: "Obras Pérez"}, {ID: "l3", CompanyName: "Sin Nombre"}})

	mock.ExpectQuery("SELECT lead_data FROM search_sessions").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"lead_data"}).
			AddRow(batch1).
			AddRow(batch2))

	leads, err := st.LeadsByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "Reformas García", leads[0].CompanyName)
	assert.Equal(t, "Sin Nombre", leads[2].CompanyName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLeadsByOwnerEmpty(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT lead_data FROM search_sessions").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"lead_data"}))

	leads, err := st.LeadsByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestPostgresSessionsByOwner(t *testing.T) {
	st, mock := newMockStore(t)

	now := time.Now().UTC()
	leadJSON, _ := json.Marshal([]model.Lead{{ID: "l1", CompanyName: "Reformas García"}})

	mock.ExpectQuery("SELECT id, owner, session_id, platform, query, lead_data, created_at").
		WithArgs("user-1", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner", "session_id", "platform", "query", "lead_data", "created_at"}).
			AddRow("row-1", "user-1", "sess-1", "gmaps", "reformas", leadJSON, now))

	sessions, err := st.SessionsByOwner(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].SessionID)
	require.Len(t, sessions[0].Leads, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionsByOwnerDefaultLimit(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, owner, session_id, platform, query, lead_data, created_at").
		WithArgs("user-1", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner", "session_id", "platform", "query", "lead_data", "created_at"}))

	_, err := st.SessionsByOwner(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
