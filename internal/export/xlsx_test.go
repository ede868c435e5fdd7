package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/prospecta/leadgen-cli/internal/model"
	"github.com/prospecta/leadgen-cli/internal/store"
)

func testSessions() []store.SessionRow {
	return []store.SessionRow{
		{
			ID:        "row-1",
			Owner:     "user-1",
			SessionID: "sess-1",
			Platform:  "gmaps",
			Query:     "reformas",
			CreatedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			Leads: []model.Lead{
				{
					ID:          "l1",
					Source:      model.SourceGmaps,
					CompanyName: "Reformas García",
					Website:     "garcia.com",
					Location:    "Madrid",
					DecisionMaker: model.DecisionMaker{
						Name:  "Equipo Reformas García",
						Role:  "Gerencia",
						Email: "info@garcia.com",
						Phone: "+34 600 000 001",
					},
					Status: model.StatusEnriched,
				},
				{
					ID:          "l2",
					Source:      model.SourceGmaps,
					CompanyName: "Obras Pérez",
					Status:      model.StatusScraped,
				},
			},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, WriteXLSX(path, testSessions()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 3, "header plus one row per lead")

	header := sheet.Rows[0]
	assert.Equal(t, "Empresa", header.Cells[0].String())
	assert.Equal(t, "Email", header.Cells[2].String())

	first := sheet.Rows[1]
	assert.Equal(t, "Reformas García", first.Cells[0].String())
	assert.Equal(t, "garcia.com", first.Cells[1].String())
	assert.Equal(t, "info@garcia.com", first.Cells[2].String())
	assert.Equal(t, "enriched", first.Cells[8].String())
	assert.Equal(t, "reformas", first.Cells[9].String())
	assert.Equal(t, "2026-08-20", first.Cells[10].String())

	second := sheet.Rows[2]
	assert.Equal(t, "Obras Pérez", second.Cells[0].String())
	assert.Equal(t, "scraped", second.Cells[8].String())
}

func TestWriteXLSXEmptySessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1, "header only")
}
