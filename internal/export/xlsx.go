// Package export writes persisted sessions to external destinations: an
// XLSX workbook for manual prospecting or a shared Notion database.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/prospecta/leadgen-cli/internal/store"
)

var xlsxHeader = []string{
	"Empresa", "Website", "Email", "Teléfono", "Ubicación",
	"Contacto", "Cargo", "Fuente", "Estado", "Búsqueda", "Fecha",
}

// WriteXLSX writes the sessions' leads to a single-sheet workbook at path,
// one row per lead, newest session first in the order given.
func WriteXLSX(path string, sessions []store.SessionRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range xlsxHeader {
		header.AddCell().Value = col
	}

	rows := 0
	for _, session := range sessions {
		date := session.CreatedAt.Format("2006-01-02")
		for _, lead := range session.Leads {
			row := sheet.AddRow()
			row.AddCell().Value = lead.CompanyName
			row.AddCell().Value = lead.Website
			row.AddCell().Value = lead.DecisionMaker.Email
			row.AddCell().Value = lead.DecisionMaker.Phone
			row.AddCell().Value = lead.Location
			row.AddCell().Value = lead.DecisionMaker.Name
			row.AddCell().Value = lead.DecisionMaker.Role
			row.AddCell().Value = string(lead.Source)
			row.AddCell().Value = string(lead.Status)
			row.AddCell().Value = session.Query
			row.AddCell().Value = date
			rows++
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}

	zap.L().Info("xlsx export complete",
		zap.String("path", path),
		zap.Int("sessions", len(sessions)),
		zap.Int("leads", rows),
	)
	return nil
}
