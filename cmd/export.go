package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prospecta/leadgen-cli/internal/export"
	"github.com/prospecta/leadgen-cli/internal/store"
	"github.com/prospecta/leadgen-cli/pkg/notion"
)

var (
	exportUser    string
	exportFormat  string
	exportOut     string
	exportLimit   int
	exportSession string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted sessions to XLSX or Notion",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.SessionsByOwner(ctx, exportUser, exportLimit)
		if err != nil {
			return eris.Wrap(err, "load sessions")
		}
		if exportSession != "" {
			rows = filterSession(rows, exportSession)
		}
		if len(rows) == 0 {
			return eris.New("no sessions to export")
		}

		switch exportFormat {
		case "xlsx":
			return export.WriteXLSX(exportOut, rows)
		case "notion":
			client := notion.NewClient(cfg.Notion.Token)
			pushed, err := export.PushNotion(ctx, client, cfg.Notion.LeadDB, rows)
			if err != nil {
				return err
			}
			zap.L().Info("export finished", zap.Int("leads", pushed))
			return nil
		default:
			return eris.Errorf("unsupported export format: %s", exportFormat)
		}
	},
}

func filterSession(rows []store.SessionRow, sessionID string) []store.SessionRow {
	for _, row := range rows {
		if row.SessionID == sessionID || row.ID == sessionID {
			return []store.SessionRow{row}
		}
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "", "owner id (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "export format: xlsx or notion")
	exportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output path for xlsx format")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 20, "maximum sessions to export")
	exportCmd.Flags().StringVar(&exportSession, "session", "", "export a single session by id")
	_ = exportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(exportCmd)
}
