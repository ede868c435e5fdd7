package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/prospecta/leadgen-cli/internal/store"
)

var (
	sessionsUser  string
	sessionsLimit int
)

// sessionSummary is one row of the sessions listing.
type sessionSummary struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Query     string `json:"query"`
	Platform  string `json:"platform"`
	Leads     int    `json:"leads"`
	CreatedAt string `json:"createdAt"`
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List a user's persisted search sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.SessionsByOwner(ctx, sessionsUser, sessionsLimit)
		if err != nil {
			return eris.Wrap(err, "list sessions")
		}

		summaries := make([]sessionSummary, 0, len(rows))
		for _, row := range rows {
			summaries = append(summaries, summarizeSession(row))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	},
}

func summarizeSession(row store.SessionRow) sessionSummary {
	return sessionSummary{
		ID:        row.ID,
		SessionID: row.SessionID,
		Query:     row.Query,
		Platform:  row.Platform,
		Leads:     len(row.Leads),
		CreatedAt: row.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsUser, "user", "", "owner id (required)")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum sessions to list")
	_ = sessionsCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(sessionsCmd)
}
