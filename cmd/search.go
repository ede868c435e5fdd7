package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prospecta/leadgen-cli/internal/model"
	"github.com/prospecta/leadgen-cli/internal/search"
)

var (
	searchQuery      string
	searchMaxResults int
	searchUser       string
	searchEnforceKw  bool
	searchNoPersist  bool
)

// searchResult is the JSON summary printed after a run.
type searchResult struct {
	SessionID  string       `json:"sessionId"`
	State      string       `json:"state"`
	Query      string       `json:"query"`
	Candidates int          `json:"candidates"`
	Duplicates int          `json:"duplicates"`
	Persisted  bool         `json:"persisted"`
	Leads      []model.Lead `json:"leads"`
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one acquisition search and persist the unique leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch := initOrchestrator()
		gate := initGate(st)

		maxResults := searchMaxResults
		if maxResults == 0 {
			maxResults = cfg.Search.MaxResults
		}
		enforce := searchEnforceKw || cfg.Search.EnforceKeywords

		outcome := orch.Run(ctx, search.Config{
			Query:           searchQuery,
			MaxResults:      maxResults,
			EnforceKeywords: enforce,
		}, func(ev search.Event) {
			zap.L().Info("search progress",
				zap.String("stage", string(ev.Stage)),
				zap.String("message", ev.Message),
			)
		})

		switch outcome.State {
		case search.StateCancelled:
			return eris.Wrap(outcome.Err, "search cancelled")
		case search.StateFailed:
			return eris.Wrap(outcome.Err, "search failed")
		}

		idx := gate.LoadHistory(ctx, searchUser)
		filtered := gate.FilterUnique(outcome.Leads, idx)

		sessionID := uuid.New().String()
		persisted := false
		if !searchNoPersist {
			persisted = gate.Persist(ctx, filtered.Unique, searchUser, sessionID, searchQuery)
		}

		result := searchResult{
			SessionID:  sessionID,
			State:      string(outcome.State),
			Query:      searchQuery,
			Candidates: len(outcome.Leads),
			Duplicates: len(filtered.Rejected),
			Persisted:  persisted,
			Leads:      filtered.Unique,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchQuery, "query", "", "search phrase, e.g. \"reformas\" (required)")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "result cap (default from config)")
	searchCmd.Flags().StringVar(&searchUser, "user", "", "owner id for deduplication and persistence")
	searchCmd.Flags().BoolVar(&searchEnforceKw, "enforce-keywords", false, "drop off-niche listings instead of only logging them")
	searchCmd.Flags().BoolVar(&searchNoPersist, "no-persist", false, "print leads without writing a session")
	_ = searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)
}
