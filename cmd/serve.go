package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prospecta/leadgen-cli/internal/dedup"
	"github.com/prospecta/leadgen-cli/internal/metrics"
	"github.com/prospecta/leadgen-cli/internal/model"
	"github.com/prospecta/leadgen-cli/internal/search"
)

var servePort int

// runRecord tracks one asynchronous acquisition run.
type runRecord struct {
	Status string        `json:"status"`
	Result *searchResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// runTracker holds in-flight and finished runs for status polling. Records
// live for the lifetime of the server process.
type runTracker struct {
	mu   sync.RWMutex
	runs map[string]*runRecord
}

func newRunTracker() *runTracker {
	return &runTracker{runs: make(map[string]*runRecord)}
}

func (t *runTracker) set(id string, rec *runRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[id] = rec
}

func (t *runTracker) get(id string) (*runRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.runs[id]
	return rec, ok
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for acquisition runs",
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
		tracker := newRunTracker()

		r := chi.NewRouter()
		r.Use(chimw.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Method(http.MethodGet, "/metrics", metrics.Handler())

		r.Post("/api/search", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Query           string `json:"query"`
				UserID          string `json:"userId"`
				MaxResults      int    `json:"maxResults"`
				EnforceKeywords bool   `json:"enforceKeywords"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Query == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
				return
			}

			runID := uuid.New().String()
			tracker.set(runID, &runRecord{Status: "running"})

			// The run outlives the request; it is cancelled by server
			// shutdown, not by the client disconnecting.
			go func() {
				rec := executeRun(ctx, orch, gate, body.Query, body.UserID, body.MaxResults, body.EnforceKeywords)
				tracker.set(runID, rec)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"runId":  runID,
				"status": "accepted",
			})
		})

		r.Get("/api/search/{runID}", func(w http.ResponseWriter, req *http.Request) {
			rec, ok := tracker.get(chi.URLParam(req, "runID"))
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown run"})
				return
			}
			writeJSON(w, http.StatusOK, rec)
		})

		r.Get("/api/sessions", func(w http.ResponseWriter, req *http.Request) {
			owner := req.URL.Query().Get("user")
			if owner == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user is required"})
				return
			}
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			if limit <= 0 {
				limit = 20
			}

			rows, err := st.SessionsByOwner(req.Context(), owner, limit)
			if err != nil {
				zap.L().Error("list sessions failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store error"})
				return
			}
			sessions := make([]model.SearchSession, 0, len(rows))
			for _, row := range rows {
				sessions = append(sessions, row.Session())
			}
			writeJSON(w, http.StatusOK, sessions)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// executeRun performs the full search-dedup-persist flow for one API
// request and reduces it to a runRecord.
func executeRun(ctx context.Context, orch *search.Orchestrator, gate *dedup.Gate, query, userID string, maxResults int, enforceKw bool) *runRecord {
	outcome := orch.Run(ctx, search.Config{
		Query:           query,
		MaxResults:      maxResults,
		EnforceKeywords: enforceKw,
	}, nil)

	switch outcome.State {
	case search.StateCancelled:
		return &runRecord{Status: "cancelled", Error: errString(outcome.Err)}
	case search.StateFailed:
		return &runRecord{Status: "failed", Error: errString(outcome.Err)}
	}

	idx := gate.LoadHistory(ctx, userID)
	filtered := gate.FilterUnique(outcome.Leads, idx)

	sessionID := uuid.New().String()
	persisted := gate.Persist(ctx, filtered.Unique, userID, sessionID, query)

	return &runRecord{
		Status: "completed",
		Result: &searchResult{
			SessionID:  sessionID,
			State:      string(outcome.State),
			Query:      query,
			Candidates: len(outcome.Leads),
			Duplicates: len(filtered.Rejected),
			Persisted:  persisted,
			Leads:      filtered.Unique,
		},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
