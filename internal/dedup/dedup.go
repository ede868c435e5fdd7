// Package dedup filters acquisition candidates against a user's historical
// lead corpus. A lead must never be delivered twice for the same user,
// regardless of which search produced it.
package dedup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prospecta/leadgen-cli/internal/identity"
	"github.com/prospecta/leadgen-cli/internal/metrics"
	"github.com/prospecta/leadgen-cli/internal/model"
	"github.com/prospecta/leadgen-cli/internal/store"
)

// Gate deduplicates candidate leads against history and persists survivors.
// It holds no state between runs; the identity index is rebuilt wholesale
// from the store on every invocation.
type Gate struct {
	store   store.Store
	markers identity.Markers
}

// NewGate creates a Gate over the given store. markers classifies generic
// company names; use identity.DefaultMarkers() for the standard set.
func NewGate(st store.Store, markers identity.Markers) *Gate {
	return &Gate{store: st, markers: markers}
}

// LoadHistory builds the identity index from every historical lead owned by
// the user. A missing user id or a store failure yields an empty index:
// the gate fails open rather than falsely blocking new leads.
func (g *Gate) LoadHistory(ctx context.Context, userID string) *identity.Index {
	idx := identity.NewIndex()
	log := zap.L().With(zap.String("component", "dedup.gate"), zap.String("user", userID))

	if userID == "" {
		log.Warn("no user id provided, skipping duplicate check")
		return idx
	}

	leads, err := g.store.LeadsByOwner(ctx, userID)
	if err != nil {
		log.Error("failed to fetch lead history, continuing without index", zap.Error(err))
		return idx
	}

	for _, lead := range leads {
		idx.AddWebsite(identity.NormalizeWebsite(lead.Website))
		if lead.CompanyName != "" && !g.markers.IsGeneric(lead.CompanyName) {
			idx.AddName(identity.NormalizeName(lead.CompanyName))
		}
	}

	log.Info("lead history loaded",
		zap.Int("websites", idx.Websites()),
		zap.Int("names", idx.Names()),
	)
	return idx
}

// Rejection records one candidate discarded as a duplicate.
type Rejection struct {
	Lead   model.Lead
	Reason string
}

// FilterResult splits a candidate batch into unique leads and rejections.
type FilterResult struct {
	Unique   []model.Lead
	Rejected []Rejection
}

// FilterUnique checks each candidate against the index in a single pass,
// preserving input order. A candidate is a duplicate when its website key is
// known, or when its name is non-generic and its name key is known. The
// website check runs first; the reason only affects logging.
func (g *Gate) FilterUnique(candidates []model.Lead, idx *identity.Index) FilterResult {
	result := FilterResult{Unique: make([]model.Lead, 0, len(candidates))}

	for _, candidate := range candidates {
		reason := ""

		if key := identity.NormalizeWebsite(candidate.Website); idx.HasWebsite(key) {
			reason = "website"
		} else if candidate.CompanyName != "" && !g.markers.IsGeneric(candidate.CompanyName) {
			if idx.HasName(identity.NormalizeName(candidate.CompanyName)) {
				reason = "company"
			}
		}

		if reason == "" {
			result.Unique = append(result.Unique, candidate)
			continue
		}

		metrics.RecordDuplicateRejected(reason)
		zap.L().Debug("duplicate rejected",
			zap.String("company", candidate.CompanyName),
			zap.String("website", candidate.Website),
			zap.String("reason", reason),
		)
		result.Rejected = append(result.Rejected, Rejection{Lead: candidate, Reason: reason})
	}

	zap.L().Info("deduplication complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("unique", len(result.Unique)),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result
}

// Persist writes a deduplicated batch as one session row. It returns false
// without inserting when the user id is missing or the batch is empty, and
// reports store failures as false instead of propagating them: a failed
// write must not corrupt the in-memory result of the acquisition run.
func (g *Gate) Persist(ctx context.Context, leads []model.Lead, userID, sessionID, query string) bool {
	log := zap.L().With(zap.String("component", "dedup.gate"), zap.String("user", userID))

	if userID == "" || len(leads) == 0 {
		log.Warn("nothing to persist", zap.Int("leads", len(leads)))
		return false
	}

	row := store.SessionRow{
		ID:        uuid.New().String(),
		Owner:     userID,
		SessionID: sessionID,
		Platform:  string(leads[0].Source),
		Query:     query,
		Leads:     leads,
		CreatedAt: time.Now().UTC(),
	}

	if err := g.store.InsertSession(ctx, row); err != nil {
		log.Error("failed to persist session", zap.Error(err))
		return false
	}

	metrics.RecordSessionPersisted(len(leads))
	log.Info("session persisted",
		zap.String("session", sessionID),
		zap.Int("leads", len(leads)),
	)
	return true
}
