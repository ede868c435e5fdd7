// Package search orchestrates one lead-acquisition run end to end: start a
// provider crawl, poll it to completion, screen the raw items, and enrich
// the survivors with contact emails.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prospecta/leadgen-cli/internal/metrics"
	"github.com/prospecta/leadgen-cli/internal/model"
	"github.com/prospecta/leadgen-cli/internal/resilience"
	"github.com/prospecta/leadgen-cli/pkg/apify"
)

// State is the terminal state of an acquisition run. Every run ends in
// exactly one of the three states.
type State string

const (
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Outcome is the result of one acquisition run. Leads is only populated
// when State is StateCompleted; Err is only set for StateFailed and
// StateCancelled.
type Outcome struct {
	State State
	Leads []model.Lead
	Err   error
}

// Stage labels the phase a progress event belongs to.
type Stage string

const (
	StageStarting  Stage = "starting"
	StagePolling   Stage = "polling"
	StageFetching  Stage = "fetching"
	StageFiltering Stage = "filtering"
	StageEnriching Stage = "enriching"
	StageDone      Stage = "done"
)

// Event is one progress notification emitted during a run.
type Event struct {
	Stage   Stage
	Message string
}

// ProgressFunc receives progress events. May be nil. Enrichment events are
// emitted from worker goroutines, so implementations must be safe for
// concurrent use.
type ProgressFunc func(Event)

// EmailResolver resolves a contact email for a website, returning the empty
// string when none is found.
type EmailResolver interface {
	ResolveEmail(ctx context.Context, website string) string
}

// Config carries the per-run parameters.
type Config struct {
	// Query is the user's search phrase, e.g. "reformas". Required.
	Query string

	// MaxResults caps the crawl. Zero means the default of 20.
	MaxResults int

	// EnforceKeywords drops off-niche items instead of only logging them.
	EnforceKeywords bool
}

// Options carries the fixed dependencies and settings of an Orchestrator.
type Options struct {
	// Credential is the provider API token. Runs fail immediately when it
	// is empty, before any network traffic.
	Credential string

	// Region is appended to every query to anchor the crawl geographically.
	// Default "en España".
	Region string

	// Keywords for niche screening. Default DefaultKeywords().
	Keywords []string

	// EnrichConcurrency bounds parallel email resolutions. Default 4.
	EnrichConcurrency int

	// PollInterval between provider status checks. Default 5s.
	PollInterval time.Duration

	// PollTimeout bounds the whole polling phase. Default 10m.
	PollTimeout time.Duration
}

const (
	defaultMaxResults = 20
	defaultRegion     = "en España"
	defaultEnrichConc = 4
)

// Orchestrator runs acquisition searches. It is safe for concurrent use;
// all per-run state lives on the stack of Run.
type Orchestrator struct {
	client   apify.Client
	resolver EmailResolver
	opts     Options
}

// NewOrchestrator creates an Orchestrator. resolver may be nil, in which
// case enrichment relies solely on provider-supplied emails.
func NewOrchestrator(client apify.Client, resolver EmailResolver, opts Options) *Orchestrator {
	if opts.Region == "" {
		opts.Region = defaultRegion
	}
	if len(opts.Keywords) == 0 {
		opts.Keywords = DefaultKeywords()
	}
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = defaultEnrichConc
	}
	return &Orchestrator{client: client, resolver: resolver, opts: opts}
}

// Run executes one acquisition run to a terminal Outcome. Cancelling ctx at
// any point yields StateCancelled; provider and mapping failures yield
// StateFailed. Run never panics on provider data and never returns a
// partially enriched StateCompleted: every returned lead has passed
// screening and the enrichment attempt.
func (o *Orchestrator) Run(ctx context.Context, cfg Config, progress ProgressFunc) Outcome {
	emit := func(stage Stage, format string, args ...any) {
		if progress != nil {
			progress(Event{Stage: stage, Message: fmt.Sprintf(format, args...)})
		}
	}
	finish := func(out Outcome) Outcome {
		metrics.RecordSearchFinished(string(out.State))
		return out
	}

	metrics.RecordSearchStarted()
	log := zap.L().With(zap.String("component", "search.orchestrator"), zap.String("query", cfg.Query))

	if o.opts.Credential == "" {
		err := eris.New("provider credential is not configured")
		log.Error("run aborted", zap.Error(err))
		return finish(Outcome{State: StateFailed, Err: err})
	}
	if cfg.Query == "" {
		err := eris.New("query is required")
		return finish(Outcome{State: StateFailed, Err: err})
	}

	limit := cfg.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	fullQuery := cfg.Query + " " + o.opts.Region

	emit(StageStarting, "starting crawl for %q", fullQuery)
	input := apify.RunInput{
		SearchStringsArray:    []string{fullQuery},
		MaxCrawlerConcurrency: 2,
		Language:              "es",
		MaxWebPages:           1,
		MaxScrolls:            10,
		Zoom:                  12,
		Limit:                 limit,
	}

	run, err := o.client.StartRun(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return finish(Outcome{State: StateCancelled, Err: ctx.Err()})
		}
		log.Error("failed to start run", zap.Error(err))
		return finish(Outcome{State: StateFailed, Err: eris.Wrap(err, "start provider run")})
	}
	log.Info("provider run started", zap.String("run_id", run.ID))

	pollOpts := []apify.PollOption{
		apify.WithPollObserver(func(s apify.RunStatus) {
			emit(StagePolling, "run %s status %s", run.ID, s)
		}),
	}
	if o.opts.PollInterval > 0 {
		pollOpts = append(pollOpts, apify.WithPollInterval(o.opts.PollInterval))
	}
	if o.opts.PollTimeout > 0 {
		pollOpts = append(pollOpts, apify.WithPollTimeout(o.opts.PollTimeout))
	}

	run, err = apify.PollRun(ctx, o.client, run.ID, pollOpts...)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("run cancelled while polling", zap.Error(ctx.Err()))
			return finish(Outcome{State: StateCancelled, Err: ctx.Err()})
		}
		log.Error("provider run did not succeed", zap.Error(err))
		return finish(Outcome{State: StateFailed, Err: err})
	}

	emit(StageFetching, "fetching dataset %s", run.DefaultDatasetID)
	policy := resilience.DefaultPolicy()
	policy.ShouldRetry = func(err error) bool {
		var apiErr *apify.APIError
		if errors.As(err, &apiErr) {
			return resilience.RetryableStatus(apiErr.StatusCode)
		}
		return resilience.IsTransient(err)
	}
	items, err := resilience.Retry(ctx, policy, "apify.list_items", func(ctx context.Context) ([]apify.PlaceItem, error) {
		return o.client.ListItems(ctx, run.DefaultDatasetID)
	})
	if err != nil {
		if ctx.Err() != nil {
			return finish(Outcome{State: StateCancelled, Err: ctx.Err()})
		}
		log.Error("failed to fetch dataset items", zap.Error(err))
		return finish(Outcome{State: StateFailed, Err: eris.Wrap(err, "fetch dataset items")})
	}
	metrics.RecordRawItems(len(items))

	emit(StageFiltering, "screening %d raw items", len(items))
	screened := Screen(items, o.opts.Keywords, cfg.EnforceKeywords)

	emit(StageEnriching, "enriching %d leads", len(screened))
	leads, err := o.enrichAll(ctx, screened, emit)
	if err != nil {
		return finish(Outcome{State: StateCancelled, Err: err})
	}
	if ctx.Err() != nil {
		return finish(Outcome{State: StateCancelled, Err: ctx.Err()})
	}

	emit(StageDone, "run complete, %d leads", len(leads))
	log.Info("run complete", zap.Int("leads", len(leads)))
	return finish(Outcome{State: StateCompleted, Leads: leads})
}

// enrichAll maps screened items to leads, resolving contact emails with
// bounded concurrency. Output order matches input order regardless of which
// resolution finishes first. The only error it returns is cancellation.
func (o *Orchestrator) enrichAll(ctx context.Context, items []apify.PlaceItem, emit func(Stage, string, ...any)) ([]model.Lead, error) {
	leads := make([]model.Lead, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.EnrichConcurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			leads[i] = o.mapLead(gctx, item, i)
			if leads[i].DecisionMaker.Email != "" {
				emit(StageEnriching, "email found for %s", leads[i].CompanyName)
			} else {
				emit(StageEnriching, "no email for %s", leads[i].CompanyName)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return leads, nil
}

// mapLead converts one provider item into a Lead, attempting email
// resolution from the item's website and falling back to provider-supplied
// emails when scraping finds nothing.
func (o *Orchestrator) mapLead(ctx context.Context, item apify.PlaceItem, idx int) model.Lead {
	id := item.PlaceID
	if id == "" {
		id = fmt.Sprintf("lead-%d-%d", time.Now().UnixMilli(), idx)
	}

	name := item.Title
	if name == "" {
		name = "Sin Nombre"
	}
	category := item.CategoryName
	if category == "" {
		category = "Reformas"
	}

	email := ""
	if o.resolver != nil && item.Website != "" {
		email = o.resolver.ResolveEmail(ctx, item.Website)
		if email != "" {
			metrics.RecordEmailResolved("scrape")
		}
	}
	if email == "" {
		switch {
		case item.Email != "":
			email = item.Email
			metrics.RecordEmailResolved("provider")
		case len(item.Emails) > 0:
			email = item.Emails[0]
			metrics.RecordEmailResolved("provider")
		}
	}

	status := model.StatusScraped
	if email != "" {
		status = model.StatusEnriched
	}

	return model.Lead{
		ID:          id,
		Source:      model.SourceGmaps,
		CompanyName: name,
		Website:     item.Website,
		Location:    item.Address,
		DecisionMaker: model.DecisionMaker{
			Name:  "Equipo " + name,
			Role:  "Gerencia",
			Email: email,
			Phone: item.Phone,
		},
		AIAnalysis: model.AIAnalysis{
			Summary:    fmt.Sprintf("Empresa de %s con %d reseñas.", category, item.ReviewsCount),
			PainPoints: []string{},
		},
		Status: status,
	}
}
