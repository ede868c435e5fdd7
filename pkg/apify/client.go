// Package apify is a minimal client for the Apify actor-run API, covering
// the Google Maps scraper actor used for lead acquisition.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://api.apify.com/v2"
	defaultActor   = "compass~crawler-google-places"
)

// Client defines the Apify operations used by the orchestrator.
type Client interface {
	StartRun(ctx context.Context, input RunInput) (*Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListItems(ctx context.Context, datasetID string) ([]PlaceItem, error)
}

// RunInput is the actor input for POST /acts/{actor}/runs. The crawl
// parameters are fixed by the acquisition rules; only the query strings and
// the result limit vary per run.
type RunInput struct {
	SearchStringsArray    []string `json:"searchStringsArray"`
	LocationQuery         string   `json:"locationQuery"`
	MaxCrawlerConcurrency int      `json:"maxCrawlerConcurrency"`
	MaxReviews            int      `json:"maxReviews"`
	MaxImages             int      `json:"maxImages"`
	ScrapeReviewerName    bool     `json:"scrapeReviewerName"`
	ScrapeReviewerID      bool     `json:"scrapeReviewerId"`
	ScrapeReviewerURL     bool     `json:"scrapeReviewerUrl"`
	ScrapeReviewText      bool     `json:"scrapeReviewText"`
	Language              string   `json:"lang"`
	MaxWebPages           int      `json:"maxWebPages"`
	MaxScrolls            int      `json:"maxScrolls"`
	Zoom                  int      `json:"zoom"`
	Limit                 int      `json:"limit"`
}

// RunStatus is the provider-reported state of an actor run.
type RunStatus string

const (
	RunStatusReady     RunStatus = "READY"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusAborted   RunStatus = "ABORTED"
	RunStatusTimedOut  RunStatus = "TIMED-OUT"
)

// Terminal reports whether the status is a terminal state.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusAborted, RunStatusTimedOut:
		return true
	default:
		return false
	}
}

// Run identifies an actor run and its output dataset.
type Run struct {
	ID               string    `json:"id"`
	Status           RunStatus `json:"status"`
	DefaultDatasetID string    `json:"defaultDatasetId"`
}

// runEnvelope is the {"data": ...} wrapper Apify puts around run objects.
type runEnvelope struct {
	Data Run `json:"data"`
}

// PlaceItem is one raw record from the Google Maps scraper dataset.
type PlaceItem struct {
	PlaceID      string   `json:"placeId"`
	Title        string   `json:"title"`
	CategoryName string   `json:"categoryName"`
	ReviewsCount int      `json:"reviewsCount"`
	Address      string   `json:"address"`
	Website      string   `json:"website"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Emails       []string `json:"emails"`
}

// APIError is returned when Apify responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apify: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithActor overrides the default actor id.
func WithActor(actor string) Option {
	return func(c *httpClient) {
		c.actor = actor
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http. The API token travels as a
// query parameter, which is how the Apify v2 API authenticates.
type httpClient struct {
	token   string
	actor   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Apify client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		actor:   defaultActor,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) StartRun(ctx context.Context, input RunInput) (*Run, error) {
	var env runEnvelope
	path := fmt.Sprintf("/acts/%s/runs", c.actor)
	if err := c.post(ctx, path, input, &env); err != nil {
		return nil, eris.Wrap(err, "apify: start run")
	}
	return &env.Data, nil
}

func (c *httpClient) GetRun(ctx context.Context, runID string) (*Run, error) {
	var env runEnvelope
	path := fmt.Sprintf("/acts/%s/runs/%s", c.actor, runID)
	if err := c.get(ctx, path, &env); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("apify: get run %s", runID))
	}
	return &env.Data, nil
}

func (c *httpClient) ListItems(ctx context.Context, datasetID string) ([]PlaceItem, error) {
	var items []PlaceItem
	path := fmt.Sprintf("/datasets/%s/items", datasetID)
	if err := c.get(ctx, path, &items); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("apify: list items %s", datasetID))
	}
	return items, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	return c.do(req, out)
}

func (c *httpClient) endpoint(path string) string {
	return c.baseURL + path + "?token=" + url.QueryEscape(c.token)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
