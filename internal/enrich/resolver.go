// Package enrich resolves a contact email for a lead from its website.
// Resolution is best effort: every network failure degrades to "no email",
// never to an error.
package enrich

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 512 * 1024

// emailRe matches an email-shaped token in page text.
var emailRe = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+`)

// contactLinkSelector finds the first anchor that looks like a contact or
// about page, in Spanish or English.
const contactLinkSelector = `a[href*="contact"], a[href*="contacto"], a[href*="about"], a[href*="nosotros"]`

// Options configures a Resolver.
type Options struct {
	// Timeout bounds each page fetch. Default 5s.
	Timeout time.Duration

	// UserAgent for outgoing requests.
	UserAgent string

	// PlaceholderDomains are excluded from regex matches (website-builder
	// boilerplate, documentation examples). Default: example.com, wix.com.
	PlaceholderDomains []string

	// RatePerSec throttles fetches across all resolutions. Zero disables
	// throttling.
	RatePerSec float64
}

// Resolver discovers contact emails via bounded-time HTTP fetches and HTML
// inspection, with a one-level contact-page fallback.
type Resolver struct {
	http         *http.Client
	limiter      *rate.Limiter
	placeholders []string
	userAgent    string
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts Options) *Resolver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; LeadgenBot/1.0)"
	}
	placeholders := opts.PlaceholderDomains
	if placeholders == nil {
		placeholders = []string{"example.com", "wix.com"}
	}

	r := &Resolver{
		http: &http.Client{
			Timeout: timeout,
		},
		placeholders: placeholders,
		userAgent:    ua,
	}
	if opts.RatePerSec > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return r
}

// ResolveEmail attempts to find a contact email for the given website.
// It checks the homepage for mailto links and visible email tokens; when
// nothing is found it follows the first contact/about link and repeats the
// scan there. Returns the empty string when no email could be found.
func (r *Resolver) ResolveEmail(ctx context.Context, website string) string {
	if website == "" {
		return ""
	}

	homeURL := ensureScheme(website)
	home := r.fetch(ctx, homeURL)
	if home == nil {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(home))
	if err != nil {
		return ""
	}

	if email := r.extractEmail(doc); email != "" {
		return email
	}

	href, ok := doc.Find(contactLinkSelector).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	contactURL := resolveRef(homeURL, href)
	if contactURL == "" {
		return ""
	}

	zap.L().Debug("enrich: following contact link",
		zap.String("website", website),
		zap.String("contact_url", contactURL),
	)

	body := r.fetch(ctx, contactURL)
	if body == nil {
		return ""
	}
	contactDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return r.extractEmail(contactDoc)
}

// extractEmail scans a document for an email: first mailto anchor wins,
// else the first regex match whose domain is not a known placeholder.
func (r *Resolver) extractEmail(doc *goquery.Document) string {
	if href, ok := doc.Find(`a[href^="mailto:"]`).First().Attr("href"); ok {
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if addr = strings.TrimSpace(addr); addr != "" {
			return addr
		}
	}

	for _, match := range emailRe.FindAllString(doc.Text(), -1) {
		if !r.isPlaceholder(match) {
			return match
		}
	}
	return ""
}

func (r *Resolver) isPlaceholder(email string) bool {
	lower := strings.ToLower(email)
	for _, domain := range r.placeholders {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// fetch retrieves a page body, returning nil on any failure: timeout, DNS,
// non-2xx, read error.
func (r *Resolver) fetch(ctx context.Context, pageURL string) []byte {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		zap.L().Debug("enrich: fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil
	}
	return body
}

// ensureScheme prefixes https:// when the URL has no scheme.
func ensureScheme(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// resolveRef resolves href relative to base, returning "" on parse failure.
func resolveRef(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
