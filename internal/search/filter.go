package search

import (
	"strings"

	"go.uber.org/zap"

	"github.com/prospecta/leadgen-cli/internal/metrics"
	"github.com/prospecta/leadgen-cli/pkg/apify"
)

// DefaultKeywords are the construction-sector substrings matched against a
// place's title and category. Partial stems on purpose: "instalad" covers
// instalador and instaladores, "construcc" covers construcción and
// construcciones.
func DefaultKeywords() []string {
	return []string{"reformas", "obras", "instalad", "construcc", "rehabilitacion"}
}

// KeywordMatch reports whether the title or category contains any of the
// keywords, case-insensitively.
func KeywordMatch(title, category string, keywords []string) bool {
	haystack := strings.ToLower(title + " " + category)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Screen applies the acquisition filters to raw provider items. Items with
// zero reviews are always dropped as ghost listings. The keyword filter is
// computed for every item but only enforced when enforceKeywords is set;
// otherwise off-niche items pass through with a log line.
func Screen(items []apify.PlaceItem, keywords []string, enforceKeywords bool) []apify.PlaceItem {
	kept := make([]apify.PlaceItem, 0, len(items))

	for _, item := range items {
		if item.ReviewsCount == 0 {
			metrics.RecordGhostDropped()
			zap.L().Debug("dropping ghost listing",
				zap.String("title", item.Title),
				zap.String("place_id", item.PlaceID),
			)
			continue
		}

		if !KeywordMatch(item.Title, item.CategoryName, keywords) {
			if enforceKeywords {
				zap.L().Debug("dropping off-niche listing",
					zap.String("title", item.Title),
					zap.String("category", item.CategoryName),
				)
				continue
			}
			zap.L().Debug("off-niche listing kept, keyword filter not enforced",
				zap.String("title", item.Title),
				zap.String("category", item.CategoryName),
			)
		}

		kept = append(kept, item)
	}

	zap.L().Info("screening complete",
		zap.Int("raw", len(items)),
		zap.Int("kept", len(kept)),
		zap.Bool("keywords_enforced", enforceKeywords),
	)
	return kept
}
