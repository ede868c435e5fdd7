package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospecta/leadgen-cli/pkg/apify"
)

func TestKeywordMatch(t *testing.T) {
	kw := DefaultKeywords()

	tests := []struct {
		name     string
		title    string
		category string
		want     bool
	}{
		{"title match", "Reformas García", "", true},
		{"category match", "García SL", "Empresa de construcción", true},
		{"stem match instalador", "Instaladores Pérez", "", true},
		{"stem match construcciones", "Construcciones del Norte", "", true},
		{"case insensitive", "REHABILITACION INTEGRAL", "", true},
		{"no match", "Panadería López", "Panadería", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordMatch(tt.title, tt.category, kw))
		})
	}
}

func TestScreenDropsGhosts(t *testing.T) {
	items := []apify.PlaceItem{
		{PlaceID: "p1", Title: "Reformas García", ReviewsCount: 5},
		{PlaceID: "p2", Title: "Obras Pérez", ReviewsCount: 0},
		{PlaceID: "p3", Title: "Construcciones Ruiz", ReviewsCount: 1},
	}

	kept := Screen(items, DefaultKeywords(), false)
	require.Len(t, kept, 2)
	assert.Equal(t, "p1", kept[0].PlaceID)
	assert.Equal(t, "p3", kept[1].PlaceID)
}

func TestScreenKeywordsNotEnforcedByDefault(t *testing.T) {
	items := []apify.PlaceItem{
		{PlaceID: "p1", Title: "Panadería López", CategoryName: "Panadería", ReviewsCount: 8},
	}

	kept := Screen(items, DefaultKeywords(), false)
	assert.Len(t, kept, 1, "off-niche items pass when enforcement is off")
}

func TestScreenKeywordsEnforced(t *testing.T) {
	items := []apify.PlaceItem{
		{PlaceID: "p1", Title: "Panadería López", CategoryName: "Panadería", ReviewsCount: 8},
		{PlaceID: "p2", Title: "Reformas García", CategoryName: "", ReviewsCount: 8},
	}

	kept := Screen(items, DefaultKeywords(), true)
	require.Len(t, kept, 1)
	assert.Equal(t, "p2", kept[0].PlaceID)
}

func TestScreenEmpty(t *testing.T) {
	assert.Empty(t, Screen(nil, DefaultKeywords(), true))
}
