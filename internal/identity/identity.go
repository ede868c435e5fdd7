// Package identity derives canonical comparison keys from lead attributes.
// Keys are pure functions of their input: normalize(normalize(x)) == normalize(x).
package identity

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeWebsite reduces a raw, possibly protocol-less URL to a canonical
// key: case-folded, protocol and www prefixes stripped, trailing slashes
// stripped, whitespace trimmed. Empty input yields the empty key, which by
// construction never matches anything in an Index.
func NormalizeWebsite(raw string) string {
	key := strings.TrimSpace(cases.Fold().String(raw))

	for {
		switch {
		case strings.HasPrefix(key, "http://"):
			key = key[len("http://"):]
		case strings.HasPrefix(key, "https://"):
			key = key[len("https://"):]
		case strings.HasPrefix(key, "www."):
			key = key[len("www."):]
		default:
			key = strings.TrimRight(key, "/")
			return strings.TrimSpace(key)
		}
	}
}

// NormalizeName reduces a company name to a canonical key: case-folded,
// trimmed, internal whitespace runs collapsed to a single space.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(cases.Fold().String(raw)), " ")
}

// Spanish placeholder literals the scraper emits for unnamed businesses.
const (
	literalSinNombre          = "Sin Nombre"
	literalEmpresaDesconocida = "Empresa Desconocida"
)

// Markers classifies company names as generic (non-identifying). Generic
// names are excluded from duplicate comparison in both directions: they are
// never indexed and never checked, so any number of them can coexist.
type Markers struct {
	markers []string
}

// DefaultMarkers returns the default placeholder markers.
func DefaultMarkers() Markers {
	return NewMarkers("sin nombre", "empresa desconocida")
}

// NewMarkers builds a marker set from the given phrases. Each phrase is
// normalized before matching.
func NewMarkers(phrases ...string) Markers {
	m := Markers{markers: make([]string, 0, len(phrases))}
	for _, p := range phrases {
		if key := NormalizeName(p); key != "" {
			m.markers = append(m.markers, key)
		}
	}
	return m
}

// IsGeneric reports whether a company name is a placeholder. A name is
// generic when it exactly equals one of the Spanish literals, or when its
// normalized form equals or contains any configured marker.
func (m Markers) IsGeneric(name string) bool {
	if name == literalSinNombre || name == literalEmpresaDesconocida {
		return true
	}
	key := NormalizeName(name)
	if key == "" {
		return false
	}
	for _, marker := range m.markers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// Index holds the canonical identity keys of a user's historical lead
// corpus. It is built wholesale per acquisition run and never partially
// updated. The empty key is never stored.
type Index struct {
	websites map[string]struct{}
	names    map[string]struct{}
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		websites: make(map[string]struct{}),
		names:    make(map[string]struct{}),
	}
}

// AddWebsite records a normalized website key. The empty key is ignored.
func (i *Index) AddWebsite(key string) {
	if key != "" {
		i.websites[key] = struct{}{}
	}
}

// AddName records a normalized company-name key. The empty key is ignored.
func (i *Index) AddName(key string) {
	if key != "" {
		i.names[key] = struct{}{}
	}
}

// HasWebsite reports whether the key is a known website identity.
func (i *Index) HasWebsite(key string) bool {
	if key == "" {
		return false
	}
	_, ok := i.websites[key]
	return ok
}

// HasName reports whether the key is a known company-name identity.
func (i *Index) HasName(key string) bool {
	if key == "" {
		return false
	}
	_, ok := i.names[key]
	return ok
}

// Websites returns the number of indexed website keys.
func (i *Index) Websites() int { return len(i.websites) }

// Names returns the number of indexed name keys.
func (i *Index) Names() int { return len(i.names) }
