package domain

import "time"

// Place is a provider-normalized nearby result. Provider-specific
// response fields never leak past the adapter that produced it;
// ExternalID is the only provider-scoped value carried through.
type Place struct {
	Name       string   `json:"name"`
	Rating     *float64 `json:"rating,omitempty"` // 0..5, absent when the provider has none
	DistanceKm float64  `json:"distance_km"`
	Address    string   `json:"address"`
	Category   string   `json:"category"`
	ExternalID string   `json:"external_id"`
}

// Recommendation categories a guest can ask for.
var Categories = []string{"restaurants", "sightseeing", "events", "shopping", "nightlife"}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// CacheKey partitions cached recommendation sets. LocationKey is the
// rounded-coordinate fingerprint; category and language are separate
// facets because result sets differ per both.
type CacheKey struct {
	LocationKey string
	Category    string
	Language    string
}

type CacheEntry struct {
	Key       CacheKey
	Places    []Place
	ExpiresAt time.Time
}
