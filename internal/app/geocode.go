package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"guest_concierge/internal/domain"
)

// Geocoder resolves a free-text hotel location through an ordered
// provider chain. Each attempt runs under its own timeout so one slow
// provider cannot stall the chain past timeout*len(providers).
type Geocoder struct {
	providers []domain.PlaceProvider
	timeout   time.Duration
}

func NewGeocoder(providers []domain.PlaceProvider, timeout time.Duration) *Geocoder {
	return &Geocoder{providers: providers, timeout: timeout}
}

// Resolve returns the first provider's coordinates; any provider error
// (timeout, non-2xx, malformed body) advances to the next entry.
// domain.ErrGeocodeExhausted is returned only when every provider fails.
func (g *Geocoder) Resolve(ctx context.Context, location string) (domain.Coords, error) {
	for _, p := range g.providers {
		pctx, cancel := context.WithTimeout(ctx, g.timeout)
		c, err := p.Geocode(pctx, location)
		cancel()
		if err != nil {
			log.Warn().Str("provider", p.Name()).Str("location", location).Err(err).Msg("geocode attempt failed")
			continue
		}
		return c, nil
	}
	return domain.Coords{}, domain.ErrGeocodeExhausted
}
