// Package googleplaces adapts the Google Places and Geocoding web
// services to the PlaceProvider port. It is the general-purpose
// fallback behind the regional provider.
package googleplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"guest_concierge/internal/adapters/observability"
	"guest_concierge/internal/domain"
	"guest_concierge/internal/geo"
)

type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("googleplaces: API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) Name() string { return "googleplaces" }

var categoryTypes = map[string]string{
	"restaurants": "restaurant",
	"sightseeing": "tourist_attraction",
	"events":      "movie_theater",
	"shopping":    "shopping_mall",
	"nightlife":   "night_club",
}

func (c *Client) Geocode(ctx context.Context, location string) (domain.Coords, error) {
	var out struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	q := url.Values{"address": {location}, "key": {c.key}}
	if err := c.get(ctx, c.base+"/geocode/json?"+q.Encode(), &out); err != nil {
		return domain.Coords{}, err
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		return domain.Coords{}, fmt.Errorf("googleplaces: geocode status %s for %q", out.Status, location)
	}
	loc := out.Results[0].Geometry.Location
	return domain.Coords{Lat: loc.Lat, Lon: loc.Lng}, nil
}

func (c *Client) SearchNearby(ctx context.Context, at domain.Coords, category string, radiusM, limit int) ([]domain.Place, error) {
	placeType, ok := categoryTypes[category]
	if !ok {
		return nil, fmt.Errorf("googleplaces: unsupported category %q", category)
	}

	var out struct {
		Status  string `json:"status"`
		Results []struct {
			Name     string  `json:"name"`
			Rating   float64 `json:"rating"`
			Vicinity string  `json:"vicinity"`
			PlaceID  string  `json:"place_id"`
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	q := url.Values{
		"location": {fmt.Sprintf("%f,%f", at.Lat, at.Lon)},
		"radius":   {strconv.Itoa(radiusM)},
		"type":     {placeType},
		"key":      {c.key},
	}
	if err := c.get(ctx, c.base+"/place/nearbysearch/json?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if out.Status != "OK" && out.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("googleplaces: nearby search status %s", out.Status)
	}

	places := make([]domain.Place, 0, len(out.Results))
	for _, r := range out.Results {
		if len(places) >= limit {
			break
		}
		p := domain.Place{
			Name:       r.Name,
			Address:    r.Vicinity,
			Category:   category,
			ExternalID: r.PlaceID,
			DistanceKm: geo.DistanceKm(at, domain.Coords{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng}),
		}
		if r.Rating > 0 {
			rating := r.Rating
			p.Rating = &rating
		}
		places = append(places, p)
	}
	return places, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("googleplaces", req.URL.Path, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("googleplaces", req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("googleplaces: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
