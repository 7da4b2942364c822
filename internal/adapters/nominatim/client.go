// Package nominatim adapts the OpenStreetMap Nominatim search API.
// Geocode-only: it sits last in the geocoding chain and declines
// nearby search so chain iteration moves on.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"guest_concierge/internal/domain"
)

type Client struct {
	base string
	hc   *http.Client
}

func New(base string) *Client {
	return &Client{base: base, hc: &http.Client{Timeout: 20 * time.Second}}
}

func (c *Client) Name() string { return "nominatim" }

func (c *Client) Geocode(ctx context.Context, location string) (domain.Coords, error) {
	q := url.Values{"q": {location}, "format": {"json"}, "limit": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/search?"+q.Encode(), nil)
	if err != nil {
		return domain.Coords{}, err
	}
	// Nominatim's usage policy requires an identifying agent.
	req.Header.Set("User-Agent", "guest-concierge/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		return domain.Coords{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Coords{}, fmt.Errorf("nominatim: bad status %d", resp.StatusCode)
	}

	// Coordinates come back as strings.
	var out []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Coords{}, err
	}
	if len(out) == 0 {
		return domain.Coords{}, fmt.Errorf("nominatim: no result for %q", location)
	}
	lat, err := strconv.ParseFloat(out[0].Lat, 64)
	if err != nil {
		return domain.Coords{}, fmt.Errorf("nominatim: bad latitude %q", out[0].Lat)
	}
	lon, err := strconv.ParseFloat(out[0].Lon, 64)
	if err != nil {
		return domain.Coords{}, fmt.Errorf("nominatim: bad longitude %q", out[0].Lon)
	}
	return domain.Coords{Lat: lat, Lon: lon}, nil
}

func (c *Client) SearchNearby(ctx context.Context, at domain.Coords, category string, radiusM, limit int) ([]domain.Place, error) {
	return nil, errors.New("nominatim: nearby search not supported")
}
