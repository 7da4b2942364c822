// Package mappls adapts the Mappls (MapMyIndia) Atlas APIs to the
// PlaceProvider port. It is the primary regional provider: nearby
// search and geocoding for Indian addresses, OAuth client-credentials
// auth with in-process token caching.
package mappls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"guest_concierge/internal/adapters/observability"
	"guest_concierge/internal/domain"
	"guest_concierge/internal/geo"
)

type Client struct {
	base     string
	tokenURL string
	clientID string
	secret   string
	hc       *http.Client
	rl       *rate.Limiter

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func New(base, tokenURL, clientID, secret string, rps int) (*Client, error) {
	if clientID == "" || secret == "" {
		return nil, fmt.Errorf("mappls: client credentials are required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		tokenURL: tokenURL,
		clientID: clientID,
		secret:   secret,
		hc:       &http.Client{Timeout: 20 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) Name() string { return "mappls" }

// Category keywords per the Mappls nearby-search code list.
var categoryKeywords = map[string]string{
	"restaurants": "FODCOF",
	"sightseeing": "TOUATT",
	"events":      "ENTCIN",
	"shopping":    "SHPMAL",
	"nightlife":   "FODBAR",
}

func (c *Client) Geocode(ctx context.Context, location string) (domain.Coords, error) {
	var out struct {
		CopResults struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"copResults"`
	}
	q := url.Values{"address": {location}}
	if err := c.get(ctx, c.base+"/places/geocode?"+q.Encode(), &out); err != nil {
		return domain.Coords{}, err
	}
	if out.CopResults.Latitude == 0 && out.CopResults.Longitude == 0 {
		return domain.Coords{}, fmt.Errorf("mappls: no geocode result for %q", location)
	}
	return domain.Coords{Lat: out.CopResults.Latitude, Lon: out.CopResults.Longitude}, nil
}

func (c *Client) SearchNearby(ctx context.Context, at domain.Coords, category string, radiusM, limit int) ([]domain.Place, error) {
	kw, ok := categoryKeywords[category]
	if !ok {
		return nil, fmt.Errorf("mappls: unsupported category %q", category)
	}

	var out struct {
		SuggestedLocations []struct {
			PlaceName    string  `json:"placeName"`
			PlaceAddress string  `json:"placeAddress"`
			Latitude     float64 `json:"latitude"`
			Longitude    float64 `json:"longitude"`
			ELoc         string  `json:"eLoc"`
		} `json:"suggestedLocations"`
	}
	q := url.Values{
		"keywords":    {kw},
		"refLocation": {fmt.Sprintf("%f,%f", at.Lat, at.Lon)},
		"radius":      {strconv.Itoa(radiusM)},
		"page":        {"1"},
	}
	if err := c.get(ctx, c.base+"/places/nearby/json?"+q.Encode(), &out); err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(out.SuggestedLocations))
	for _, l := range out.SuggestedLocations {
		if len(places) >= limit {
			break
		}
		places = append(places, domain.Place{
			Name:       l.PlaceName,
			Address:    l.PlaceAddress,
			Category:   category,
			ExternalID: l.ELoc,
			DistanceKm: geo.DistanceKm(at, domain.Coords{Lat: l.Latitude, Lon: l.Longitude}),
			// Mappls nearby search carries no ratings.
		})
	}
	return places, nil
}

// accessToken returns a cached OAuth token, refreshing it one minute
// before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.secret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("mappls: token request failed: %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", errors.New("mappls: empty access token")
	}
	if tok.ExpiresIn <= 0 {
		tok.ExpiresIn = 3600
	}
	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return c.token, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("mappls", req.URL.Path, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("mappls", req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mappls: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
