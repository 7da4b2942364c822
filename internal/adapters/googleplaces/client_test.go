package googleplaces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"guest_concierge/internal/domain"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key")
		}
		if r.URL.Query().Get("address") == "Atlantis" {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":28.6315,"lng":77.2167}}}]}`))
	})
	mux.HandleFunc("/place/nearbysearch/json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("type") {
		case "restaurant":
			_, _ = w.Write([]byte(`{"status":"OK","results":[
				{"name":"Karim's","rating":4.4,"vicinity":"Jama Masjid","place_id":"gp-1",
				 "geometry":{"location":{"lat":28.6505,"lng":77.2334}}},
				{"name":"Unrated Dhaba","vicinity":"Old Delhi","place_id":"gp-2",
				 "geometry":{"location":{"lat":28.6510,"lng":77.2340}}}
			]}`))
		case "night_club":
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		default:
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","results":[]}`))
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClient_RequiresKey(t *testing.T) {
	if _, err := New("http://x", "", 5); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestClient_Geocode(t *testing.T) {
	c := newTestClient(t)

	coords, err := c.Geocode(context.Background(), "Janpath, New Delhi")
	if err != nil {
		t.Fatal(err)
	}
	if coords.Lat != 28.6315 || coords.Lon != 77.2167 {
		t.Fatalf("coords: %+v", coords)
	}

	if _, err := c.Geocode(context.Background(), "Atlantis"); err == nil {
		t.Fatal("expected error for ZERO_RESULTS geocode")
	}
}

func TestClient_SearchNearby(t *testing.T) {
	c := newTestClient(t)
	at := domain.Coords{Lat: 28.6315, Lon: 77.2167}

	places, err := c.SearchNearby(context.Background(), at, "restaurants", 5000, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != 2 {
		t.Fatalf("places: %d", len(places))
	}
	if places[0].Name != "Karim's" || places[0].Rating == nil || *places[0].Rating != 4.4 {
		t.Fatalf("rated place: %+v", places[0])
	}
	if places[1].Rating != nil {
		t.Fatalf("zero rating must map to nil: %+v", places[1])
	}
	if places[0].DistanceKm <= 0 {
		t.Fatalf("distance not computed: %+v", places[0])
	}
}

func TestClient_SearchNearby_ZeroResults(t *testing.T) {
	c := newTestClient(t)

	places, err := c.SearchNearby(context.Background(), domain.Coords{Lat: 28.6, Lon: 77.2}, "nightlife", 5000, 10)
	if err != nil {
		t.Fatalf("ZERO_RESULTS must not error: %v", err)
	}
	if len(places) != 0 {
		t.Fatalf("places: %+v", places)
	}
}

func TestClient_SearchNearby_BadStatus(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.SearchNearby(context.Background(), domain.Coords{Lat: 28.6, Lon: 77.2}, "shopping", 5000, 10); err == nil {
		t.Fatal("expected error for REQUEST_DENIED")
	}
}

func TestClient_UnknownCategory(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.SearchNearby(context.Background(), domain.Coords{Lat: 28.6, Lon: 77.2}, "casinos", 5000, 10); err == nil {
		t.Fatal("expected error for unsupported category")
	}
}
