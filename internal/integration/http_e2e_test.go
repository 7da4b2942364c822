//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "guest_concierge/internal/adapters/http_server"
	redisad "guest_concierge/internal/adapters/redis"
	"guest_concierge/internal/app"
	"guest_concierge/internal/domain"
	mysqlrepo "guest_concierge/internal/storage/mysql"
)

const webhookSecret = "e2e-secret"

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// stubProvider answers geocoding and nearby search in-process so the
// end-to-end flow never leaves the test.
type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Geocode(ctx context.Context, location string) (domain.Coords, error) {
	return domain.Coords{Lat: 28.6315, Lon: 77.2167}, nil
}

func (stubProvider) SearchNearby(ctx context.Context, at domain.Coords, category string, radiusM, limit int) ([]domain.Place, error) {
	rating := 4.4
	return []domain.Place{
		{Name: "Karim's", Rating: &rating, DistanceKm: 1.2, Address: "Jama Masjid", Category: category, ExternalID: "stub-1"},
	}, nil
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHTTP_EndToEnd_BookingToRecommendation(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=concierge",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "concierge")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	// Full stack with in-process providers and Redis.
	mr := miniredis.RunT(t)
	repo := mysqlrepo.New(db)
	cache := redisad.New(mr.Addr(), "", 0)
	providers := []domain.PlaceProvider{stubProvider{}}

	geocoder := app.NewGeocoder(providers, 2*time.Second)
	resolver := app.NewResolver(providers, cache, repo, 15*time.Minute, 2*time.Second, 5000, 20)
	chat := app.NewChatService(repo, resolver, geocoder)
	ingest := app.NewIngestService(repo, geocoder, chat)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Ingest: ingest, Chat: chat, Repo: repo, WebhookSecret: webhookSecret})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// 1. Webhook delivers a booking-created event.
	event := []byte(`{
		"event_type": "booking.created",
		"booking": {
			"booking_id": "BK-E2E-1",
			"guest_name": "Ana Torres",
			"guest_email": "ana@example.com",
			"hotel_name": "The Imperial",
			"hotel_location": "Janpath, New Delhi",
			"guest_language": "es"
		}
	}`)

	// Tampered signature is rejected.
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/webhook/booking", bytes.NewReader(event))
	req.Header.Set("X-Signature-256", "sha256=deadbeef")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST webhook: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tampered webhook: status %d", res.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/webhook/booking", bytes.NewReader(event))
	req.Header.Set("X-Signature-256", sign(event))
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST webhook: %v", err)
	}
	var ingestRes struct {
		Status    string `json:"status"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ingestRes); err != nil {
		t.Fatalf("decode webhook response: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK || ingestRes.Status != "success" || ingestRes.SessionID == "" {
		t.Fatalf("webhook result: status=%d body=%+v", res.StatusCode, ingestRes)
	}

	// 2. Guest asks for food; reply is localized and carries places.
	msg, _ := json.Marshal(map[string]string{"session_id": ingestRes.SessionID, "message": "algún restaurante cerca?"})
	res, err = http.Post(ts.URL+"/v1/chat/message", "application/json", bytes.NewReader(msg))
	if err != nil {
		t.Fatalf("POST message: %v", err)
	}
	var chatRes struct {
		Response string          `json:"response"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.NewDecoder(res.Body).Decode(&chatRes); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK || !strings.Contains(chatRes.Response, "Karim's") {
		t.Fatalf("chat response: status=%d %q", res.StatusCode, chatRes.Response)
	}

	// 3. Direct category endpoint returns the structured list.
	res, err = http.Get(ts.URL + "/v1/chat/recommendations/" + ingestRes.SessionID + "/restaurants")
	if err != nil {
		t.Fatalf("GET recommendations: %v", err)
	}
	var recRes struct {
		Recommendations []domain.Place `json:"recommendations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&recRes); err != nil {
		t.Fatalf("decode recommendations: %v", err)
	}
	res.Body.Close()
	if len(recRes.Recommendations) != 1 || recRes.Recommendations[0].Name != "Karim's" {
		t.Fatalf("unexpected recommendations: %+v", recRes.Recommendations)
	}

	// 4. History carries the seeded bootstrap plus both turns.
	res, err = http.Get(ts.URL + "/v1/chat/history/" + ingestRes.SessionID)
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	var histRes struct {
		Messages []struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(res.Body).Decode(&histRes); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	res.Body.Close()
	if len(histRes.Messages) < 4 {
		t.Fatalf("history too short: %+v", histRes.Messages)
	}
	if histRes.Messages[0].Type != "bot" || !strings.Contains(histRes.Messages[0].Content, "Ana Torres") {
		t.Fatalf("welcome message missing: %+v", histRes.Messages[0])
	}

	// 5. Cancellation closes the session; further messages get 409.
	cancelEvent := []byte(`{
		"event_type": "booking.cancelled",
		"booking": {"booking_id": "BK-E2E-1"}
	}`)
	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/webhook/booking", bytes.NewReader(cancelEvent))
	req.Header.Set("X-Signature-256", sign(cancelEvent))
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST cancel: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cancel status %d", res.StatusCode)
	}

	res, err = http.Post(ts.URL+"/v1/chat/message", "application/json", bytes.NewReader(msg))
	if err != nil {
		t.Fatalf("POST message after cancel: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("closed session: want 409, got %d", res.StatusCode)
	}
}
