package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"guest_concierge/internal/domain"
)

// fakeRepo is an in-memory Repository for unit tests.
type fakeRepo struct {
	mu       sync.Mutex
	bookings map[string]domain.Booking
	sessions map[string]domain.ChatSession
	messages map[string][]domain.ChatMessage
	cache    map[domain.CacheKey]domain.CacheEntry

	failUpsert error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings: map[string]domain.Booking{},
		sessions: map[string]domain.ChatSession{},
		messages: map[string][]domain.ChatMessage{},
		cache:    map[domain.CacheKey]domain.CacheEntry{},
	}
}

func (f *fakeRepo) UpsertBooking(ctx context.Context, b domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert != nil {
		return f.failUpsert
	}
	if old, ok := f.bookings[b.BookingID]; ok {
		// present fields win, absent ones keep the stored value
		if b.GuestName == "" {
			b.GuestName = old.GuestName
		}
		if b.GuestEmail == "" {
			b.GuestEmail = old.GuestEmail
		}
		if b.GuestPhone == nil {
			b.GuestPhone = old.GuestPhone
		}
		if b.HotelName == "" {
			b.HotelName = old.HotelName
		}
		if b.HotelLocation == "" {
			b.HotelLocation = old.HotelLocation
		}
		if b.Lat == nil {
			b.Lat, b.Lon = old.Lat, old.Lon
		}
		if b.CheckIn == nil {
			b.CheckIn = old.CheckIn
		}
		if b.CheckOut == nil {
			b.CheckOut = old.CheckOut
		}
		if b.GuestLanguage == "" {
			b.GuestLanguage = old.GuestLanguage
		}
		if b.ReferenceNumber == nil {
			b.ReferenceNumber = old.ReferenceNumber
		}
		if b.HotelID == nil {
			b.HotelID = old.HotelID
		}
		if b.BookingStatus == nil {
			b.BookingStatus = old.BookingStatus
		}
		if b.BookingSource == nil {
			b.BookingSource = old.BookingSource
		}
	}
	f.bookings[b.BookingID] = b
	return nil
}

func (f *fakeRepo) SetBookingCoords(ctx context.Context, bookingID string, c domain.Coords) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return domain.ErrNotFound
	}
	b.Lat, b.Lon = &c.Lat, &c.Lon
	f.bookings[bookingID] = b
	return nil
}

func (f *fakeRepo) GetBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeRepo) CreateSession(ctx context.Context, s domain.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
		s.UpdatedAt = s.CreatedAt
	}
	f.sessions[s.SessionID] = s
	return nil
}

func (f *fakeRepo) GetSession(ctx context.Context, sessionID string) (domain.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return domain.ChatSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) ListSessions(ctx context.Context, bookingID string) ([]domain.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ChatSession
	for _, s := range f.sessions {
		if s.BookingID == bookingID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeactivateSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.IsActive = false
	f.sessions[sessionID] = s
	return nil
}

func (f *fakeRepo) DeactivateBookingSessions(ctx context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if s.BookingID == bookingID {
			s.IsActive = false
			f.sessions[id] = s
		}
	}
	return nil
}

func (f *fakeRepo) ListStaleSessions(ctx context.Context, idleSince time.Time, limit int) ([]domain.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ChatSession
	for _, s := range f.sessions {
		if s.IsActive && s.UpdatedAt.Before(idleSince) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) AppendMessage(ctx context.Context, m domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[m.SessionID]; !ok {
		return domain.ErrNotFound
	}
	m.Timestamp = time.Now()
	f.messages[m.SessionID] = append(f.messages[m.SessionID], m)
	s := f.sessions[m.SessionID]
	s.UpdatedAt = m.Timestamp
	f.sessions[m.SessionID] = s
	return nil
}

func (f *fakeRepo) ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ChatMessage(nil), f.messages[sessionID]...), nil
}

func (f *fakeRepo) GetCacheEntry(ctx context.Context, key domain.CacheKey) (domain.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.cache[key]
	if !ok {
		return domain.CacheEntry{}, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeRepo) PutCacheEntry(ctx context.Context, e domain.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[e.Key] = e
	return nil
}

// fakeCache is a TTL-less in-memory Cache.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	c.sets++
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// fakeProvider is a scriptable PlaceProvider that counts calls.
type fakeProvider struct {
	name string

	coords     domain.Coords
	geocodeErr error

	places    []domain.Place
	searchErr error

	geocodeCalls int
	searchCalls  int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Geocode(ctx context.Context, location string) (domain.Coords, error) {
	p.geocodeCalls++
	if p.geocodeErr != nil {
		return domain.Coords{}, p.geocodeErr
	}
	return p.coords, nil
}

func (p *fakeProvider) SearchNearby(ctx context.Context, at domain.Coords, category string, radiusM, limit int) ([]domain.Place, error) {
	p.searchCalls++
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	return append([]domain.Place(nil), p.places...), nil
}

var errBoom = errors.New("boom")
