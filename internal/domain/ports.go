package domain

import (
	"context"
	"time"
)

type Repository interface {
	// Booking writes
	UpsertBooking(ctx context.Context, b Booking) error
	SetBookingCoords(ctx context.Context, bookingID string, c Coords) error

	// Booking reads
	GetBooking(ctx context.Context, bookingID string) (Booking, error)

	// Sessions
	CreateSession(ctx context.Context, s ChatSession) error
	GetSession(ctx context.Context, sessionID string) (ChatSession, error)
	ListSessions(ctx context.Context, bookingID string) ([]ChatSession, error)
	DeactivateSession(ctx context.Context, sessionID string) error
	DeactivateBookingSessions(ctx context.Context, bookingID string) error
	ListStaleSessions(ctx context.Context, idleSince time.Time, limit int) ([]ChatSession, error)

	// Messages (append-only)
	AppendMessage(ctx context.Context, m ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]ChatMessage, error)

	// Durable recommendation cache (second tier behind Redis)
	GetCacheEntry(ctx context.Context, key CacheKey) (CacheEntry, error)
	PutCacheEntry(ctx context.Context, e CacheEntry) error
}

// PlaceProvider is the uniform capability surface of an external place
// backend. Providers that cannot serve one of the operations return an
// error so chain iteration advances to the next entry.
type PlaceProvider interface {
	Name() string
	Geocode(ctx context.Context, location string) (Coords, error)
	SearchNearby(ctx context.Context, at Coords, category string, radiusM, limit int) ([]Place, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
