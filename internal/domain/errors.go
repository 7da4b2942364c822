package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrMalformedEvent marks an inbound payload matching neither event
	// shape or missing mandatory identifiers. Nothing is persisted.
	ErrMalformedEvent = errors.New("malformed booking event")

	// ErrGeocodeExhausted means every geocoding provider failed for a
	// location string. Bookings still persist without coordinates.
	ErrGeocodeExhausted = errors.New("geocoding providers exhausted")

	// ErrAllProvidersFailed means no place provider returned results for
	// a resolution attempt. Callers degrade to an apology message.
	ErrAllProvidersFailed = errors.New("all place providers failed")

	// ErrSessionClosed rejects messages sent to a deactivated session.
	ErrSessionClosed = errors.New("chat session closed")
)
