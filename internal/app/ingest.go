package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"guest_concierge/internal/domain"
	"guest_concierge/internal/i18n"
)

// IngestService turns inbound booking events into canonical records and
// chat sessions. It is the single entry point for both the webhook and
// the queue consumer, so delivery transport never changes semantics.
type IngestService struct {
	repo     domain.Repository
	geocoder *Geocoder
	chat     *ChatService
}

func NewIngestService(repo domain.Repository, geocoder *Geocoder, chat *ChatService) *IngestService {
	return &IngestService{repo: repo, geocoder: geocoder, chat: chat}
}

type IngestResult struct {
	Status    string `json:"status"` // success|ignored|not_found
	Message   string `json:"message,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ProcessEvent normalizes and applies one event. Re-delivery of the
// same booking_id updates the existing record and opens a fresh chat
// session, so the pipeline is idempotent under at-least-once delivery.
func (s *IngestService) ProcessEvent(ctx context.Context, raw []byte) (IngestResult, error) {
	ev, err := NormalizeEvent(raw)
	if err != nil {
		return IngestResult{}, err
	}

	switch ev.Type {
	case EventBookingCreated:
		return s.applyCreated(ctx, ev.Booking)
	case EventBookingUpdated:
		return s.applyUpdated(ctx, ev.Booking)
	case EventBookingCancelled:
		return s.applyCancelled(ctx, ev.Booking)
	default:
		log.Warn().Str("event_type", ev.Type).Msg("unknown event type ignored")
		return IngestResult{Status: "ignored", Message: "unknown event type: " + ev.Type}, nil
	}
}

func (s *IngestService) applyCreated(ctx context.Context, b domain.Booking) (IngestResult, error) {
	existing, err := s.repo.GetBooking(ctx, b.BookingID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		applyCreationDefaults(&b)
	case err != nil:
		return IngestResult{}, err
	default:
		// Re-delivery of a known booking: absent fields merge in the
		// upsert, the fresh session speaks the stored language.
		if b.GuestLanguage == "" {
			b.GuestLanguage = existing.GuestLanguage
		}
	}

	// Geocode before the upsert so the coordinates land in the same
	// write. Exhaustion is tolerated: the booking persists without
	// coordinates and the chat flow geocodes lazily later.
	s.geocode(ctx, &b)

	if err := s.repo.UpsertBooking(ctx, b); err != nil {
		return IngestResult{}, fmt.Errorf("upsert booking %s: %w", b.BookingID, err)
	}

	sess, err := s.chat.CreateSession(ctx, b.BookingID, b.GuestLanguage)
	if err != nil {
		return IngestResult{}, fmt.Errorf("bootstrap session for %s: %w", b.BookingID, err)
	}

	log.Info().Str("booking_id", b.BookingID).Str("session_id", sess.SessionID).Msg("booking ingested")
	return IngestResult{
		Status:    "success",
		Message:   "booking processed and chat session created",
		BookingID: b.BookingID,
		SessionID: sess.SessionID,
	}, nil
}

func (s *IngestService) applyUpdated(ctx context.Context, b domain.Booking) (IngestResult, error) {
	existing, err := s.repo.GetBooking(ctx, b.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("booking_id", b.BookingID).Msg("update for unknown booking")
			return IngestResult{Status: "not_found", BookingID: b.BookingID}, nil
		}
		return IngestResult{}, err
	}

	// Re-geocode only when the location actually moved.
	if b.HotelLocation != "" && b.HotelLocation != existing.HotelLocation {
		s.geocode(ctx, &b)
	}

	if err := s.repo.UpsertBooking(ctx, b); err != nil {
		return IngestResult{}, fmt.Errorf("update booking %s: %w", b.BookingID, err)
	}
	log.Info().Str("booking_id", b.BookingID).Msg("booking updated")
	return IngestResult{Status: "success", Message: "booking updated", BookingID: b.BookingID}, nil
}

func (s *IngestService) applyCancelled(ctx context.Context, b domain.Booking) (IngestResult, error) {
	if _, err := s.repo.GetBooking(ctx, b.BookingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return IngestResult{Status: "not_found", BookingID: b.BookingID}, nil
		}
		return IngestResult{}, err
	}

	// The booking row stays for audit; only the sessions close.
	if err := s.repo.DeactivateBookingSessions(ctx, b.BookingID); err != nil {
		return IngestResult{}, fmt.Errorf("deactivate sessions for %s: %w", b.BookingID, err)
	}
	log.Info().Str("booking_id", b.BookingID).Msg("booking cancelled, sessions closed")
	return IngestResult{Status: "success", Message: "booking cancellation processed", BookingID: b.BookingID}, nil
}

// applyCreationDefaults fills the gaps of a brand-new booking. Only the
// create path calls it: a partial update or re-delivery carries its
// absent fields into the upsert merge, which keeps the stored values.
func applyCreationDefaults(b *domain.Booking) {
	if b.HotelLocation == "" {
		b.HotelLocation = placeholderLocation
	}
	if b.GuestLanguage == "" {
		b.GuestLanguage = i18n.DefaultLanguage
	}
	if b.BookingStatus == nil {
		b.BookingStatus = ptrStr("reserved")
	}
}

func (s *IngestService) geocode(ctx context.Context, b *domain.Booking) {
	if b.HotelLocation == "" || b.HotelLocation == placeholderLocation {
		return
	}
	coords, err := s.geocoder.Resolve(ctx, b.HotelLocation)
	if err != nil {
		log.Warn().Str("booking_id", b.BookingID).Str("location", b.HotelLocation).Err(err).Msg("geocoding failed during ingest")
		return
	}
	b.Lat, b.Lon = &coords.Lat, &coords.Lon
}
