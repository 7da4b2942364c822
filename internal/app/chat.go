package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"guest_concierge/internal/domain"
	"guest_concierge/internal/i18n"
)

// ChatService owns the session lifecycle and routes guest messages to
// intent handlers. Downstream provider failures never surface to the
// guest; they degrade into localized apologies while the detail stays
// in the logs.
type ChatService struct {
	repo     domain.Repository
	resolver *Resolver
	geocoder *Geocoder
	newID    func() string
}

func NewChatService(repo domain.Repository, resolver *Resolver, geocoder *Geocoder) *ChatService {
	return &ChatService{repo: repo, resolver: resolver, geocoder: geocoder, newID: uuid.NewString}
}

// Reply is one bot turn: the rendered message plus optional structured
// metadata (attached recommendation list and the like).
type Reply struct {
	Message  string          `json:"message"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// CreateSession opens a chat session for a booking and seeds it with
// the localized welcome and category-options messages.
func (s *ChatService) CreateSession(ctx context.Context, bookingID, lang string) (domain.ChatSession, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("create session for %s: %w", bookingID, err)
	}

	if lang == "" {
		lang = b.GuestLanguage
	}
	lang = i18n.Normalize(lang)

	sess := domain.ChatSession{
		SessionID:     s.newID(),
		BookingID:     b.BookingID,
		GuestLanguage: lang,
		IsActive:      true,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return domain.ChatSession{}, err
	}

	welcome := i18n.Localize("welcome", lang, map[string]string{
		"guest": b.GuestName,
		"hotel": b.HotelName,
	})
	s.appendBot(ctx, sess.SessionID, welcome, map[string]any{"type": "welcome", "booking_id": b.BookingID})

	s.appendBot(ctx, sess.SessionID, categoryOptionsMessage(lang), map[string]any{
		"type":    "category_options",
		"options": categoryOptions(lang),
	})

	return sess, nil
}

/// ProcessMessage handles one guest turn: reject closed sessions, log
// the message, classify intent, produce the bot reply, log the reply.
func (s *ChatService) ProcessMessage(ctx context.Context, sessionID, message string) (Reply, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}
	if !sess.IsActive {
		// Closed sessions reject messages before anything is appended.
		return Reply{}, domain.ErrSessionClosed
	}

	if err := s.repo.AppendMessage(ctx, domain.ChatMessage{
		SessionID: sessionID,
		Type:      domain.MessageUser,
		Content:   message,
	}); err != nil {
		return Reply{}, err
	}

	lang := sess.GuestLanguage
	var reply Reply
	intent := ClassifyIntent(message, lang)
	switch intent {
	case IntentGreeting:
		reply = Reply{Message: i18n.Localize("greeting", lang, nil)}
	case IntentThanks:
		reply = Reply{Message: i18n.Localize("thanks", lang, nil)}
	case IntentUnknown:
		reply = Reply{Message: i18n.Localize("general_help", lang, nil)}
	default:
		reply = s.recommendReply(ctx, sess, intent.Category())
	}

	s.appendBotReply(ctx, sessionID, reply)
	return reply, nil
}

// Recommend serves the direct category endpoint, bypassing intent
// classification. The bot turn is still chat-logged.
func (s *ChatService) Recommend(ctx context.Context, sessionID, category string) (Reply, []domain.Place, error) {
	if !domain.ValidCategory(category) {
		return Reply{}, nil, fmt.Errorf("%w: category %q", domain.ErrNotFound, category)
	}
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return Reply{}, nil, err
	}
	if !sess.IsActive {
		return Reply{}, nil, domain.ErrSessionClosed
	}

	reply := s.recommendReply(ctx, sess, category)
	s.appendBotReply(ctx, sessionID, reply)

	var meta struct {
		Recommendations []domain.Place `json:"recommendations"`
	}
	if reply.Metadata != nil {
		_ = json.Unmarshal(reply.Metadata, &meta)
	}
	return reply, meta.Recommendations, nil
}

// History returns the ordered message log for a session.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID)
}

// recommendReply resolves a category for the session's booking,
// geocoding the hotel location once and persisting coordinates on the
// booking for subsequent turns.
func (s *ChatService) recommendReply(ctx context.Context, sess domain.ChatSession, category string) Reply {
	lang := sess.GuestLanguage
	label := i18n.CategoryLabel(category, lang)

	b, err := s.repo.GetBooking(ctx, sess.BookingID)
	if err != nil {
		log.Error().Str("booking_id", sess.BookingID).Err(err).Msg("booking lookup failed for recommendation")
		return Reply{Message: i18n.Localize("recs_unavailable", lang, map[string]string{"category": label})}
	}

	if !b.HasCoords() {
		coords, err := s.geocoder.Resolve(ctx, b.HotelLocation)
		if err != nil {
			log.Warn().Str("booking_id", b.BookingID).Str("location", b.HotelLocation).Err(err).Msg("geocoding unavailable")
			return Reply{Message: i18n.Localize("geocode_unavailable", lang, nil)}
		}
		if err := s.repo.SetBookingCoords(ctx, b.BookingID, coords); err != nil {
			log.Warn().Str("booking_id", b.BookingID).Err(err).Msg("persisting coordinates failed")
		}
		b.Lat, b.Lon = &coords.Lat, &coords.Lon
	}

	places, err := s.resolver.Recommend(ctx, b.Coords(), category, lang)
	if err != nil {
		log.Error().Str("category", category).Err(err).Msg("recommendation resolution failed")
		return Reply{Message: i18n.Localize("recs_unavailable", lang, map[string]string{"category": label})}
	}
	if len(places) == 0 {
		return Reply{Message: i18n.Localize("recs_empty", lang, map[string]string{"category": label})}
	}

	meta, _ := json.Marshal(map[string]any{
		"type":            "recommendations",
		"category":        category,
		"recommendations": places,
	})
	return Reply{Message: formatPlaces(places, label, lang), Metadata: meta}
}

// formatPlaces renders the top results as chat text; the full list
// travels in the metadata for rich clients.
func formatPlaces(places []domain.Place, label, lang string) string {
	var sb strings.Builder
	sb.WriteString(i18n.Localize("recs_header", lang, map[string]string{"category": label}))
	sb.WriteString("\n\n")

	shown := places
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for i, p := range shown {
		fmt.Fprintf(&sb, "%d. **%s**\n", i+1, p.Name)
		if p.Rating != nil {
			fmt.Fprintf(&sb, "   ⭐ %s: %.1f/5\n", i18n.Localize("label.rating", lang, nil), *p.Rating)
		}
		if p.DistanceKm > 0 {
			fmt.Fprintf(&sb, "   📍 %s: %.2f %s\n", i18n.Localize("label.distance", lang, nil), p.DistanceKm, i18n.Localize("unit.km", lang, nil))
		}
		if p.Address != "" {
			fmt.Fprintf(&sb, "   📍 %s: %s\n", i18n.Localize("label.address", lang, nil), p.Address)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func categoryOptions(lang string) map[string]string {
	out := make(map[string]string, len(domain.Categories))
	for _, c := range domain.Categories {
		out[c] = i18n.CategoryLabel(c, lang)
	}
	return out
}

func categoryOptionsMessage(lang string) string {
	var sb strings.Builder
	sb.WriteString(i18n.Localize("options_header", lang, nil))
	sb.WriteString("\n\n")
	for _, c := range domain.Categories {
		sb.WriteString("• " + i18n.CategoryLabel(c, lang) + "\n")
	}
	return sb.String()
}

func (s *ChatService) appendBotReply(ctx context.Context, sessionID string, r Reply) {
	msg := domain.ChatMessage{
		SessionID: sessionID,
		Type:      domain.MessageBot,
		Content:   r.Message,
		Metadata:  r.Metadata,
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		log.Error().Str("session_id", sessionID).Err(err).Msg("appending bot message failed")
	}
}

func (s *ChatService) appendBot(ctx context.Context, sessionID, content string, meta map[string]any) {
	raw, err := json.Marshal(meta)
	if err != nil {
		log.Error().Err(err).Msg("marshal message metadata failed")
	}
	s.appendBotReply(ctx, sessionID, Reply{Message: content, Metadata: raw})
}
