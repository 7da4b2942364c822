package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"guest_concierge/internal/app"
	"guest_concierge/internal/domain"
)

type Handlers struct {
	Ingest *app.IngestService
	Chat   *app.ChatService
	Repo   domain.Repository

	// WebhookSecret signs inbound webhook bodies; empty disables
	// verification (local development only).
	WebhookSecret string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Post("/webhook/booking", h.bookingWebhook)

	s.mux.Post("/v1/chat/message", h.postMessage)
	s.mux.Get("/v1/chat/recommendations/{session_id}/{category}", h.getRecommendations)
	s.mux.Get("/v1/chat/history/{session_id}", h.getHistory)

	s.mux.Get("/v1/bookings/{booking_id}", h.getBooking)
	s.mux.Get("/v1/bookings/{booking_id}/sessions", h.listSessions)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeServiceError maps domain sentinels onto HTTP statuses; anything
// unrecognized is a 500 with the detail kept out of the response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrSessionClosed):
		writeProblem(w, http.StatusConflict, "Session Closed", "this chat session is no longer active")
	case errors.Is(err, domain.ErrMalformedEvent):
		writeProblem(w, http.StatusBadRequest, "Malformed Event", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handlers) bookingWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "unreadable body")
		return
	}
	if !h.verifySignature(body, r.Header.Get("X-Signature-256")) {
		writeProblem(w, http.StatusUnauthorized, "Invalid Signature", "webhook signature verification failed")
		return
	}

	res, err := h.Ingest.ProcessEvent(r.Context(), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) verifySignature(body []byte, sig string) bool {
	if h.WebhookSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(h.WebhookSecret))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(sig))
}

type chatMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatMessageResponse struct {
	SessionID string          `json:"session_id"`
	Response  string          `json:"response"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

func (h *Handlers) postMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "session_id and message are required")
		return
	}

	reply, err := h.Chat.ProcessMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatMessageResponse{
		SessionID: req.SessionID,
		Response:  reply.Message,
		Metadata:  reply.Metadata,
	})
}

func (h *Handlers) getRecommendations(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	category := chi.URLParam(r, "category")

	reply, places, err := h.Chat.Recommend(r.Context(), sessionID, category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":      sessionID,
		"category":        category,
		"message":         reply.Message,
		"recommendations": places,
	})
}

type historyMessage struct {
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func (h *Handlers) getHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	msgs, err := h.Chat.History(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]historyMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, historyMessage{Type: m.Type, Content: m.Content, Metadata: m.Metadata, Timestamp: m.Timestamp})
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "messages": out})
}

type bookingResponse struct {
	BookingID     string     `json:"booking_id"`
	GuestName     string     `json:"guest_name"`
	GuestEmail    string     `json:"guest_email,omitempty"`
	HotelName     string     `json:"hotel_name"`
	HotelLocation string     `json:"hotel_location"`
	Lat           *float64   `json:"lat,omitempty"`
	Lon           *float64   `json:"lon,omitempty"`
	CheckIn       *time.Time `json:"check_in,omitempty"`
	CheckOut      *time.Time `json:"check_out,omitempty"`
	GuestLanguage string     `json:"guest_language"`
	BookingStatus *string    `json:"booking_status,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Repo.GetBooking(r.Context(), chi.URLParam(r, "booking_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{
		BookingID:     b.BookingID,
		GuestName:     b.GuestName,
		GuestEmail:    b.GuestEmail,
		HotelName:     b.HotelName,
		HotelLocation: b.HotelLocation,
		Lat:           b.Lat,
		Lon:           b.Lon,
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
		GuestLanguage: b.GuestLanguage,
		BookingStatus: b.BookingStatus,
		CreatedAt:     b.CreatedAt,
	})
}

type sessionView struct {
	SessionID     string    `json:"session_id"`
	GuestLanguage string    `json:"guest_language"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (h *Handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "booking_id")
	if _, err := h.Repo.GetBooking(r.Context(), bookingID); err != nil {
		writeServiceError(w, err)
		return
	}

	sessions, err := h.Repo.ListSessions(r.Context(), bookingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionView{
			SessionID:     s.SessionID,
			GuestLanguage: s.GuestLanguage,
			IsActive:      s.IsActive,
			CreatedAt:     s.CreatedAt,
			UpdatedAt:     s.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking_id": bookingID, "sessions": out})
}
