// Package mysql is the durable store behind the Repository port:
// bookings, chat sessions, the append-only message log and the
// second-tier recommendation cache.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"guest_concierge/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertBooking(ctx context.Context, b domain.Booking) error {
	_, err := r.db.ExecContext(ctx, upsertBookingSQL,
		b.BookingID,
		b.GuestName,
		b.GuestEmail,
		valStr(b.GuestPhone),
		b.HotelName,
		b.HotelLocation,
		valF64(b.Lat),
		valF64(b.Lon),
		valTime(b.CheckIn),
		valTime(b.CheckOut),
		b.GuestLanguage,
		valStr(b.ReferenceNumber),
		valStr(b.HotelID),
		valStr(b.BookingStatus),
		valStr(b.BookingSource),
		valJSON(b.RawJSON),
	)
	return err
}

func (r *Repo) SetBookingCoords(ctx context.Context, bookingID string, c domain.Coords) error {
	res, err := r.db.ExecContext(ctx, setBookingCoordsSQL, c.Lat, c.Lon, bookingID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is 0 both for a missing row and for an unchanged
		// one; distinguish with a lookup so unchanged coords stay a no-op.
		if _, gerr := r.GetBooking(ctx, bookingID); gerr != nil {
			return gerr
		}
	}
	return nil
}

func (r *Repo) GetBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, getBookingSQL, bookingID)

	var b domain.Booking
	var phone, refNum, hotelID, status, source sql.NullString
	var lat, lon sql.NullFloat64
	var checkIn, checkOut sql.NullTime
	var raw []byte

	if err := row.Scan(
		&b.ID,
		&b.BookingID,
		&b.GuestName,
		&b.GuestEmail,
		&phone,
		&b.HotelName,
		&b.HotelLocation,
		&lat, &lon,
		&checkIn, &checkOut,
		&b.GuestLanguage,
		&refNum, &hotelID, &status, &source,
		&raw,
		&b.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}

	b.GuestPhone = strPtr(phone)
	b.ReferenceNumber = strPtr(refNum)
	b.HotelID = strPtr(hotelID)
	b.BookingStatus = strPtr(status)
	b.BookingSource = strPtr(source)
	if lat.Valid && lon.Valid {
		la, lo := lat.Float64, lon.Float64
		b.Lat, b.Lon = &la, &lo
	}
	if checkIn.Valid {
		t := checkIn.Time
		b.CheckIn = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		b.CheckOut = &t
	}
	if len(raw) > 0 {
		b.RawJSON = append([]byte(nil), raw...)
	}
	return b, nil
}

func (r *Repo) CreateSession(ctx context.Context, s domain.ChatSession) error {
	_, err := r.db.ExecContext(ctx, insertSessionSQL, s.SessionID, s.BookingID, s.GuestLanguage, s.IsActive)
	return err
}

func (r *Repo) GetSession(ctx context.Context, sessionID string) (domain.ChatSession, error) {
	row := r.db.QueryRowContext(ctx, getSessionSQL, sessionID)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return domain.ChatSession{}, domain.ErrNotFound
	}
	return s, err
}

func (r *Repo) ListSessions(ctx context.Context, bookingID string) ([]domain.ChatSession, error) {
	return r.querySessions(ctx, listSessionsSQL, bookingID)
}

func (r *Repo) DeactivateSession(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, deactivateSessionSQL, sessionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, gerr := r.GetSession(ctx, sessionID); gerr != nil {
			return gerr
		}
	}
	return nil
}

func (r *Repo) DeactivateBookingSessions(ctx context.Context, bookingID string) error {
	_, err := r.db.ExecContext(ctx, deactivateBookingSessionsSQL, bookingID)
	return err
}

func (r *Repo) ListStaleSessions(ctx context.Context, idleSince time.Time, limit int) ([]domain.ChatSession, error) {
	return r.querySessions(ctx, listStaleSessionsSQL, idleSince, limit)
}

func (r *Repo) AppendMessage(ctx context.Context, m domain.ChatMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertMessageSQL, m.SessionID, m.Type, m.Content, valJSON(m.Metadata)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, touchSessionSQL, m.SessionID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, listMessagesSQL, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var meta []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Type, &m.Content, &meta, &m.Timestamp); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			m.Metadata = append(json.RawMessage(nil), meta...)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) GetCacheEntry(ctx context.Context, key domain.CacheKey) (domain.CacheEntry, error) {
	row := r.db.QueryRowContext(ctx, getCacheEntrySQL, key.LocationKey, key.Category, key.Language)

	var placesJSON []byte
	var expiresAt time.Time
	if err := row.Scan(&placesJSON, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.CacheEntry{}, domain.ErrNotFound
		}
		return domain.CacheEntry{}, err
	}

	e := domain.CacheEntry{Key: key, ExpiresAt: expiresAt}
	if err := json.Unmarshal(placesJSON, &e.Places); err != nil {
		return domain.CacheEntry{}, err
	}
	return e, nil
}

func (r *Repo) PutCacheEntry(ctx context.Context, e domain.CacheEntry) error {
	places, err := json.Marshal(e.Places)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, putCacheEntrySQL,
		e.Key.LocationKey, e.Key.Category, e.Key.Language, string(places), e.ExpiresAt)
	return err
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSession(row rowScanner) (domain.ChatSession, error) {
	var s domain.ChatSession
	err := row.Scan(&s.ID, &s.SessionID, &s.BookingID, &s.GuestLanguage, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *Repo) querySessions(ctx context.Context, query string, args ...any) ([]domain.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
