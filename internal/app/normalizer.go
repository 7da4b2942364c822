package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"guest_concierge/internal/domain"
	"guest_concierge/internal/i18n"
)

// Booking event types accepted from the webhook and the queue.
const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingCancelled = "booking.cancelled"
)

// NormalizedEvent is the single canonical form both inbound shapes
// reduce to before any side effect happens.
type NormalizedEvent struct {
	Type    string
	Booking domain.Booking
}

// envelope covers both wire variants: the enveloped shape carries an
// events list of {entity_name, payload} entries, the legacy shape an
// inline booking object. Presence of one discriminates the union.
type envelope struct {
	EventType string          `json:"event_type"`
	Events    []envelopeEntry `json:"events"`
	Booking   json.RawMessage `json:"booking"`
}

type envelopeEntry struct {
	EntityName string          `json:"entity_name"`
	Payload    json.RawMessage `json:"payload"`
}

type legacyBooking struct {
	BookingID       string `json:"booking_id"`
	ReferenceNumber string `json:"reference_number"`
	HotelID         string `json:"hotel_id"`
	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	GuestPhone      string `json:"guest_phone"`
	HotelName       string `json:"hotel_name"`
	HotelLocation   string `json:"hotel_location"`
	CheckInDate     string `json:"check_in_date"`
	CheckOutDate    string `json:"check_out_date"`
	GuestLanguage   string `json:"guest_language"`
	Status          string `json:"status"`
	Source          string `json:"source"`
}

type envBooking struct {
	BookingID       string        `json:"booking_id"`
	ReferenceNumber string        `json:"reference_number"`
	HotelID         string        `json:"hotel_id"`
	Status          string        `json:"status"`
	CheckinDate     string        `json:"checkin_date"`
	CheckoutDate    string        `json:"checkout_date"`
	GuestLanguage   string        `json:"guest_language"`
	Customers       []envCustomer `json:"customers"`
	Source          struct {
		ChannelCode string `json:"channel_code"`
	} `json:"source"`
}

type envCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     struct {
		Number      string `json:"number"`
		CountryCode string `json:"country_code"`
	} `json:"phone"`
	IsPrimary bool `json:"is_primary"`
	Dummy     bool `json:"dummy"`
}

type envBill struct {
	VendorDetails struct {
		HotelName  string `json:"hotel_name"`
		VendorName string `json:"vendor_name"`
		Address    struct {
			Field1 string `json:"field_1"`
			City   string `json:"city"`
			State  string `json:"state"`
		} `json:"address"`
	} `json:"vendor_details"`
}

const placeholderLocation = "Location not provided"

// NormalizeEvent converts a raw inbound payload into a NormalizedEvent.
// It returns domain.ErrMalformedEvent when neither shape matches or the
// mandatory identifier (booking_id, falling back to reference_number)
// is absent; nothing is persisted on that path.
//
// Fields absent from the payload stay zero-valued. Creation defaults
// (placeholder location, reserved status, English) belong to the ingest
// create path, never here: a partial re-delivery must reach the upsert
// merge with its gaps intact so stored values survive.
func NormalizeEvent(raw []byte) (NormalizedEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return NormalizedEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}

	var (
		b   domain.Booking
		err error
	)
	switch {
	case len(env.Events) > 0:
		b, err = normalizeEnveloped(env.Events)
	case len(env.Booking) > 0:
		b, err = normalizeLegacy(env.Booking)
	default:
		return NormalizedEvent{}, fmt.Errorf("%w: no events list and no booking object", domain.ErrMalformedEvent)
	}
	if err != nil {
		return NormalizedEvent{}, err
	}

	if b.BookingID == "" {
		if b.ReferenceNumber == nil || *b.ReferenceNumber == "" {
			return NormalizedEvent{}, fmt.Errorf("%w: missing booking_id and reference_number", domain.ErrMalformedEvent)
		}
		b.BookingID = *b.ReferenceNumber
	}

	b.RawJSON = append([]byte(nil), raw...)
	return NormalizedEvent{Type: env.EventType, Booking: b}, nil
}

func normalizeLegacy(raw json.RawMessage) (domain.Booking, error) {
	var lb legacyBooking
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Booking{}, fmt.Errorf("%w: legacy booking: %v", domain.ErrMalformedEvent, err)
	}

	return domain.Booking{
		BookingID:       lb.BookingID,
		GuestName:       strings.TrimSpace(lb.GuestName),
		GuestEmail:      lb.GuestEmail,
		GuestPhone:      ptrStr(lb.GuestPhone),
		HotelName:       lb.HotelName,
		HotelLocation:   strings.TrimSpace(lb.HotelLocation),
		CheckIn:         parseEventDate(lb.CheckInDate),
		CheckOut:        parseEventDate(lb.CheckOutDate),
		GuestLanguage:   normalizeLang(lb.GuestLanguage),
		ReferenceNumber: ptrStr(lb.ReferenceNumber),
		HotelID:         ptrStr(lb.HotelID),
		BookingStatus:   ptrStr(lb.Status),
		BookingSource:   ptrStr(lb.Source),
	}, nil
}

func normalizeEnveloped(entries []envelopeEntry) (domain.Booking, error) {
	var bookingRaw, billRaw json.RawMessage
	for _, e := range entries {
		switch e.EntityName {
		case "booking":
			bookingRaw = e.Payload
		case "bill":
			billRaw = e.Payload
		}
	}
	if bookingRaw == nil {
		return domain.Booking{}, fmt.Errorf("%w: no booking entity in events", domain.ErrMalformedEvent)
	}

	var eb envBooking
	if err := json.Unmarshal(bookingRaw, &eb); err != nil {
		return domain.Booking{}, fmt.Errorf("%w: booking entity: %v", domain.ErrMalformedEvent, err)
	}

	b := domain.Booking{
		BookingID:       eb.BookingID,
		CheckIn:         parseEventDate(eb.CheckinDate),
		CheckOut:        parseEventDate(eb.CheckoutDate),
		GuestLanguage:   normalizeLang(eb.GuestLanguage),
		ReferenceNumber: ptrStr(eb.ReferenceNumber),
		HotelID:         ptrStr(eb.HotelID),
		BookingStatus:   ptrStr(eb.Status),
		BookingSource:   ptrStr(eb.Source.ChannelCode),
	}

	if c := primaryCustomer(eb.Customers); c != nil {
		b.GuestName = joinNonEmpty(" ", c.FirstName, c.LastName)
		b.GuestEmail = c.Email
		if c.Phone.Number != "" {
			b.GuestPhone = ptrStr(c.Phone.CountryCode + c.Phone.Number)
		}
	}

	// The bill often arrives in a later delivery of the same booking;
	// without it the hotel fields stay empty and the upsert merge keeps
	// whatever an earlier delivery stored.
	if billRaw != nil {
		var bill envBill
		if err := json.Unmarshal(billRaw, &bill); err == nil {
			vd := bill.VendorDetails
			if vd.HotelName != "" {
				b.HotelName = vd.HotelName
			} else {
				b.HotelName = vd.VendorName
			}
			if loc := joinNonEmpty(", ", vd.Address.Field1, vd.Address.City, vd.Address.State); loc != "" {
				b.HotelLocation = loc
			}
		}
	}

	return b, nil
}

// primaryCustomer picks the guest the chat belongs to: explicit
// is_primary first, then the first non-dummy entry with an email, then
// whoever is listed first.
func primaryCustomer(cs []envCustomer) *envCustomer {
	if len(cs) == 0 {
		return nil
	}
	for i := range cs {
		if cs[i].IsPrimary {
			return &cs[i]
		}
	}
	for i := range cs {
		if !cs[i].Dummy && cs[i].Email != "" {
			return &cs[i]
		}
	}
	return &cs[0]
}

// parseEventDate accepts plain dates and ISO datetimes, keeping only
// the date part.
func parseEventDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, sep)
}

// normalizeLang maps a present language tag onto a catalog language and
// leaves an absent one empty so it never overwrites a stored value.
func normalizeLang(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return i18n.Normalize(s)
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
