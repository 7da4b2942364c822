package domain

import "time"

// Booking is the canonical record every inbound event shape normalizes
// into. BookingID is the external identifier; ingesting the same
// BookingID twice updates the existing row.
type Booking struct {
	ID              int64
	BookingID       string
	GuestName       string
	GuestEmail      string
	GuestPhone      *string
	HotelName       string
	HotelLocation   string
	Lat, Lon        *float64
	CheckIn         *time.Time
	CheckOut        *time.Time
	GuestLanguage   string // en|hi|es|fr
	ReferenceNumber *string
	HotelID         *string
	BookingStatus   *string
	BookingSource   *string
	RawJSON         []byte // full original event payload
	CreatedAt       time.Time
}

type Coords struct{ Lat, Lon float64 }

// HasCoords reports whether the hotel location has been geocoded.
func (b Booking) HasCoords() bool { return b.Lat != nil && b.Lon != nil }

func (b Booking) Coords() Coords {
	if !b.HasCoords() {
		return Coords{}
	}
	return Coords{Lat: *b.Lat, Lon: *b.Lon}
}
