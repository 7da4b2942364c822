package mysql

// Re-delivered events often carry partial payloads, so every string
// column merges with COALESCE(NULLIF(VALUES(col),''), col): a present
// value wins, an absent or empty one keeps what is already stored.
const upsertBookingSQL = `
INSERT INTO bookings
  (booking_id, guest_name, guest_email, guest_phone, hotel_name, hotel_location,
   lat, lon, check_in, check_out, guest_language,
   reference_number, hotel_id, booking_status, booking_source, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  guest_name       = COALESCE(NULLIF(VALUES(guest_name), ''), guest_name),
  guest_email      = COALESCE(NULLIF(VALUES(guest_email), ''), guest_email),
  guest_phone      = COALESCE(VALUES(guest_phone), guest_phone),
  hotel_name       = COALESCE(NULLIF(VALUES(hotel_name), ''), hotel_name),
  hotel_location   = COALESCE(NULLIF(VALUES(hotel_location), ''), hotel_location),
  lat              = COALESCE(VALUES(lat), lat),
  lon              = COALESCE(VALUES(lon), lon),
  check_in         = COALESCE(VALUES(check_in), check_in),
  check_out        = COALESCE(VALUES(check_out), check_out),
  guest_language   = COALESCE(NULLIF(VALUES(guest_language), ''), guest_language),
  reference_number = COALESCE(VALUES(reference_number), reference_number),
  hotel_id         = COALESCE(VALUES(hotel_id), hotel_id),
  booking_status   = COALESCE(VALUES(booking_status), booking_status),
  booking_source   = COALESCE(VALUES(booking_source), booking_source),
  raw              = COALESCE(VALUES(raw), raw),
  updated_at       = CURRENT_TIMESTAMP
`

const setBookingCoordsSQL = `
UPDATE bookings SET lat = ?, lon = ?, updated_at = CURRENT_TIMESTAMP WHERE booking_id = ?
`

const getBookingSQL = `
SELECT id, booking_id, guest_name, guest_email, guest_phone, hotel_name, hotel_location,
       lat, lon, check_in, check_out, guest_language,
       reference_number, hotel_id, booking_status, booking_source, raw, created_at
FROM bookings
WHERE booking_id = ?
`

const insertSessionSQL = `
INSERT INTO chat_sessions (session_id, booking_id, guest_language, is_active)
VALUES (?, ?, ?, ?)
`

const getSessionSQL = `
SELECT id, session_id, booking_id, guest_language, is_active, created_at, updated_at
FROM chat_sessions
WHERE session_id = ?
`

const listSessionsSQL = `
SELECT id, session_id, booking_id, guest_language, is_active, created_at, updated_at
FROM chat_sessions
WHERE booking_id = ?
ORDER BY created_at DESC, id DESC
`

const deactivateSessionSQL = `
UPDATE chat_sessions SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE session_id = ?
`

const deactivateBookingSessionsSQL = `
UPDATE chat_sessions SET is_active = 0, updated_at = CURRENT_TIMESTAMP
WHERE booking_id = ? AND is_active = 1
`

// updated_at doubles as the last-activity mark: AppendMessage bumps it,
// so a session idle past the TTL is one whose updated_at is stale.
const listStaleSessionsSQL = `
SELECT id, session_id, booking_id, guest_language, is_active, created_at, updated_at
FROM chat_sessions
WHERE is_active = 1 AND updated_at < ?
ORDER BY updated_at ASC
LIMIT ?
`

const insertMessageSQL = `
INSERT INTO chat_messages (session_id, message_type, content, metadata)
VALUES (?, ?, ?, ?)
`

const touchSessionSQL = `
UPDATE chat_sessions SET updated_at = CURRENT_TIMESTAMP WHERE session_id = ?
`

const listMessagesSQL = `
SELECT id, session_id, message_type, content, metadata, created_at
FROM chat_messages
WHERE session_id = ?
ORDER BY created_at ASC, id ASC
`

const getCacheEntrySQL = `
SELECT places, expires_at
FROM rec_cache
WHERE location_key = ? AND category = ? AND lang = ?
`

const putCacheEntrySQL = `
INSERT INTO rec_cache (location_key, category, lang, places, expires_at)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  places     = VALUES(places),
  expires_at = VALUES(expires_at)
`
