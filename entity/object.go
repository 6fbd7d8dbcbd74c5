package entity

import "time"

const MimeTypePNG = "image/png"

// StoredObject is a published compression result. Buffer belongs to the
// store once inserted and must not be modified by readers.
type StoredObject struct {
	ID       string
	Buffer   []byte
	MimeType string
	Expiry   time.Time
}

// ValidAt reports whether the object may still be served at now.
func (o StoredObject) ValidAt(now time.Time) bool {
	return now.Before(o.Expiry)
}
