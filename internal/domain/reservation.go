package domain

import "time"

// ServiceDuration is the fixed window a party occupies its table. Two
// reservations on the same table and date conflict when their windows overlap.
const ServiceDuration = 90 * time.Minute

// Reservation books a table for a party on a given date. Start is the
// time of day expressed as an offset from midnight.
type Reservation struct {
	ID         int64
	HolderName string
	PartySize  int
	TableID    int64
	Date       time.Time
	Start      time.Duration
	Note       string
}

// Window returns the half-open interval [Start, Start+ServiceDuration).
func (r Reservation) Window() (from, to time.Duration) {
	return r.Start, r.Start + ServiceDuration
}

// WindowsOverlap reports whether two service windows starting at a and b
// collide: a < b+D && a+D > b.
func WindowsOverlap(a, b time.Duration) bool {
	return a < b+ServiceDuration && a+ServiceDuration > b
}

// SameDate compares two timestamps by calendar date, ignoring time of day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateOf truncates a timestamp to midnight UTC for use as a calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
