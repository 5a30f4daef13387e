package domain

import "time"

// Feedback is a customer review tied to an order and its table. Ratings are
// nil when not given, otherwise 1 through 5.
type Feedback struct {
	ID            int64
	OrderID       int64
	TableID       int64
	CustomerName  string
	FoodRating    *int
	ServiceRating *int
	Comment       string
	CreatedAt     time.Time
}

// ValidRating reports whether r is nil or within the 1..5 scale.
func ValidRating(r *int) bool {
	return r == nil || (*r >= 1 && *r <= 5)
}
