package domain

// Table is a physical dining table on the floor. Referenced by reservations
// and orders, never mutated by them.
type Table struct {
	ID       int64
	Capacity int
	Location string
}
