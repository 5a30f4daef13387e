package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records settlement of an order. At most one payment may exist per
// order; registration and the order's paid flag commit as one unit.
type Payment struct {
	ID      int64
	OrderID int64
	Amount  decimal.Decimal
	Method  string
	PaidAt  time.Time
}
