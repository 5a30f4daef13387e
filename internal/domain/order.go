package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an open tab for a table. Once Paid is set the order and its
// lines are immutable.
type Order struct {
	ID        int64
	WaiterID  *int64
	ManagerID *int64
	TableID   int64
	PlacedAt  time.Time
	Delivered bool
	Paid      bool
	Discount  decimal.Decimal
	Lines     []OrderLine
}

// OrderLine is an immutable snapshot of a catalog item at placement time.
// UnitPrice does not track later catalog price changes.
type OrderLine struct {
	ItemID    int64
	Name      string
	Type      string
	Quantity  int
	UnitPrice decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Subtotal is quantity times the snapshotted unit price, rounded half-up
// to two decimal places.
func (l OrderLine) Subtotal() decimal.Decimal {
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// TotalBeforeDiscount sums the line subtotals.
func (o Order) TotalBeforeDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// TotalAfterDiscount applies the percentage discount to the pre-discount
// total and rounds half-up to two decimal places. Discounts outside (0,100]
// leave the total untouched.
func (o Order) TotalAfterDiscount() decimal.Decimal {
	total := o.TotalBeforeDiscount()
	if o.Discount.IsPositive() && o.Discount.LessThanOrEqual(oneHundred) {
		factor := decimal.NewFromInt(1).Sub(o.Discount.Div(oneHundred).Round(2))
		return total.Mul(factor).Round(2)
	}
	return total.Round(2)
}

// ValidDiscount reports whether d is a percentage in [0, 100].
func ValidDiscount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(oneHundred)
}
