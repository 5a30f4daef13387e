package domain

import "github.com/shopspring/decimal"

// Item is a sellable catalog entry. Price is the current menu price; order
// lines copy it at placement time and keep their own snapshot.
type Item struct {
	ID    int64
	Name  string
	Type  string
	Price decimal.Decimal
}
