package domain

import "time"

// Authorization records a manager signing off on an order, typically to
// approve a discount. Note carries the stated reason, when one is given.
type Authorization struct {
	ID        int64
	OrderID   int64
	ManagerID int64
	GrantedAt time.Time
	Note      string
}
