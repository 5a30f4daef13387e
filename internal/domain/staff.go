package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoleKind is the closed set of staff roles.
type RoleKind string

const (
	RoleWaiter    RoleKind = "waiter"
	RoleCook      RoleKind = "cook"
	RoleBartender RoleKind = "bartender"
	RoleManager   RoleKind = "manager"
)

// KnownRole reports whether k is one of the defined role kinds.
func KnownRole(k RoleKind) bool {
	switch k {
	case RoleWaiter, RoleCook, RoleBartender, RoleManager:
		return true
	}
	return false
}

// Role is a tagged variant: Kind selects which payload fields are meaningful.
// Waiters carry a section, cooks and bartenders a specialty, managers an
// access level and a discount limit.
type Role struct {
	Kind          RoleKind
	Section       string
	Specialty     string
	AccessLevel   int
	DiscountLimit decimal.Decimal
}

// Address is the postal address of a staff member.
type Address struct {
	Street   string
	Number   string
	District string
	City     string
	State    string
	Zip      string
}

// Dependent is a family member registered under a staff record.
type Dependent struct {
	Name     string
	BornAt   time.Time
	Relation string
}

// Staff is an employee record: a shared base shape plus a role payload.
type Staff struct {
	ID           int64
	Name         string
	TaxID        string
	Salary       decimal.Decimal
	HiredAt      time.Time
	Address      Address
	Phones       []string
	SupervisorID *int64
	Dependents   []Dependent
	Role         Role
}
