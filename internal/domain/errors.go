package domain

import "errors"

// Validation errors are rejected before any database interaction.
var (
	ErrInvalidID               = errors.New("invalid id")
	ErrHolderNameRequired      = errors.New("holder name required")
	ErrInvalidPartySize        = errors.New("party size must be positive")
	ErrReservationDateRequired = errors.New("reservation date required")
	ErrPastReservationDate     = errors.New("reservation date is in the past")
	ErrInvalidReservationTime  = errors.New("reservation time out of range")
	ErrInvalidTableID          = errors.New("invalid table id")
	ErrInvalidCapacity         = errors.New("table capacity must be positive")
	ErrLocationRequired        = errors.New("table location required")
	ErrItemNameRequired        = errors.New("item name required")
	ErrItemTypeRequired        = errors.New("item type required")
	ErrNegativePrice           = errors.New("item price must not be negative")
	ErrEmptyOrder              = errors.New("order must contain at least one line")
	ErrInvalidOrderLine        = errors.New("order line item id and quantity must be positive")
	ErrInvalidDiscount         = errors.New("discount must be between 0 and 100")
	ErrInvalidAmount           = errors.New("payment amount must be positive")
	ErrPaymentMethodRequired   = errors.New("payment method required")
	ErrInvalidRating           = errors.New("rating must be between 1 and 5")
	ErrUnknownOrderStatus      = errors.New("unknown order status")
	ErrStaffNameRequired       = errors.New("staff name required")
	ErrNegativeSalary          = errors.New("salary must not be negative")
	ErrUnknownRole             = errors.New("unknown staff role")
	ErrInvalidDiscountLimit    = errors.New("manager discount limit must be between 0 and 100")
)

// Not-found errors surface when a referenced record does not exist.
var (
	ErrTableNotFound         = errors.New("table not found")
	ErrItemNotFound          = errors.New("item not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrStaffNotFound         = errors.New("staff member not found")
	ErrFeedbackNotFound      = errors.New("feedback not found")
	ErrAuthorizationNotFound = errors.New("authorization not found")
)

// Conflict errors require the caller to change its input.
var (
	ErrReservationConflict   = errors.New("table already reserved in this window")
	ErrTableCapacityExceeded = errors.New("party size exceeds table capacity")
	ErrOrderPaid             = errors.New("paid orders are immutable")
	ErrOrderAlreadyPaid      = errors.New("order already paid")
	ErrDuplicatePayment      = errors.New("payment already registered for this order")
	ErrTableInUse            = errors.New("table is referenced by reservations or orders")
	ErrItemInUse             = errors.New("item is referenced by order lines")
	ErrStaffInUse            = errors.New("staff member is referenced by other records")
	ErrFeedbackNotSameDay    = errors.New("feedback only accepted for orders placed today")
	ErrFeedbackTableMismatch = errors.New("feedback table does not match the order's table")
	ErrStaffNotManager       = errors.New("staff member is not a manager")
)

var validationErrors = []error{
	ErrInvalidID, ErrHolderNameRequired, ErrInvalidPartySize, ErrReservationDateRequired,
	ErrPastReservationDate, ErrInvalidReservationTime, ErrInvalidTableID, ErrInvalidCapacity,
	ErrLocationRequired, ErrItemNameRequired, ErrItemTypeRequired, ErrNegativePrice,
	ErrEmptyOrder, ErrInvalidOrderLine, ErrInvalidDiscount, ErrInvalidAmount,
	ErrPaymentMethodRequired, ErrInvalidRating, ErrUnknownOrderStatus, ErrStaffNameRequired, ErrNegativeSalary, ErrUnknownRole,
	ErrInvalidDiscountLimit,
}

var notFoundErrors = []error{
	ErrTableNotFound, ErrItemNotFound, ErrReservationNotFound, ErrOrderNotFound,
	ErrPaymentNotFound, ErrStaffNotFound, ErrFeedbackNotFound, ErrAuthorizationNotFound,
}

var conflictErrors = []error{
	ErrReservationConflict, ErrTableCapacityExceeded, ErrOrderPaid, ErrOrderAlreadyPaid,
	ErrDuplicatePayment, ErrTableInUse, ErrItemInUse, ErrStaffInUse,
	ErrFeedbackNotSameDay, ErrFeedbackTableMismatch, ErrStaffNotManager,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is a malformed-input rejection.
func IsValidation(err error) bool { return isAny(err, validationErrors) }

// IsNotFound reports whether err means a referenced record does not exist.
func IsNotFound(err error) bool { return isAny(err, notFoundErrors) }

// IsConflict reports whether err means the request clashes with current state.
func IsConflict(err error) bool { return isAny(err, conflictErrors) }

// IsTransactionFailure reports whether err is a backing-store failure. The
// in-flight transaction has already been rolled back, so the caller may
// safely retry the whole operation.
func IsTransactionFailure(err error) bool {
	return err != nil && !IsValidation(err) && !IsNotFound(err) && !IsConflict(err)
}
