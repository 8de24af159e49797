package enums

// RejectionReason is the machine-readable cause attached to each cart-level
// validation error. FailureAnalytics aggregates on these values.
type RejectionReason string

const (
	RejectionInsufficientBalance RejectionReason = "insufficient_balance"
	RejectionHygieneCapExceeded  RejectionReason = "hygiene_cap_exceeded"
	RejectionFreshFoodCap        RejectionReason = "fresh_food_cap_exceeded"
	RejectionEmptyCart           RejectionReason = "empty_cart"
	RejectionUnknownProduct      RejectionReason = "unknown_product"
)

var validRejectionReasons = []RejectionReason{
	RejectionInsufficientBalance,
	RejectionHygieneCapExceeded,
	RejectionFreshFoodCap,
	RejectionEmptyCart,
	RejectionUnknownProduct,
}

// String implements fmt.Stringer.
func (r RejectionReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RejectionReason.
func (r RejectionReason) IsValid() bool {
	for _, candidate := range validRejectionReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
