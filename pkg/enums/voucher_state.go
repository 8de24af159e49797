package enums

import "fmt"

// VoucherState tracks a voucher through its consumption lifecycle.
type VoucherState string

const (
	VoucherStatePending  VoucherState = "pending"
	VoucherStateApplied  VoucherState = "applied"
	VoucherStateConsumed VoucherState = "consumed"
	VoucherStateExpired  VoucherState = "expired"
)

var validVoucherStates = []VoucherState{
	VoucherStatePending,
	VoucherStateApplied,
	VoucherStateConsumed,
	VoucherStateExpired,
}

// String implements fmt.Stringer.
func (v VoucherState) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VoucherState.
func (v VoucherState) IsValid() bool {
	for _, candidate := range validVoucherStates {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoucherState converts raw input into a VoucherState.
func ParseVoucherState(value string) (VoucherState, error) {
	for _, candidate := range validVoucherStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher state %q", value)
}
