package enums

import "fmt"

// VoucherType partitions vouchers by what they may fund.
type VoucherType string

const (
	VoucherTypeGrocery VoucherType = "grocery"
	VoucherTypeHygiene VoucherType = "hygiene"
	VoucherTypeOther   VoucherType = "other"
)

var validVoucherTypes = []VoucherType{
	VoucherTypeGrocery,
	VoucherTypeHygiene,
	VoucherTypeOther,
}

// IsValid reports whether the value is a known VoucherType.
func (v VoucherType) IsValid() bool {
	for _, candidate := range validVoucherTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoucherType converts raw input into a VoucherType.
func ParseVoucherType(value string) (VoucherType, error) {
	for _, candidate := range validVoucherTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher type %q", value)
}
