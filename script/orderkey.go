package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var orderKeyRx = regexp.MustCompile(`^(\d{3,}(\.\d+)?)[.,]`)

// OrderKey is the exact decimal number that determines the order in which
// scripts are applied. The zero value is invalid.
type OrderKey struct {
	d     decimal.Decimal
	valid bool
}

// ParseOrderKey extracts the OrderKey from a script file name, e.g.
// "014.2.jdoe.DDL.add_index.sql" yields 14.2. It returns false if the name
// doesn't follow the script naming convention.
func ParseOrderKey(filename string) (OrderKey, bool) {
	m := orderKeyRx.FindStringSubmatch(filename)
	if m == nil {
		return OrderKey{}, false
	}

	k, err := ParseDecimal(m[1])
	if err != nil {
		return OrderKey{}, false
	}

	return k, true
}

// ParseDecimal parses a plain decimal number, as stored in the applied
// ledger (e.g. "14.20"). Signs, exponents and a missing integer or fraction
// part around the point are rejected.
func ParseDecimal(s string) (OrderKey, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasPoint := strings.Cut(s, ".")
	if !isDigits(whole) || (hasPoint && !isDigits(frac)) {
		return OrderKey{}, fmt.Errorf("invalid decimal number '%s'", s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return OrderKey{}, fmt.Errorf("invalid decimal number '%s': %w", s, err)
	}

	return OrderKey{d: d, valid: true}, nil
}

// isDigits returns true if s is a non-empty string of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsZero returns true if the key wasn't parsed from a valid number.
func (k OrderKey) IsZero() bool {
	return !k.valid
}

// Decimal returns the numeric value of the key.
func (k OrderKey) Decimal() decimal.Decimal {
	return k.d
}

// Cmp compares k and o and returns -1, 0 or +1. Invalid keys sort first.
func (k OrderKey) Cmp(o OrderKey) int {
	switch {
	case !k.valid && !o.valid:
		return 0
	case !k.valid:
		return -1
	case !o.valid:
		return 1
	}
	return k.d.Cmp(o.d)
}

// Equal returns true if both keys represent the same decimal value.
func (k OrderKey) Equal(o OrderKey) bool {
	return k.Cmp(o) == 0
}

// String returns the canonical decimal representation of the key, without
// leading zeros in the integer part or trailing zeros in the fraction.
func (k OrderKey) String() string {
	if !k.valid {
		return ""
	}
	return k.d.String()
}
