package ledger

import "go.hackfix.me/scriptomate/script"

// Set is a set of applied script numbers. Membership is decided by decimal
// value, so "14.20" and "014.2" are the same number.
type Set map[string]struct{}

// Add adds a number to the set.
func (s Set) Add(k script.OrderKey) {
	s[setKey(k)] = struct{}{}
}

// Contains returns true if the set contains k.
func (s Set) Contains(k script.OrderKey) bool {
	_, ok := s[setKey(k)]
	return ok
}

// setKey returns the canonical text of the key's value. decimal.Decimal
// values with different exponents aren't comparable with ==, but their
// canonical text is.
func setKey(k script.OrderKey) string {
	return k.Decimal().String()
}

// Len returns the number of elements in the set.
func (s Set) Len() int {
	return len(s)
}
