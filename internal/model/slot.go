package model

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultSlotCatalog is the hourly availability every new doctor receives.
var DefaultSlotCatalog = []string{"10", "11", "12", "14", "15", "16", "17", "18", "19", "20", "21", "22"}

// NewSlotCatalog returns a fresh copy of the default catalog.
func NewSlotCatalog() []string {
	out := make([]string, len(DefaultSlotCatalog))
	copy(out, DefaultSlotCatalog)
	return out
}

// slotHour parses an hour string; ok is false for non-numeric slots.
func slotHour(slot string) (int, bool) {
	h, err := strconv.Atoi(strings.TrimSpace(slot))
	if err != nil {
		return 0, false
	}
	return h, true
}

// SlotLess orders slots by integer hour so "9" sorts before "10".
// Non-numeric slots sort after numeric ones, lexically among themselves.
func SlotLess(a, b string) bool {
	ha, okA := slotHour(a)
	hb, okB := slotHour(b)
	switch {
	case okA && okB:
		if ha != hb {
			return ha < hb
		}
		return a < b
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

// SortSlots sorts slots in place by hour.
func SortSlots(slots []string) {
	sort.SliceStable(slots, func(i, j int) bool { return SlotLess(slots[i], slots[j]) })
}

// ValidSlot reports whether s looks like an hour of day.
func ValidSlot(s string) bool {
	h, ok := slotHour(s)
	return ok && h >= 0 && h <= 23
}
