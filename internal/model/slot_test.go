package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortSlotsByHour(t *testing.T) {
	slots := []string{"14", "10", "21"}
	SortSlots(slots)
	assert.Equal(t, []string{"10", "14", "21"}, slots)

	slots = []string{"10", "9", "noon", "22", "abc"}
	SortSlots(slots)
	assert.Equal(t, []string{"9", "10", "22", "abc", "noon"}, slots)
}

func TestSortBookings(t *testing.T) {
	bookings := []*Booking{{Slot: "21"}, {Slot: "9"}, {Slot: "14"}}
	SortBookings(bookings)
	assert.Equal(t, "9", bookings[0].Slot)
	assert.Equal(t, "14", bookings[1].Slot)
	assert.Equal(t, "21", bookings[2].Slot)
}

func TestValidSlot(t *testing.T) {
	assert.True(t, ValidSlot("0"))
	assert.True(t, ValidSlot("23"))
	assert.False(t, ValidSlot("24"))
	assert.False(t, ValidSlot("-1"))
	assert.False(t, ValidSlot("ten"))
	assert.False(t, ValidSlot(""))
}

func TestNewSlotCatalogIsACopy(t *testing.T) {
	c := NewSlotCatalog()
	c[0] = "99"
	assert.Equal(t, "10", DefaultSlotCatalog[0])
}

func TestParseSpecialty(t *testing.T) {
	sp, err := ParseSpecialty(" Cardiology ")
	assert.NoError(t, err)
	assert.Equal(t, SpecialtyCardiology, sp)

	_, err = ParseSpecialty("astrology")
	assert.Error(t, err)

	assert.Equal(t, "General Practice", SpecialtyGeneralPractice.Label())
	assert.Equal(t, "ENT", SpecialtyENT.Label())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@x.io", NormalizeEmail("  Jane@X.IO\t"))
}
