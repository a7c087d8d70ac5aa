package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Booking is one reserved slot on a doctor's calendar.
// (doctor_id, slot) is unique.
type Booking struct {
	ID           uuid.UUID `json:"id" db:"id"`
	DoctorID     uuid.UUID `json:"doctor_id" db:"doctor_id"`
	PatientID    uuid.UUID `json:"patient_id" db:"patient_id"`
	PatientEmail string    `json:"patient_email" db:"patient_email"`
	Slot         string    `json:"time" db:"slot"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SortBookings orders bookings by slot hour, ascending.
func SortBookings(bookings []*Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return SlotLess(bookings[i].Slot, bookings[j].Slot)
	})
}

// Availability is a doctor's catalog split into taken and open slots.
type Availability struct {
	Doctor *Doctor  `json:"doctor"`
	Booked []string `json:"booked_slot_times"`
	Open   []string `json:"open_slot_times"`
}

// BookingCreatedPayload is published when a booking is stored.
type BookingCreatedPayload struct {
	BookingID    uuid.UUID `json:"booking_id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	DoctorEmail  string    `json:"doctor_email"`
	PatientEmail string    `json:"patient_email"`
	ClinicID     uuid.UUID `json:"clinic_id"`
	Slot         string    `json:"time"`
	BookedAt     time.Time `json:"booked_at"`
}
