package model

import (
	"github.com/google/uuid"
)

// Doctor is a doctor account with its clinic affiliation and slot catalog.
type Doctor struct {
	Account
	ClinicID  uuid.UUID `json:"clinic_id" db:"clinic_id"`
	Specialty Specialty `json:"specialty" db:"specialty"`
	AllTime   []string  `json:"all_time" db:"-"`
}

// OffersSlot reports whether slot is part of the doctor's catalog.
func (d *Doctor) OffersSlot(slot string) bool {
	for _, s := range d.AllTime {
		if s == slot {
			return true
		}
	}
	return false
}

type DoctorFilters struct {
	ClinicID  uuid.UUID
	Specialty Specialty
}
