package model

import (
	"fmt"
	"strings"
)

type Specialty string

const (
	SpecialtyGeneralPractice Specialty = "general_practice"
	SpecialtyCardiology      Specialty = "cardiology"
	SpecialtyDermatology     Specialty = "dermatology"
	SpecialtyPediatrics      Specialty = "pediatrics"
	SpecialtyOrthopedics     Specialty = "orthopedics"
	SpecialtyNeurology       Specialty = "neurology"
	SpecialtyGynecology      Specialty = "gynecology"
	SpecialtyPsychiatry      Specialty = "psychiatry"
	SpecialtyOphthalmology   Specialty = "ophthalmology"
	SpecialtyENT             Specialty = "ent"
)

var specialties = []Specialty{
	SpecialtyGeneralPractice,
	SpecialtyCardiology,
	SpecialtyDermatology,
	SpecialtyPediatrics,
	SpecialtyOrthopedics,
	SpecialtyNeurology,
	SpecialtyGynecology,
	SpecialtyPsychiatry,
	SpecialtyOphthalmology,
	SpecialtyENT,
}

// Specialties returns the enumeration in display order.
func Specialties() []Specialty {
	out := make([]Specialty, len(specialties))
	copy(out, specialties)
	return out
}

// ParseSpecialty accepts the enum value case-insensitively.
func ParseSpecialty(s string) (Specialty, error) {
	v := Specialty(strings.ToLower(strings.TrimSpace(s)))
	for _, sp := range specialties {
		if sp == v {
			return sp, nil
		}
	}
	return "", fmt.Errorf("unknown specialty %q", s)
}

// Label is the human readable form, e.g. "General Practice".
func (s Specialty) Label() string {
	if s == SpecialtyENT {
		return "ENT"
	}
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
