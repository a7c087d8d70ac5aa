package model

type Clinic struct {
	Base
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
}

// DefaultClinics is the seed set written when the clinics table is empty.
func DefaultClinics() []*Clinic {
	return []*Clinic{
		{Name: "Clinic 1", Location: "Mumbai"},
		{Name: "Clinic 2", Location: "Delhi"},
		{Name: "Clinic 3", Location: "Bangalore"},
	}
}
