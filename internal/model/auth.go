package model

// RegisterRequest is the /register form.
type RegisterRequest struct {
	Email      string `form:"username" binding:"required"`
	Password   string `form:"password" binding:"required"`
	Role       Role   `form:"role"`
	ClinicID   string `form:"clinic_id"`
	DoctorCode string `form:"doc_code"`
	Specialty  string `form:"specialty"`
}

// LoginRequest is the /login form.
type LoginRequest struct {
	Email    string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// ClinicSelectRequest is the /clinic_select form.
type ClinicSelectRequest struct {
	ClinicID  string `form:"clinic_id" binding:"required,uuid"`
	Specialty string `form:"specialty"`
}

// DashboardQuery carries the /dashboard filters.
type DashboardQuery struct {
	ClinicID  string `form:"clinic_id" binding:"omitempty,uuid"`
	Specialty string `form:"specialty"`
	DoctorID  string `form:"doc_id" binding:"omitempty,uuid"`
}

// DashboardAction is a POST to /dashboard: either selecting a doctor
// (DoctorID) or booking a slot (Time + SelectedDoctorID).
type DashboardAction struct {
	DoctorID         string `form:"doc_id" binding:"omitempty,uuid"`
	Time             string `form:"time" binding:"omitempty,slot"`
	SelectedDoctorID string `form:"selected_doc_id" binding:"omitempty,uuid"`
}
