package patient

import (
	"errors"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/booking"
	"github.com/jwalitptl/clinic-booking/internal/service/clinic"
	"github.com/jwalitptl/clinic-booking/internal/session"
)

const (
	MsgBooked = "Booking successful!"

	selectClinicPath = "/select_clinic"
	dashboardPath    = "/dashboard"
)

type Handler struct {
	clinicSvc  *clinic.Service
	bookingSvc *booking.Service
}

func NewHandler(clinicSvc *clinic.Service, bookingSvc *booking.Service) *Handler {
	return &Handler{
		clinicSvc:  clinicSvc,
		bookingSvc: bookingSvc,
	}
}

// RegisterRoutes mounts the patient pages behind the patient role gate.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	patients := r.Group("", middleware.RequireRole(model.RolePatient))
	{
		patients.GET(selectClinicPath, h.SelectClinic)
		patients.POST("/clinic_select", h.ClinicSelect)
		patients.GET(dashboardPath, h.Dashboard)
		patients.POST(dashboardPath, h.DashboardAction)
	}
}

func (h *Handler) SelectClinic(c *gin.Context) {
	clinics, err := h.clinicSvc.ListClinics(c.Request.Context())
	if err != nil {
		handler.FlashError(c, err)
		clinics = []*model.Clinic{}
	}
	handler.View(c, gin.H{
		"clinics":     clinics,
		"specialties": handler.SpecialtyOptions(h.clinicSvc.Specialties()),
	})
}

func (h *Handler) ClinicSelect(c *gin.Context) {
	var req model.ClinicSelectRequest
	if err := c.ShouldBind(&req); err != nil {
		handler.RedirectWithFlash(c, selectClinicPath, clinic.MsgInvalidClinic, nil)
		return
	}
	if _, err := h.clinicSvc.GetClinic(c.Request.Context(), req.ClinicID); err != nil {
		handler.FlashError(c, err)
		handler.Redirect(c, selectClinicPath, nil)
		return
	}

	handler.Redirect(c, dashboardPath, dashboardQuery(req.ClinicID, req.Specialty, ""))
}

// dashboardView is the patient dashboard payload. Selected is set once a
// doctor has been picked.
type dashboardView struct {
	Clinic    *model.Clinic       `json:"clinic,omitempty"`
	Specialty model.Specialty     `json:"specialty,omitempty"`
	Doctors   []*model.Doctor     `json:"doctors"`
	Selected  *model.Availability `json:"selected_doctor,omitempty"`
}

func (h *Handler) Dashboard(c *gin.Context) {
	var q model.DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handler.RedirectWithFlash(c, selectClinicPath, queryMessage(err), nil)
		return
	}

	listing, err := h.clinicSvc.ListDoctors(c.Request.Context(), clinic.DoctorQuery{
		ClinicID:  q.ClinicID,
		Specialty: q.Specialty,
	})
	if err != nil {
		handler.FlashError(c, err)
		handler.Redirect(c, selectClinicPath, nil)
		return
	}
	if listing.InvalidSpecialty {
		session.AddFlash(c, clinic.MsgInvalidSpecialty)
	}

	view := dashboardView{
		Clinic:    listing.Clinic,
		Specialty: listing.Specialty,
		Doctors:   listing.Doctors,
	}
	if q.DoctorID != "" {
		selected, err := h.bookingSvc.Availability(c.Request.Context(), uuid.MustParse(q.DoctorID))
		if err != nil {
			handler.FlashError(c, err)
		}
		view.Selected = selected
	}
	handler.View(c, view)
}

// DashboardAction handles both dashboard forms: picking a doctor, or booking
// a slot with the picked doctor.
func (h *Handler) DashboardAction(c *gin.Context) {
	clinicID, specialty := c.Query("clinic_id"), c.Query("specialty")

	var req model.DashboardAction
	if err := c.ShouldBind(&req); err != nil {
		handler.RedirectWithFlash(c, dashboardPath, bindMessage(err), dashboardQuery(clinicID, specialty, ""))
		return
	}

	if req.Time == "" {
		handler.Redirect(c, dashboardPath, dashboardQuery(clinicID, specialty, req.DoctorID))
		return
	}

	back := dashboardQuery(clinicID, specialty, req.SelectedDoctorID)
	doctorID, err := uuid.Parse(req.SelectedDoctorID)
	if err != nil {
		handler.RedirectWithFlash(c, dashboardPath, booking.MsgDoctorNotFound, back)
		return
	}
	patientID, _ := c.Get(middleware.ContextAccountID)
	accountID, _ := patientID.(uuid.UUID)

	if _, err := h.bookingSvc.Book(c.Request.Context(), accountID, doctorID, req.Time); err != nil {
		handler.FlashError(c, err)
		handler.Redirect(c, dashboardPath, back)
		return
	}
	handler.RedirectWithFlash(c, dashboardPath, MsgBooked, back)
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Time" {
				return booking.MsgInvalidSlot
			}
		}
	}
	return booking.MsgDoctorNotFound
}

// queryMessage names the dashboard filter that failed to bind.
func queryMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "DoctorID" {
				return booking.MsgDoctorNotFound
			}
		}
	}
	return clinic.MsgInvalidClinic
}

func dashboardQuery(clinicID, specialty, doctorID string) url.Values {
	q := url.Values{}
	if clinicID != "" {
		q.Set("clinic_id", clinicID)
	}
	if specialty != "" {
		q.Set("specialty", specialty)
	}
	if doctorID != "" {
		q.Set("doc_id", doctorID)
	}
	return q
}
