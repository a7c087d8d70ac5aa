package doctor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/booking"
)

type Handler struct {
	bookingSvc *booking.Service
}

func NewHandler(bookingSvc *booking.Service) *Handler {
	return &Handler{bookingSvc: bookingSvc}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	doctors := r.Group("", middleware.RequireRole(model.RoleDoctor))
	{
		doctors.GET("/doc_dashboard", h.Dashboard)
		doctors.GET("/appointments", h.Appointments)
	}
}

func currentDoctor(c *gin.Context) uuid.UUID {
	v, _ := c.Get(middleware.ContextAccountID)
	id, _ := v.(uuid.UUID)
	return id
}

func (h *Handler) Dashboard(c *gin.Context) {
	doctorID := currentDoctor(c)

	availability, err := h.bookingSvc.Availability(c.Request.Context(), doctorID)
	if err != nil {
		handler.FlashError(c, err)
		handler.Redirect(c, middleware.LoginPath, nil)
		return
	}
	bookings, err := h.bookingSvc.DoctorBookings(c.Request.Context(), doctorID)
	if err != nil {
		handler.FlashError(c, err)
		handler.Redirect(c, middleware.LoginPath, nil)
		return
	}

	handler.View(c, gin.H{
		"doctor":   availability.Doctor,
		"open":     availability.Open,
		"bookings": bookings,
	})
}

func (h *Handler) Appointments(c *gin.Context) {
	bookings, err := h.bookingSvc.DoctorBookings(c.Request.Context(), currentDoctor(c))
	if err != nil {
		handler.FlashError(c, err)
		handler.Redirect(c, middleware.LoginPath, nil)
		return
	}
	handler.View(c, gin.H{"bookings": bookings})
}
