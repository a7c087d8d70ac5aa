package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/auth"
	"github.com/jwalitptl/clinic-booking/internal/service/clinic"
	"github.com/jwalitptl/clinic-booking/internal/session"
)

const (
	MsgRegistered    = "Registered successfully!"
	MsgLoginDoctor   = "Login successful as Doctor!"
	MsgLoginPatient  = "Login successful as Patient!"
	MsgLoggedOut     = "Logged out successfully."
	registerPath     = "/register"
	loginPath        = "/login"
	selectClinicPath = "/select_clinic"
	doctorHomePath   = "/doc_dashboard"
)

type Handler struct {
	svc       *auth.Service
	clinicSvc *clinic.Service
}

func NewHandler(svc *auth.Service, clinicSvc *clinic.Service) *Handler {
	return &Handler{svc: svc, clinicSvc: clinicSvc}
}

// RegisterRoutes mounts the public pages. limited wraps the credential
// POSTs, typically with a rate limiter.
func (h *Handler) RegisterRoutes(r gin.IRoutes, limited ...gin.HandlerFunc) {
	r.GET("/", h.Index)
	r.GET(registerPath, h.RegisterPage)
	r.POST(registerPath, withLimits(limited, h.Register)...)
	r.GET(loginPath, h.LoginPage)
	r.POST(loginPath, withLimits(limited, h.Login)...)
	r.GET("/logout", h.Logout)
}

func withLimits(limited []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(limited)+1)
	return append(append(chain, limited...), h)
}

func (h *Handler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, registerPath)
}

func (h *Handler) RegisterPage(c *gin.Context) {
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

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		handler.RedirectWithFlash(c, registerPath, auth.MsgMissingFields, nil)
		return
	}

	account, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handler.FlashError(c, err)
		handler.Redirect(c, registerPath, nil)
		return
	}

	if account.Role == model.RolePatient {
		session.Login(c, account.ID, account.Role)
		handler.RedirectWithFlash(c, selectClinicPath, MsgRegistered, nil)
		return
	}
	handler.RedirectWithFlash(c, loginPath, MsgRegistered, nil)
}

func (h *Handler) LoginPage(c *gin.Context) {
	handler.View(c, nil)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		handler.RedirectWithFlash(c, loginPath, auth.MsgMissingFields, nil)
		return
	}

	account, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.FlashError(c, err)
		handler.Redirect(c, loginPath, nil)
		return
	}

	session.Login(c, account.ID, account.Role)
	if account.Role == model.RoleDoctor {
		handler.RedirectWithFlash(c, doctorHomePath, MsgLoginDoctor, nil)
		return
	}
	handler.RedirectWithFlash(c, selectClinicPath, MsgLoginPatient, nil)
}

func (h *Handler) Logout(c *gin.Context) {
	session.Logout(c)
	handler.RedirectWithFlash(c, loginPath, MsgLoggedOut, nil)
}
