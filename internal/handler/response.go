package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/session"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

// MsgGenericError is flashed for failures that carry no user-facing text.
const MsgGenericError = "Something went wrong, please try again."

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Flashes []string    `json:"flashes"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status:  "success",
		Data:    data,
		Flashes: []string{},
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
		Flashes: []string{},
	}
}

// View renders a page payload together with the flashes queued for it.
func View(c *gin.Context, data interface{}) {
	resp := NewSuccessResponse(data)
	resp.Flashes = session.Flashes(c)
	c.JSON(http.StatusOK, resp)
}

// Redirect sends a 302 to location with an optional query.
func Redirect(c *gin.Context, location string, query url.Values) {
	if len(query) > 0 {
		location += "?" + query.Encode()
	}
	c.Redirect(http.StatusFound, location)
}

// RedirectWithFlash queues msg and redirects.
func RedirectWithFlash(c *gin.Context, location, msg string, query url.Values) {
	session.AddFlash(c, msg)
	Redirect(c, location, query)
}

// FlashError queues the user-facing text of err and records it on the
// context for the access log. Errors without one are logged and replaced by
// a generic message.
func FlashError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	_ = c.Error(appErr)

	if appErr.Code != apperrors.ErrInternal {
		session.AddFlash(c, appErr.Message)
		return
	}
	log.Error().
		Err(err).
		Str("request_id", c.GetString("request_id")).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	session.AddFlash(c, MsgGenericError)
}

type SpecialtyOption struct {
	Value model.Specialty `json:"value"`
	Label string          `json:"label"`
}

// SpecialtyOptions pairs each specialty with its display label for the
// selection forms.
func SpecialtyOptions(specialties []model.Specialty) []SpecialtyOption {
	out := make([]SpecialtyOption, 0, len(specialties))
	for _, sp := range specialties {
		out = append(out, SpecialtyOption{Value: sp, Label: sp.Label()})
	}
	return out
}
