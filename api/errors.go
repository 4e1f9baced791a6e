package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"remind-lab/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{errors.ErrInvalidPhone, http.StatusBadRequest},
	{errors.ErrEmptyContent, http.StatusBadRequest},
	{errors.ErrContentTooLong, http.StatusBadRequest},
	{errors.ErrMissingDateTime, http.StatusBadRequest},
	{errors.ErrMissingTitle, http.StatusBadRequest},
	{errors.ErrInvalidTimezone, http.StatusBadRequest},
	{errors.ErrInvalidClock, http.StatusBadRequest},
	{errors.ErrUnknownFrequency, http.StatusBadRequest},
	{errors.ErrNoRecipients, http.StatusBadRequest},
	{errors.ErrUnknownProvider, http.StatusBadRequest},
	{errors.ErrNotAReminder, http.StatusBadRequest},
	{errors.ErrUnsupportedLanguage, http.StatusBadRequest},
	{errors.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	{errors.ErrReminderNotFound, http.StatusNotFound},
	{errors.ErrMessageNotFound, http.StatusNotFound},
	{errors.ErrPreferenceNotFound, http.StatusNotFound},
	{errors.ErrCalendarNotFound, http.StatusNotFound},
	{errors.ErrReminderInactive, http.StatusConflict},
	{errors.ErrProviderUnavailable, http.StatusNotImplemented},
	{errors.ErrSenderNotReady, http.StatusServiceUnavailable},
}

// statusOf maps a service error onto an HTTP status. Anything unknown is an
// internal error.
func statusOf(err error) int {
	for _, s := range statusBySentinel {
		if stderrors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// abortWithError writes the error body. Internal errors are logged and
// replaced by a generic message.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, errorResponse{Error: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, message string, details ...string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: message, Details: details})
}

// bindJSON decodes the body into req and runs the struct validations.
func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "invalid JSON body", err.Error())
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		var invalid validator.ValidationErrors
		if stderrors.As(err, &invalid) {
			badRequest(c, "invalid request", describe(invalid)...)
			return false
		}
		badRequest(c, "invalid request", err.Error())
		return false
	}
	return true
}

func describe(invalid validator.ValidationErrors) []string {
	details := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", rule, fe.Param())
		}
		details = append(details, fmt.Sprintf("%s: %s", fe.Field(), rule))
	}
	return details
}
