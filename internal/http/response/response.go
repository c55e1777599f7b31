package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tally-backend/internal/platform/apierr"
	"github.com/yungbote/tally-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps a service failure onto its HTTP status. Unclassified errors
// become a 500 without leaking their text.
func RespondServiceError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal error"))
		return
	}
	RespondError(c, status, code, err)
}

func StatusFor(err error) (int, string) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status, ae.Code
	}
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrLedgerNotEmpty):
		return http.StatusConflict, "ledger_not_empty"
	case errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, services.ErrAdminLockLost):
		return http.StatusServiceUnavailable, "admin_lock_lost"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
