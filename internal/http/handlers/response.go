// Package handlers provides the local gateway endpoints through which UI
// collaborators reach the dispatcher, the offline queue, the sync engine and
// the notice board.
//
// Every failure leaves as an ErrorResponse whose code (errors.go) is stable
// across releases; the UI switches on the code, never on the message:
//
//	HTTP/1.1 503 Service Unavailable
//	{
//	  "request_id": "0190f3a4-7b1c-7d2e-8f00-1234567890ab",
//	  "code": "offline_no_data",
//	  "message": "offline and no cached data available"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/bpguard/internal/http/middleware"
)

// ErrorResponse is the error envelope of every gateway endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID, for matching a UI report to the gateway log.
	RequestID string `json:"request_id,omitempty" example:"0190f3a4-7b1c-7d2e-8f00-1234567890ab"`
	// Stable machine-readable code, see errors.go.
	Code string `json:"code" example:"offline_no_data"`
	// Safe to show to the user.
	Message string `json:"message" example:"offline and no cached data available"`
}

// failLevel decides whether a failure is worth a log line of its own. Being
// offline is an expected state for this gateway, so 503s are warnings.
func failLevel(status int) (zerolog.Level, bool) {
	switch {
	case status == http.StatusServiceUnavailable:
		return zerolog.WarnLevel, true
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel, true
	}
	return zerolog.NoLevel, false
}

// fail aborts the chain with an ErrorResponse.
func fail(c *gin.Context, status int, code, msg string) {
	if lvl, logIt := failLevel(status); logIt {
		middleware.LoggerFrom(c).WithLevel(lvl).
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer unmatched API routes in the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }
