// Session HTTP handlers.
//
//   - POST   /session  (login; needs the backend)
//   - GET    /session  (who is logged in)
//   - DELETE /session  (logout; queued writes are kept)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bpguard/internal/client"
	"github.com/tbourn/bpguard/internal/offline"
)

// LoginRequest is the JSON payload for POST /session.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ana@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// SessionResponse reports the stored login.
type SessionResponse struct {
	LoggedIn bool             `json:"logged_in"`
	Session  *offline.Session `json:"session,omitempty"`
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Authenticates against the backend and stores the session used for every later request. Login is never queued.
// @Tags        Session
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     503  {object}  handlers.ErrorResponse  "Offline"
// @Router      /session [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	sess, err := h.d.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var se *offline.ServerError
		switch {
		case errors.Is(err, client.ErrCredentialsRequired):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.As(err, &se) && se.Status == http.StatusUnauthorized:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, se.Message)
		default:
			h.dispatchError(c, err)
		}
		return
	}
	ok(c, http.StatusOK, SessionResponse{LoggedIn: true, Session: sess})
}

// GetSession godoc
// @ID          getSession
// @Summary     Current session
// @Tags        Session
// @Produce     json
// @Success     200  {object}  handlers.SessionResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /session [get]
func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.d.Sessions.Get(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, SessionResponse{LoggedIn: sess != nil, Session: sess})
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Forgets the session. Queued writes stay queued.
// @Tags        Session
// @Success     204  {string}  string  "No Content"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /session [delete]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.d.Accounts.Logout(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
