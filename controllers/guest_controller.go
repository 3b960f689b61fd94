package controllers

import (
	"errors"
	"net/http"
	"strings"

	"wedding-backend/models"
	"wedding-backend/services"
	"wedding-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const sessionCookieName = "guest_session"

// GuestController is the HTTP surface for code validation, session
// resolution and RSVP submission.
type GuestController struct {
	Rsvp     *services.RsvpService
	Sessions *services.SessionService

	CookieSecure bool
	log          zerolog.Logger
}

// NewGuestController constructor
func NewGuestController(rsvp *services.RsvpService, sessions *services.SessionService, cookieSecure bool, log zerolog.Logger) *GuestController {
	return &GuestController{
		Rsvp:         rsvp,
		Sessions:     sessions,
		CookieSecure: cookieSecure,
		log:          log.With().Str("component", "guest-api").Logger(),
	}
}

func (ctrl *GuestController) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(ctrl.Sessions.TTL().Seconds()), "/", "", ctrl.CookieSecure, true)
}

func (ctrl *GuestController) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", ctrl.CookieSecure, true)
}

// statusFor translates service sentinels into the stable HTTP vocabulary.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "invalid code"
	case errors.Is(err, services.ErrEventClosed):
		return http.StatusConflict, services.ErrEventClosed.Error()
	case errors.Is(err, services.ErrDuplicate):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "service temporarily unavailable, please retry"
	}
}

// GetGuest handles GET /api/guest: logout, cookie resolution and code
// validation, in that order — same contract the frontend has always spoken.
func (ctrl *GuestController) GetGuest(c *gin.Context) {
	if c.Query("logout") == "true" {
		ctrl.Logout(c)
		return
	}

	code := strings.TrimSpace(c.Query("code"))
	cookieToken, _ := c.Cookie(sessionCookieName)

	// Returning visitor with a session and no explicit code.
	if cookieToken != "" && code == "" {
		guest, err := ctrl.Sessions.Validate(c.Request.Context(), cookieToken)
		if err == nil {
			utils.JSONSuccess(c, http.StatusOK, gin.H{"guest": guest, "fromCookie": true})
			return
		}
		if errors.Is(err, services.ErrUpstreamUnavailable) {
			status, msg := statusFor(err)
			utils.JSONError(c, status, msg)
			return
		}
		// Stale or revoked session: clear it and fall through to the
		// code path.
		ctrl.clearSessionCookie(c)
	}

	if code == "" {
		utils.JSONError(c, http.StatusBadRequest, "code is required")
		return
	}

	guest, err := ctrl.Rsvp.ValidateCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrUpstreamUnavailable) {
			ctrl.log.Error().Err(err).Msg("ValidateCode upstream error")
		}
		status, msg := statusFor(err)
		utils.JSONError(c, status, msg)
		return
	}

	session, err := ctrl.Sessions.Issue(c.Request.Context(), guest)
	if err != nil {
		ctrl.log.Error().Err(err).Msg("failed to issue session")
		status, msg := statusFor(err)
		utils.JSONError(c, status, msg)
		return
	}
	ctrl.setSessionCookie(c, session.Token)

	utils.JSONSuccess(c, http.StatusOK, gin.H{"guest": guest})
}

// SubmitRsvp handles PATCH /api/guest. A live session cookie identifies the
// guest; the body code is the fallback for clients without one.
func (ctrl *GuestController) SubmitRsvp(c *gin.Context) {
	var req struct {
		Code        string `json:"code"`
		Attendance  string `json:"attendance"`
		TotalGuests int    `json:"totalGuests"`
		Song        string `json:"song"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	code := strings.TrimSpace(req.Code)
	if cookieToken, _ := c.Cookie(sessionCookieName); cookieToken != "" {
		if guest, err := ctrl.Sessions.Validate(c.Request.Context(), cookieToken); err == nil {
			code = guest.Code
		}
	}
	if code == "" {
		utils.JSONError(c, http.StatusBadRequest, "code is required")
		return
	}

	result, err := ctrl.Rsvp.Submit(c.Request.Context(), services.RsvpSubmission{
		Code:        code,
		Attendance:  models.Attendance(strings.ToLower(strings.TrimSpace(req.Attendance))),
		TotalGuests: req.TotalGuests,
		Song:        req.Song,
	})
	if err != nil {
		if errors.Is(err, services.ErrUpstreamUnavailable) {
			ctrl.log.Error().Err(err).Msg("SubmitRsvp upstream error")
		}
		status, msg := statusFor(err)
		utils.JSONError(c, status, msg)
		return
	}

	if result.AlreadySubmitted {
		// Duplicate is informational for the guest: the first accepted
		// submission comes back untouched.
		utils.JSONSuccess(c, http.StatusConflict, gin.H{
			"alreadySubmitted": true,
			"guest":            result.Guest,
			"prior":            result.Prior,
		})
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"message": "RSVP updated successfully",
		"guest":   result.Guest,
	})
}

// Logout revokes the session (if any) and expires the cookie. Safe to call
// without a session.
func (ctrl *GuestController) Logout(c *gin.Context) {
	if token, _ := c.Cookie(sessionCookieName); token != "" {
		if err := ctrl.Sessions.Revoke(c.Request.Context(), token); err != nil {
			ctrl.log.Warn().Err(err).Msg("session revoke failed, expiring cookie anyway")
		}
	}
	ctrl.clearSessionCookie(c)
	utils.JSONSuccess(c, http.StatusOK, gin.H{"message": "Logged out"})
}
