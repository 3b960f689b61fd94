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

// OpenRsvpController is the directory-less RSVP surface: anyone may submit
// under their own name, and the guard works off name + network address.
type OpenRsvpController struct {
	Rsvp *services.RsvpService
	log  zerolog.Logger
}

// NewOpenRsvpController constructor
func NewOpenRsvpController(rsvp *services.RsvpService, log zerolog.Logger) *OpenRsvpController {
	return &OpenRsvpController{
		Rsvp: rsvp,
		log:  log.With().Str("component", "open-rsvp-api").Logger(),
	}
}

// CheckSubmission handles GET /api/rsvp?name=... — reports both duplicate
// signals so the form can warn instead of hard-blocking.
func (ctrl *OpenRsvpController) CheckSubmission(c *gin.Context) {
	status, err := ctrl.Rsvp.CheckOpen(c.Request.Context(), c.Query("name"), c.ClientIP())
	if err != nil {
		ctrl.log.Error().Err(err).Msg("CheckOpen error")
		utils.JSONError(c, http.StatusInternalServerError, "service temporarily unavailable, please retry")
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"hasSubmitted":  status.HasSubmitted,
		"nameMatch":     status.NameMatch,
		"ipMatch":       status.IPMatch,
		"submittedName": status.SubmittedName,
	})
}

// Submit handles POST /api/rsvp.
func (ctrl *OpenRsvpController) Submit(c *gin.Context) {
	var req struct {
		Name       string `json:"name"`
		Attendance string `json:"attendance"`
		Guests     int    `json:"guests"`
		Song       string `json:"song"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := ctrl.Rsvp.SubmitOpen(c.Request.Context(), services.OpenRsvpSubmission{
		Name:        req.Name,
		Attendance:  models.Attendance(strings.ToLower(strings.TrimSpace(req.Attendance))),
		TotalGuests: req.Guests,
		Song:        req.Song,
		IP:          c.ClientIP(),
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{
				"success":          false,
				"alreadySubmitted": true,
				"error":            "this name has already submitted an RSVP",
			})
			return
		}
		if errors.Is(err, services.ErrUpstreamUnavailable) {
			ctrl.log.Error().Err(err).Msg("SubmitOpen upstream error")
		}
		status, msg := statusFor(err)
		utils.JSONError(c, status, msg)
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"registered":    true,
		"message":       "RSVP registered successfully",
		"ipAlreadyUsed": result.IPAlreadyUsed,
	})
}
