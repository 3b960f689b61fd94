package controllers

import (
	"net/http"
	"time"

	"wedding-backend/services"
	"wedding-backend/utils"

	"github.com/gin-gonic/gin"
)

// EventController exposes the event state for the frontend poller.
type EventController struct {
	Events *services.EventService
}

// NewEventController constructor
func NewEventController(events *services.EventService) *EventController {
	return &EventController{Events: events}
}

// GetState handles GET /api/event.
func (ctrl *EventController) GetState(c *gin.Context) {
	start, end := ctrl.Events.Window()
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"state": ctrl.Events.Current(),
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	})
}
