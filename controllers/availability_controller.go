package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/services"
)

type AvailabilityController struct {
	AvailabilitySvc *services.AvailabilityService
	Log             *logrus.Logger
}

func NewAvailabilityController(svc *services.AvailabilityService, log *logrus.Logger) *AvailabilityController {
	return &AvailabilityController{AvailabilitySvc: svc, Log: log}
}

// ----------------------------------------------------
// GET /api/availability/universities/:name?type=SIMPLE
// ----------------------------------------------------
func (c *AvailabilityController) GetAvailableRooms(ctx *gin.Context) {
	raw := ctx.Query("type")
	if raw == "" {
		badRequest(ctx, "query parameter type is required", nil)
		return
	}
	rooms, err := c.AvailabilitySvc.AvailableRooms(ctx.Request.Context(), ctx.Param("name"), models.ParseRoomType(raw))
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, rooms)
}

// ----------------------------------------------------
// GET /api/availability?type=DOUBLE (type optional)
// ----------------------------------------------------
func (c *AvailabilityController) GetAvailableRoomsAllUniversities(ctx *gin.Context) {
	var roomType *models.RoomType
	if raw := ctx.Query("type"); raw != "" {
		t := models.ParseRoomType(raw)
		roomType = &t
	}
	m, err := c.AvailabilitySvc.AvailableRoomsAllUniversities(ctx.Request.Context(), roomType)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, m)
}
