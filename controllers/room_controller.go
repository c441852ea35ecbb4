package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/services"
)

type RoomController struct {
	RoomSvc *services.RoomService
	Log     *logrus.Logger
}

func NewRoomController(svc *services.RoomService, log *logrus.Logger) *RoomController {
	return &RoomController{RoomSvc: svc, Log: log}
}

// ----------------------------------------------------
// GET /api/rooms
// ----------------------------------------------------
func (c *RoomController) GetRooms(ctx *gin.Context) {
	list, err := c.RoomSvc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// ----------------------------------------------------
// GET /api/rooms/:id
// ----------------------------------------------------
func (c *RoomController) GetRoom(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	item, err := c.RoomSvc.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ----------------------------------------------------
// POST /api/rooms
// ----------------------------------------------------
func (c *RoomController) CreateRoom(ctx *gin.Context) {
	var item models.Room
	if err := ctx.ShouldBindJSON(&item); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	if err := c.RoomSvc.Create(ctx.Request.Context(), &item); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// ----------------------------------------------------
// PUT /api/rooms/:id
// ----------------------------------------------------
func (c *RoomController) UpdateRoom(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in models.Room
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	item, err := c.RoomSvc.Update(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ----------------------------------------------------
// DELETE /api/rooms/:id
// ----------------------------------------------------
func (c *RoomController) DeleteRoom(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.RoomSvc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ----------------------------------------------------
// GET /api/universities/by-name/:name/rooms
// ----------------------------------------------------
func (c *RoomController) GetRoomsByUniversity(ctx *gin.Context) {
	rooms, err := c.RoomSvc.ByUniversity(ctx.Request.Context(), ctx.Param("name"))
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, rooms)
}

// ----------------------------------------------------
// GET /api/blocs/:id/rooms?type=DOUBLE
// ----------------------------------------------------
func (c *RoomController) GetRoomsByBlocAndType(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	raw := ctx.Query("type")
	if raw == "" {
		badRequest(ctx, "query parameter type is required", nil)
		return
	}
	rooms, err := c.RoomSvc.ByBlocAndType(ctx.Request.Context(), id, models.ParseRoomType(raw))
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, rooms)
}
