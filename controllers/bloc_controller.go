package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/services"
)

type BlocController struct {
	BlocSvc *services.BlocService
	Log     *logrus.Logger
}

func NewBlocController(svc *services.BlocService, log *logrus.Logger) *BlocController {
	return &BlocController{BlocSvc: svc, Log: log}
}

// ----------------------------------------------------
// GET /api/blocs
// ----------------------------------------------------
func (c *BlocController) GetBlocs(ctx *gin.Context) {
	list, err := c.BlocSvc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// ----------------------------------------------------
// GET /api/blocs/:id
// ----------------------------------------------------
func (c *BlocController) GetBloc(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	item, err := c.BlocSvc.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ----------------------------------------------------
// POST /api/blocs
// ----------------------------------------------------
func (c *BlocController) CreateBloc(ctx *gin.Context) {
	var item models.Bloc
	if err := ctx.ShouldBindJSON(&item); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	if err := c.BlocSvc.Create(ctx.Request.Context(), &item); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// ----------------------------------------------------
// PUT /api/blocs/:id
// ----------------------------------------------------
func (c *BlocController) UpdateBloc(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in models.Bloc
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	item, err := c.BlocSvc.Update(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ----------------------------------------------------
// DELETE /api/blocs/:id
// ----------------------------------------------------
func (c *BlocController) DeleteBloc(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.BlocSvc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

type assignRoomsRequest struct {
	RoomNumbers []int64 `json:"roomNumbers" binding:"required"`
}

// ----------------------------------------------------
// PUT /api/blocs/:id/rooms
// ----------------------------------------------------
func (c *BlocController) AssignRooms(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req assignRoomsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	bloc, rooms, err := c.BlocSvc.AssignRooms(ctx.Request.Context(), req.RoomNumbers, id)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"bloc": bloc, "rooms": rooms})
}
