package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/services"
)

type FoyerController struct {
	FoyerSvc *services.FoyerService
	Log      *logrus.Logger
}

func NewFoyerController(svc *services.FoyerService, log *logrus.Logger) *FoyerController {
	return &FoyerController{FoyerSvc: svc, Log: log}
}

// ----------------------------------------------------
// GET /api/foyers
// ----------------------------------------------------
func (c *FoyerController) GetFoyers(ctx *gin.Context) {
	list, err := c.FoyerSvc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// ----------------------------------------------------
// GET /api/foyers/:id
// ----------------------------------------------------
func (c *FoyerController) GetFoyer(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	item, err := c.FoyerSvc.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ----------------------------------------------------
// POST /api/foyers
// ----------------------------------------------------
func (c *FoyerController) CreateFoyer(ctx *gin.Context) {
	var item models.Foyer
	if err := ctx.ShouldBindJSON(&item); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	if err := c.FoyerSvc.Create(ctx.Request.Context(), &item); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// ----------------------------------------------------
// PUT /api/foyers/:id
// ----------------------------------------------------
func (c *FoyerController) UpdateFoyer(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in models.Foyer
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	item, err := c.FoyerSvc.Update(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ----------------------------------------------------
// DELETE /api/foyers/:id
// ----------------------------------------------------
func (c *FoyerController) DeleteFoyer(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.FoyerSvc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
