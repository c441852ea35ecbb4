package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/services"
)

type UniversityController struct {
	UniversitySvc *services.UniversityService
	Log           *logrus.Logger
}

func NewUniversityController(svc *services.UniversityService, log *logrus.Logger) *UniversityController {
	return &UniversityController{UniversitySvc: svc, Log: log}
}

// ----------------------------------------------------
// GET /api/universities
// ----------------------------------------------------
func (c *UniversityController) GetUniversities(ctx *gin.Context) {
	list, err := c.UniversitySvc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// ----------------------------------------------------
// GET /api/universities/:id
// ----------------------------------------------------
func (c *UniversityController) GetUniversity(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	u, err := c.UniversitySvc.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

// ----------------------------------------------------
// POST /api/universities
// ----------------------------------------------------
func (c *UniversityController) CreateUniversity(ctx *gin.Context) {
	var u models.University
	if err := ctx.ShouldBindJSON(&u); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	if err := c.UniversitySvc.Create(ctx.Request.Context(), &u); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusCreated, u)
}

// ----------------------------------------------------
// PUT /api/universities/:id
// ----------------------------------------------------
func (c *UniversityController) UpdateUniversity(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in models.University
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	u, err := c.UniversitySvc.Update(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

// ----------------------------------------------------
// DELETE /api/universities/:id
// ----------------------------------------------------
func (c *UniversityController) DeleteUniversity(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.UniversitySvc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ----------------------------------------------------
// PUT /api/universities/by-name/:name/foyer/:foyerId
// ----------------------------------------------------
func (c *UniversityController) AssignFoyer(ctx *gin.Context) {
	foyerID, ok := idParam(ctx, "foyerId")
	if !ok {
		return
	}
	u, err := c.UniversitySvc.AssignFoyer(ctx.Request.Context(), foyerID, ctx.Param("name"))
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

// ----------------------------------------------------
// DELETE /api/universities/:id/foyer
// ----------------------------------------------------
func (c *UniversityController) UnassignFoyer(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	u, err := c.UniversitySvc.UnassignFoyer(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, u)
}

// ----------------------------------------------------
// POST /api/universities/:id/foyer
// ----------------------------------------------------
func (c *UniversityController) CreateFoyerAndAssign(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var f models.Foyer
	if err := ctx.ShouldBindJSON(&f); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	u, err := c.UniversitySvc.CreateFoyerAndAssign(ctx.Request.Context(), &f, id)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusCreated, u)
}
