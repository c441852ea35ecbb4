package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/models"
	"foyer-backend/services"
)

type StudentController struct {
	StudentSvc *services.StudentService
	Log        *logrus.Logger
}

func NewStudentController(svc *services.StudentService, log *logrus.Logger) *StudentController {
	return &StudentController{StudentSvc: svc, Log: log}
}

// ----------------------------------------------------
// GET /api/students
// ----------------------------------------------------
func (c *StudentController) GetStudents(ctx *gin.Context) {
	list, err := c.StudentSvc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// ----------------------------------------------------
// GET /api/students/:id
// ----------------------------------------------------
func (c *StudentController) GetStudent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	item, err := c.StudentSvc.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ----------------------------------------------------
// POST /api/students
// ----------------------------------------------------
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var item models.Student
	if err := ctx.ShouldBindJSON(&item); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	if err := c.StudentSvc.Create(ctx.Request.Context(), &item); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// ----------------------------------------------------
// PUT /api/students/:id
// ----------------------------------------------------
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in models.Student
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	item, err := c.StudentSvc.Update(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ----------------------------------------------------
// DELETE /api/students/:id
// ----------------------------------------------------
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.StudentSvc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ----------------------------------------------------
// POST /api/students/batch
// ----------------------------------------------------
func (c *StudentController) CreateStudents(ctx *gin.Context) {
	var items []models.Student
	if err := ctx.ShouldBindJSON(&items); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	created, err := c.StudentSvc.CreateBatch(ctx.Request.Context(), items)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// ----------------------------------------------------
// GET /api/students/cin/:cin
// ----------------------------------------------------
func (c *StudentController) GetStudentByCIN(ctx *gin.Context) {
	cin, ok := cinParam(ctx, "cin")
	if !ok {
		return
	}
	st, err := c.StudentSvc.ByCIN(ctx.Request.Context(), cin)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, st)
}
