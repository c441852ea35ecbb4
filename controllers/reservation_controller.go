package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/services"
)

type ReservationController struct {
	ReservationSvc *services.ReservationService
	Log            *logrus.Logger
}

func NewReservationController(svc *services.ReservationService, log *logrus.Logger) *ReservationController {
	return &ReservationController{ReservationSvc: svc, Log: log}
}

type createReservationRequest struct {
	RoomID uint  `json:"roomId" binding:"required"`
	CIN    int64 `json:"cin" binding:"required"`
}

// academicYear is a date ("2024-10-01") or a full RFC 3339 timestamp.
type updateReservationRequest struct {
	Valid        *bool   `json:"valid"`
	AcademicYear *string `json:"academicYear"`
}

// ----------------------------------------------------
// GET /api/reservations
// ----------------------------------------------------
func (c *ReservationController) GetReservations(ctx *gin.Context) {
	list, err := c.ReservationSvc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// ----------------------------------------------------
// GET /api/reservations/:id
// ----------------------------------------------------
func (c *ReservationController) GetReservation(ctx *gin.Context) {
	r, err := c.ReservationSvc.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, r)
}

// ----------------------------------------------------
// POST /api/reservations
// ----------------------------------------------------
func (c *ReservationController) CreateReservation(ctx *gin.Context) {
	var req createReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}
	r, err := c.ReservationSvc.Create(ctx.Request.Context(), req.RoomID, req.CIN)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusCreated, r)
}

// ----------------------------------------------------
// POST /api/reservations/cancel/:cin
// ----------------------------------------------------
func (c *ReservationController) CancelReservation(ctx *gin.Context) {
	cin, ok := cinParam(ctx, "cin")
	if !ok {
		return
	}
	r, err := c.ReservationSvc.Cancel(ctx.Request.Context(), cin)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, r)
}

// ----------------------------------------------------
// PATCH /api/reservations/:id
// ----------------------------------------------------
func (c *ReservationController) UpdateReservation(ctx *gin.Context) {
	var req updateReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload", err)
		return
	}

	in := services.UpdateReservationInput{Valid: req.Valid}
	if req.AcademicYear != nil {
		t, err := parseDate(*req.AcademicYear)
		if err != nil {
			badRequest(ctx, "academicYear must be a date (2006-01-02)", err)
			return
		}
		in.AcademicYear = &t
	}

	r, err := c.ReservationSvc.Update(ctx.Request.Context(), ctx.Param("id"), in)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, r)
}

// ----------------------------------------------------
// GET /api/universities/by-name/:name/reservations?year=2024
// ----------------------------------------------------
func (c *ReservationController) GetReservationsByUniversityAndYear(ctx *gin.Context) {
	year := ctx.Query("year")
	if year == "" {
		badRequest(ctx, "query parameter year is required", nil)
		return
	}
	list, err := c.ReservationSvc.ListForUniversityAndYear(ctx.Request.Context(), ctx.Param("name"), year)
	if err != nil {
		respondError(ctx, c.Log, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
