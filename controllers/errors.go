package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/services"
	"foyer-backend/store"
	"foyer-backend/utils"
)

// respondError maps service and store failures onto HTTP statuses and the
// {"error": {...}} body.
func respondError(ctx *gin.Context, log *logrus.Logger, err error) {
	var details interface{}
	var de *services.DomainError
	if errors.As(err, &de) && de.Entity != "" {
		details = gin.H{"entity": de.Entity, "key": de.Key}
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.JSONError(ctx, http.StatusNotFound, "error.notFound", err.Error(), details)
	case errors.Is(err, services.ErrValidation):
		utils.JSONError(ctx, http.StatusBadRequest, "error.validation", err.Error(), details)
	case errors.Is(err, services.ErrCapacityExceeded):
		utils.JSONError(ctx, http.StatusConflict, "error.capacityExceeded", err.Error(), details)
	case errors.Is(err, services.ErrInvalidState):
		utils.JSONError(ctx, http.StatusConflict, "error.invalidState", err.Error(), details)
	case errors.Is(err, services.ErrConflict), errors.Is(err, store.ErrConflict):
		utils.JSONError(ctx, http.StatusConflict, "error.conflict", err.Error(), details)
	case errors.Is(err, store.ErrDuplicate):
		utils.JSONError(ctx, http.StatusConflict, "error.duplicate", "a record with the same unique key already exists", nil)
	case errors.Is(err, store.ErrForeignKey):
		utils.JSONError(ctx, http.StatusConflict, "error.referenced", "the record is referenced by or references a missing record", nil)
	case errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).WithField("path", ctx.FullPath()).Warn("⚠️ request timed out")
		utils.JSONError(ctx, http.StatusServiceUnavailable, "error.timeout", "the operation timed out, please retry", nil)
	default:
		log.WithError(err).WithField("path", ctx.FullPath()).Error("❌ request failed")
		utils.JSONError(ctx, http.StatusInternalServerError, "error.internal", "internal server error", nil)
	}
}

func badRequest(ctx *gin.Context, message string, err error) {
	var details interface{}
	if err != nil {
		if fields := utils.FormatValidationErrors(err); len(fields) > 0 {
			details = fields
		} else {
			details = err.Error()
		}
	}
	utils.JSONError(ctx, http.StatusBadRequest, "error.badRequest", message, details)
}

// idParam reads a positive numeric path parameter. It writes the 400 itself
// and returns false when the value is unusable.
func idParam(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		badRequest(ctx, "invalid "+name+": "+raw, nil)
		return 0, false
	}
	return uint(id), true
}

func cinParam(ctx *gin.Context, name string) (int64, bool) {
	raw := ctx.Param(name)
	cin, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cin <= 0 {
		badRequest(ctx, "invalid "+name+": "+raw, nil)
		return 0, false
	}
	return cin, true
}
