package handlers

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/logger"
	"github.com/Conceptual-Machines/composer-api/internal/services"
	"github.com/gin-gonic/gin"
)

const statusClientClosedRequest = 499

// respondError maps domain errors to status codes; anything unexpected is
// logged and reported as a 500
func respondError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidMeasures),
		errors.Is(err, apperrors.ErrUnknownTechnique),
		errors.Is(err, services.ErrTooManyMeasures):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCompositionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		c.Status(statusClientClosedRequest)
	case apperrors.IsResourceError(err):
		logger.Error(msg, err, logger.WithContext(c))
		c.JSON(http.StatusBadGateway, gin.H{"error": msg, "details": err.Error()})
	default:
		logger.Error(msg, err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
