package handler

import (
	"errors"
	"net/http"

	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/service"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var invalid *domain.InvalidInputError
	var prediction *domain.PredictionError
	var explanation *domain.ExplanationError
	switch {
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.As(err, &explanation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &prediction):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrRetrainDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
