package handler

import (
	"context"

	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/ml/features"
	"defi-risk-ai/internal/ml/training"
	"defi-risk-ai/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ServiceVersion is reported by the health check.
const ServiceVersion = "1.0.0"

type RiskAPI interface {
	Score(ctx context.Context, req domain.ScoringRequest) (*domain.ScoringResult, error)
	Explain(ctx context.Context, result *domain.ScoringResult, req domain.ScoringRequest) (*domain.ExplanationResult, error)
	Retrain(ctx context.Context, samples []features.Set) (training.RetrainStatus, error)
	ModelInfo() service.ModelInfo
}

type Handler struct {
	tracer   trace.Tracer
	risk     RiskAPI
	adminKey string
}

func New(tracer trace.Tracer, risk RiskAPI, adminKey string) *Handler {
	return &Handler{
		tracer:   tracer,
		risk:     risk,
		adminKey: adminKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)
	r.POST("/explain", h.Explain)
	r.POST("/train", APIKeyAuth(h.adminKey), h.Train)
	r.GET("/models/info", h.ModelInfo)
}
