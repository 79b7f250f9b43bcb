package handler

import (
	"errors"
	"io"
	"net/http"

	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/ml/features"
	"defi-risk-ai/internal/ml/training"

	"github.com/gin-gonic/gin"
)

type ExplainRequest struct {
	Prediction *domain.ScoringResult `json:"prediction"`
	Request    domain.ScoringRequest `json:"request"`
}

type TrainRequest struct {
	Samples []features.Set `json:"samples"`
}

type TrainResponse struct {
	Status  training.RetrainStatus `json:"status"`
	Message string                 `json:"message"`
}

// Predict godoc
// @Summary      Score a liquidity position
// @Description  Computes the composite risk score, sub-scores and risk factors for a position snapshot
// @Tags         risk
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ScoringRequest  true  "Position, pool and risk metric snapshots"
// @Success      200      {object}  domain.ScoringResult
// @Failure      400      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /predict [post]
func (h *Handler) Predict(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.predict")
	defer span.End()

	var req domain.ScoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.risk.Score(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Explain godoc
// @Summary      Explain a scoring result
// @Description  Renders summary, insights, factor explanations and recommendations for a previously computed result
// @Tags         risk
// @Accept       json
// @Produce      json
// @Param        request  body      ExplainRequest  true  "Scoring result and the request it was computed from"
// @Success      200      {object}  domain.ExplanationResult
// @Failure      400      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /explain [post]
func (h *Handler) Explain(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.explain")
	defer span.End()

	var body ExplainRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	out, err := h.risk.Explain(ctx, body.Prediction, body.Request)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Train godoc
// @Summary      Trigger protocol model retraining
// @Description  Starts a background refit of the protocol risk detector. Without samples the collected feature buffer is used.
// @Tags         models
// @Accept       json
// @Produce      json
// @Param        request  body      TrainRequest  false  "Optional protocol feature samples"
// @Success      202      {object}  TrainResponse
// @Failure      400      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Failure      503      {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /train [post]
func (h *Handler) Train(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.train")
	defer span.End()

	var body TrainRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	status, err := h.risk.Retrain(ctx, body.Samples)
	if err != nil {
		writeError(c, err)
		return
	}

	msg := "Model retraining started"
	if status == training.RetrainAlreadyRunning {
		msg = "Model retraining already running"
	}
	c.JSON(http.StatusAccepted, TrainResponse{Status: status, Message: msg})
}

// ModelInfo godoc
// @Summary      Describe loaded models
// @Description  Reports type, version and status of each predictor plus retrain state
// @Tags         models
// @Produce      json
// @Success      200  {object}  service.ModelInfo
// @Router       /models/info [get]
func (h *Handler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.risk.ModelInfo())
}
