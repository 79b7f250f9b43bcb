package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/ml/features"
	"defi-risk-ai/internal/ml/training"
	"defi-risk-ai/internal/service"
	"defi-risk-ai/pkg/tracing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	ToolScorePosition = "score_position"
	ToolExplainScore  = "explain_score"
	ToolModelInfo     = "model_info"
	ToolRetrain       = "retrain_models"
)

type RiskAPI interface {
	Score(ctx context.Context, req domain.ScoringRequest) (*domain.ScoringResult, error)
	Explain(ctx context.Context, result *domain.ScoringResult, req domain.ScoringRequest) (*domain.ExplanationResult, error)
	Retrain(ctx context.Context, samples []features.Set) (training.RetrainStatus, error)
	ModelInfo() service.ModelInfo
}

type explainArgs struct {
	Prediction *domain.ScoringResult `json:"prediction"`
	Request    domain.ScoringRequest `json:"request"`
}

type retrainArgs struct {
	Samples []features.Set `json:"samples"`
}

type tools struct {
	tracer trace.Tracer
	risk   RiskAPI
	log    zerolog.Logger
}

// New builds an MCP server exposing scoring, explanation and model info as
// tools. Tool failures are reported as error results, not protocol errors.
func New(tracer trace.Tracer, risk RiskAPI, log zerolog.Logger) *mcp.Server {
	t := &tools{tracer: tracer, risk: risk, log: log.With().Str("component", "mcp").Logger()}
	s := mcp.NewServer(&mcp.Implementation{Name: tracing.ServiceName, Version: tracing.ServiceVersion}, nil)

	s.AddTool(&mcp.Tool{
		Name:        ToolScorePosition,
		Description: "Score a liquidity position. Arguments are a scoring request with position, pool_state and risk_metrics.",
		InputSchema: objectSchema([]string{"position", "pool_state", "risk_metrics"}, map[string]*jsonschema.Schema{
			"position":        {Type: "object"},
			"pool_state":      {Type: "object"},
			"risk_metrics":    {Type: "object"},
			"historical_data": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		}),
	}, t.score)

	s.AddTool(&mcp.Tool{
		Name:        ToolExplainScore,
		Description: "Explain a scoring result previously returned by score_position, given the request it was computed from.",
		InputSchema: objectSchema([]string{"prediction", "request"}, map[string]*jsonschema.Schema{
			"prediction": {Type: "object"},
			"request":    {Type: "object"},
		}),
	}, t.explain)

	s.AddTool(&mcp.Tool{
		Name:        ToolModelInfo,
		Description: "Describe the loaded predictors, model version and retrain state.",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{}),
	}, t.modelInfo)

	s.AddTool(&mcp.Tool{
		Name:        ToolRetrain,
		Description: "Start a background refit of the protocol risk detector, optionally from supplied feature samples.",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
			"samples": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		}),
	}, t.retrain)

	return s
}

func (t *tools) score(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.score-position")
	defer span.End()

	var in domain.ScoringRequest
	if err := decodeArgs(req, &in); err != nil {
		return errorResult(err), nil
	}
	res, err := t.risk.Score(ctx, in)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(res)
}

func (t *tools) explain(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.explain-score")
	defer span.End()

	var in explainArgs
	if err := decodeArgs(req, &in); err != nil {
		return errorResult(err), nil
	}
	out, err := t.risk.Explain(ctx, in.Prediction, in.Request)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(out)
}

func (t *tools) modelInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.risk.ModelInfo())
}

func (t *tools) retrain(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.retrain")
	defer span.End()

	var in retrainArgs
	if err := decodeArgs(req, &in); err != nil {
		return errorResult(err), nil
	}
	status, err := t.risk.Retrain(ctx, in.Samples)
	if err != nil {
		return errorResult(err), nil
	}
	t.log.Info().Str("status", string(status)).Msg("retrain requested over mcp")
	return jsonResult(map[string]string{"status": string(status)})
}

func objectSchema(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Required: required, Properties: props}
}

func decodeArgs(req *mcp.CallToolRequest, dst any) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
