package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"defi-risk-ai/internal/config"
	"defi-risk-ai/internal/mcpserver"
	"defi-risk-ai/internal/ml/registry"
	"defi-risk-ai/internal/ml/training"
	"defi-risk-ai/internal/service"
	"defi-risk-ai/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	runStdioFunc   = func(ctx context.Context, s *mcp.Server) error {
		return s.Run(ctx, &mcp.StdioTransport{})
	}
	runHTTPFunc = func(ctx context.Context, s *mcp.Server, addr string) error {
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
		srv := &http.Server{Addr: addr, Handler: handler}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
	exitFunc = os.Exit
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()

	// stdout carries the stdio protocol, so logs always go to stderr.
	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{Enabled: cfg.TracingEnabled, Endpoint: cfg.OTLPEndpoint})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize tracer")
		exitFunc(1)
		return
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	reg := registry.New(cfg.ModelVersion)
	samples := training.NewMemoryBuffer(cfg.SampleBufferSize)
	trainer := training.NewService(tracer, reg, samples, training.Config{MinSamples: cfg.RetrainMinSamples}, log.Logger)
	if cfg.ProtocolModel == config.ProtocolModelSynthetic {
		if _, err := trainer.FitSynthetic(ctx); err != nil {
			log.Error().Err(err).Msg("synthetic fit failed, serving heuristic protocol scorer")
		}
	}
	risk := service.NewRiskService(tracer, reg, trainer, samples, nil,
		service.RiskConfig{Confidence: cfg.ModelConfidence}, log.Logger)
	server := mcpserver.New(tracer, risk, log.Logger)

	switch cfg.MCPTransport {
	case "http":
		addr := fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
		log.Info().Str("addr", addr).Msg("mcp streamable http listening")
		err = runHTTPFunc(ctx, server, addr)
	default:
		log.Info().Msg("mcp stdio transport ready")
		err = runStdioFunc(ctx, server)
	}
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("mcp server stopped")
		exitFunc(1)
	}
}
