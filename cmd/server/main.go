package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"defi-risk-ai/internal/cache"
	"defi-risk-ai/internal/config"
	"defi-risk-ai/internal/handler"
	"defi-risk-ai/internal/job"
	"defi-risk-ai/internal/ml/registry"
	"defi-risk-ai/internal/ml/training"
	"defi-risk-ai/internal/service"
	"defi-risk-ai/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "defi-risk-ai/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	startJobFunc           = func(j *job.RetrainJob, ctx context.Context) { go j.Start(ctx) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           DeFi Risk AI API
// @version         1.0
// @description     Composite risk scoring and explanations for concentrated liquidity positions.

// @host      localhost:8001
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()

	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{Enabled: cfg.TracingEnabled, Endpoint: cfg.OTLPEndpoint})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	redisClient, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without result cache")
		redisClient = nil
	}

	var samples training.SampleStore = training.NewMemoryBuffer(cfg.SampleBufferSize)
	var results service.ResultCache
	if redisClient != nil {
		defer redisClient.Close()
		samples = cache.NewSampleStore(redisClient, cfg.SampleBufferSize, log.Logger)
		results = cache.NewResultCache(redisClient, time.Duration(cfg.ResultCacheTTLSecs)*time.Second)
		log.Info().Msg("connected to redis")
	}

	reg := registry.New(cfg.ModelVersion)
	trainer := training.NewService(tracer, reg, samples, training.Config{MinSamples: cfg.RetrainMinSamples}, log.Logger)
	if cfg.ProtocolModel == config.ProtocolModelSynthetic {
		if _, err := trainer.FitSynthetic(ctx); err != nil {
			log.Error().Err(err).Msg("synthetic fit failed, serving heuristic protocol scorer")
		}
	}

	riskService := service.NewRiskService(tracer, reg, trainer, samples, results,
		service.RiskConfig{Confidence: cfg.ModelConfidence}, log.Logger)

	if retrainJob := job.NewRetrainJob(tracer, trainer, cfg.RetrainHourUTC, log.Logger); retrainJob != nil {
		startJobFunc(retrainJob, ctx)
	}

	h := newHandlerFunc(tracer, riskService, cfg.AdminAPIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("model_version", reg.Current().Version).Msg("risk service listening")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
