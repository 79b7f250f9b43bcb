package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"defi-risk-ai/internal/config"
	"defi-risk-ai/internal/job"
	"defi-risk-ai/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps(&config.Config{
		Port:              8001,
		LogLevel:          zerolog.Disabled,
		ProtocolModel:     config.ProtocolModelHeuristic,
		ModelVersion:      "1.0.0-alpha",
		RetrainMinSamples: 64,
		RetrainHourUTC:    -1,
		SampleBufferSize:  10,
	})
	defer restore()

	runMain(t)
}

func TestMainBootstrapSyntheticWithRetrainJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps(&config.Config{
		Port:              8001,
		LogLevel:          zerolog.Disabled,
		RedisURL:          "localhost:6379",
		ProtocolModel:     config.ProtocolModelSynthetic,
		ModelVersion:      "1.0.0-alpha",
		RetrainMinSamples: 64,
		RetrainHourUTC:    2,
		SampleBufferSize:  10,
	})
	defer restore()

	started := false
	startJobFunc = func(*job.RetrainJob, context.Context) { started = true }

	runMain(t)
	if !started {
		t.Fatal("expected retrain job to start")
	}
}

func runMain(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps(cfg *config.Config) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origStartJob := startJobFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config { return cfg }
	initRedisFunc = func(context.Context, string) (*redis.Client, error) {
		return nil, errors.New("redis disabled in tests")
	}
	initTracerFunc = func(ctx context.Context, opts tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startJobFunc = func(*job.RetrainJob, context.Context) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		startJobFunc = origStartJob
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
