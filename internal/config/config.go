package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	ProtocolModelHeuristic = "heuristic"
	ProtocolModelSynthetic = "synthetic"
)

type Config struct {
	Port     int
	LogLevel zerolog.Level

	RedisURL           string
	ResultCacheTTLSecs int

	ProtocolModel     string
	ModelVersion      string
	ModelConfidence   float64
	RetrainMinSamples int
	RetrainHourUTC    int
	SampleBufferSize  int

	AdminAPIKey string

	MCPTransport string
	MCPHTTPBind  string
	MCPHTTPPort  int

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() *Config {
	cfg := &Config{
		RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
		AdminAPIKey:  os.Getenv("ADMIN_API_KEY"),
		OTLPEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, result cache disabled and samples kept in memory")
	}
	if cfg.AdminAPIKey == "" {
		log.Warn().Msg("ADMIN_API_KEY not set, /train is unauthenticated")
	}

	cfg.Port = 8001
	if v := strings.TrimSpace(os.Getenv("AI_SERVICE_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.Port = n
		} else {
			log.Warn().Str("value", v).Msg("invalid AI_SERVICE_PORT, defaulting to 8001")
		}
	}

	cfg.LogLevel = zerolog.InfoLevel
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil && lvl != zerolog.NoLevel {
			cfg.LogLevel = lvl
		} else {
			log.Warn().Str("value", v).Msg("invalid LOG_LEVEL, defaulting to info")
		}
	}

	cfg.ResultCacheTTLSecs = 60
	if v := strings.TrimSpace(os.Getenv("RESULT_CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ResultCacheTTLSecs = n
		}
	}

	cfg.ProtocolModel = strings.ToLower(strings.TrimSpace(os.Getenv("PROTOCOL_MODEL")))
	if cfg.ProtocolModel == "" {
		cfg.ProtocolModel = ProtocolModelHeuristic
	}
	if cfg.ProtocolModel != ProtocolModelHeuristic && cfg.ProtocolModel != ProtocolModelSynthetic {
		log.Warn().Str("value", cfg.ProtocolModel).Msg("unsupported PROTOCOL_MODEL, defaulting to heuristic")
		cfg.ProtocolModel = ProtocolModelHeuristic
	}

	cfg.ModelVersion = strings.TrimSpace(os.Getenv("MODEL_VERSION"))
	if cfg.ModelVersion == "" {
		cfg.ModelVersion = "1.0.0-alpha"
	}

	cfg.ModelConfidence = 0.85
	if v := strings.TrimSpace(os.Getenv("MODEL_CONFIDENCE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n <= 1 {
			cfg.ModelConfidence = n
		}
	}

	cfg.RetrainMinSamples = 64
	if v := strings.TrimSpace(os.Getenv("RETRAIN_MIN_SAMPLES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RetrainMinSamples = n
		}
	}

	cfg.RetrainHourUTC = -1
	if v := strings.TrimSpace(os.Getenv("RETRAIN_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.RetrainHourUTC = n
		} else {
			log.Warn().Str("value", v).Msg("invalid RETRAIN_HOUR_UTC, scheduled retrain disabled")
		}
	}

	cfg.SampleBufferSize = 5000
	if v := strings.TrimSpace(os.Getenv("SAMPLE_BUFFER_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SampleBufferSize = n
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warn().Str("value", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT, defaulting to stdio")
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.TracingEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false")

	return cfg
}
