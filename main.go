package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/trade-chatbot/server/internal/analytics"
	"github.com/trade-chatbot/server/internal/api"
	"github.com/trade-chatbot/server/internal/core"
	"github.com/trade-chatbot/server/internal/llm"
	"github.com/trade-chatbot/server/internal/query"
	"github.com/trade-chatbot/server/internal/session"
	logx "github.com/trade-chatbot/server/pkg/logger"
	pkgpostgres "github.com/trade-chatbot/server/pkg/postgres"
	pkgredis "github.com/trade-chatbot/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config

	// LLM provider
	Gemini llm.Config

	// Sessions
	Session session.Config

	// HTTP surface
	Port         string   `envconfig:"PORT" default:"8080"`
	APIKey       string   `envconfig:"API_KEY" required:"true"`
	CORSOrigins  []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
	QueryLogPath string   `envconfig:"QUERY_LOG_PATH" default:"logs/query_log.jsonl"`
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise redis client")
	}
	defer rdb.Close()

	pool, err := cfg.Postgres.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise postgres pool")
	}
	defer pool.Close()

	model, err := llm.New(ctx, cfg.Gemini)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise gemini client")
	}

	ttl, err := time.ParseDuration(cfg.Session.TTL)
	if err != nil {
		logx.Fatal().Str("ttl", cfg.Session.TTL).Err(err).Msg("invalid SESSION_TTL")
	}

	sessions := session.NewManager(session.NewRedisRepository(rdb, ttl), cfg.Session.MaxTurns)
	runner := query.NewPoolRunner(pool)
	qlog := analytics.NewQueryLogger(cfg.QueryLogPath)
	handler := api.NewHandler(model, runner, sessions, qlog)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
	}))
	api.RegisterRoutes(r, handler, cfg.APIKey)

	logx.Info().Str("port", cfg.Port).Str("environment", env.String()).Msg("trade chatbot api listening")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logx.Fatal().Err(err).Msg("server stopped")
	}
}
