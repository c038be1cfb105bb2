package main

import (
	"log/slog"
	"os"
	"strings"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"weather-proxy-go/internal/client"
	"weather-proxy-go/internal/config"
	"weather-proxy-go/internal/function"
	"weather-proxy-go/internal/service"
)

var h *function.Handler

func init() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	logger := newLogger(cfg)

	// No metrics collector here: each invocation is its own process scope, so
	// an in-memory registry would never be scraped.
	wc := client.NewWeatherAPIClient(cfg, logger, nil)

	svc, err := service.NewForecastService(wc, cfg, logger)
	if err != nil {
		panic("initialize forecast service: " + err.Error())
	}

	h = function.NewHandler(svc, cfg, logger)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func main() {
	awslambda.Start(h.Handle)
}
