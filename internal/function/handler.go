// Package function adapts the forecast service to an API Gateway invocation,
// for deployments that run the proxy as a hosted function instead of a server.
package function

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"weather-proxy-go/internal/config"
	"weather-proxy-go/internal/service"
)

// Handler handles a single API Gateway proxy invocation.
type Handler struct {
	service     *service.ForecastService
	allowOrigin string
	logger      *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *service.ForecastService, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		service:     svc,
		allowOrigin: cfg.Server.CORS.AllowOrigin,
		logger:      logger.With("component", "function_handler"),
	}
}

// Handle runs the proxy state machine for one invocation. Every branch
// returns a response rather than an error so the platform never substitutes
// its own error document.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		return h.respond(http.StatusNoContent, nil), nil
	}

	if req.HTTPMethod != http.MethodGet {
		return h.respond(http.StatusMethodNotAllowed, []byte(`{"error":"Method not allowed. Use GET."}`)), nil
	}

	// A nil QueryStringParameters map reads as empty, so a missing map and a
	// missing parameter take the same 400 path.
	city := req.QueryStringParameters["city"]

	res := h.service.Forecast(ctx, city)
	return h.respond(res.StatusCode, res.Body), nil
}

// respond builds a response carrying the headers every reply includes.
func (h *Handler) respond(status int, body []byte) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  h.allowOrigin,
			"Access-Control-Allow-Headers": "Content-Type",
			"Content-Type":                 "application/json",
		},
		Body: string(body),
	}
}
