// Package service implements the core proxy forwarding logic.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"weather-proxy-go/internal/client"
	"weather-proxy-go/internal/config"
	"weather-proxy-go/internal/model"
)

// allowedUpstreamHosts restricts which hosts the proxy will forward to.
var allowedUpstreamHosts = map[string]bool{
	"api.weatherapi.com": true,
}

// apiKeyPattern matches key query parameter values in URLs embedded in error
// messages, so the secret never leaks into logs or response bodies.
var apiKeyPattern = regexp.MustCompile(`(?i)(key=)[^&\s"]+`)

// Fixed client-facing messages.
const (
	msgMissingCity   = `Missing required "city" query parameter.`
	msgCityExample   = "/api/weather?city=London"
	msgKeyNotSet     = "Server configuration error: API key not set."
	msgFetchFailed   = "Failed to fetch weather data. Please try again later."
	defaultErrorCode = "unknown"
	defaultErrorMsg  = "Unknown error from WeatherAPI."
)

// ForecastService resolves a city query into a ready-to-relay response.
type ForecastService struct {
	client       *client.WeatherAPIClient
	cfg          *config.Config
	logger       *slog.Logger
	baseURL      *url.URL
	statusByCode map[string]int
}

// NewForecastService creates a ForecastService.
func NewForecastService(c *client.WeatherAPIClient, cfg *config.Config, logger *slog.Logger) (*ForecastService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	if !allowedUpstreamHosts[u.Hostname()] {
		return nil, fmt.Errorf("upstream host %q is not in the allowlist", u.Hostname())
	}

	return newForecastService(c, cfg, logger, u), nil
}

// NewForecastServiceForTest creates a ForecastService without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewForecastServiceForTest(c *client.WeatherAPIClient, cfg *config.Config, logger *slog.Logger) (*ForecastService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	return newForecastService(c, cfg, logger, u), nil
}

func newForecastService(c *client.WeatherAPIClient, cfg *config.Config, logger *slog.Logger, base *url.URL) *ForecastService {
	statusByCode := make(map[string]int, len(cfg.Upstream.ErrorStatuses))
	for code, status := range cfg.Upstream.ErrorStatuses {
		statusByCode[code] = status
	}

	return &ForecastService{
		client:       c,
		cfg:          cfg,
		logger:       logger.With("component", "forecast_service"),
		baseURL:      base,
		statusByCode: statusByCode,
	}
}

// Forecast runs the proxy state machine for one request. It is total: every
// input, including upstream failure, produces a well-formed JSON response.
//
// The returned body is the upstream payload verbatim on success; every error
// branch produces a model.ErrorBody.
func (s *ForecastService) Forecast(ctx context.Context, city string) *model.ProxyResult {
	city = strings.TrimSpace(city)
	if city == "" {
		return model.NewResult(http.StatusBadRequest, model.ErrorBody{
			Error:   msgMissingCity,
			Example: msgCityExample,
		})
	}

	apiKey := s.cfg.Weather.APIKey
	if apiKey == "" {
		s.logger.Error("weatherapi.api_key is not configured")
		return model.NewResult(http.StatusInternalServerError, model.ErrorBody{
			Error: msgKeyNotSet,
		})
	}

	upstreamURL := s.buildUpstreamURL(city, apiKey)

	s.logger.Debug("forwarding request", "city", city)

	reply, err := s.client.FetchForecast(ctx, upstreamURL)
	if err != nil {
		detail := s.sanitize(err.Error())
		s.logger.Error("upstream fetch failed", "err", detail)
		return model.NewResult(http.StatusInternalServerError, model.ErrorBody{
			Error:  msgFetchFailed,
			Detail: detail,
		})
	}

	// A body that is not JSON is a parse failure regardless of status.
	if !json.Valid(reply.Body) {
		s.logger.Error("upstream returned invalid JSON", "status", reply.StatusCode)
		return model.NewResult(http.StatusInternalServerError, model.ErrorBody{
			Error:  msgFetchFailed,
			Detail: "invalid JSON in upstream response",
		})
	}

	if reply.OK() {
		// Pass-through: the upstream document is relayed byte-for-byte.
		return &model.ProxyResult{StatusCode: http.StatusOK, Body: reply.Body}
	}

	return s.mapUpstreamError(reply)
}

// mapUpstreamError translates a non-2xx upstream reply into the proxy's error
// response using the configured code table. Codes absent from the table are
// reported as 502 rather than guessed.
func (s *ForecastService) mapUpstreamError(reply *model.UpstreamReply) *model.ProxyResult {
	var code any = defaultErrorCode
	message := defaultErrorMsg

	var envelope model.UpstreamErrorEnvelope
	dec := json.NewDecoder(bytes.NewReader(reply.Body))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err == nil && envelope.Error != nil {
		if envelope.Error.Code != nil {
			code = envelope.Error.Code
		}
		if envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
	}

	status := http.StatusBadGateway
	if mapped, ok := s.statusByCode[fmt.Sprint(code)]; ok {
		status = mapped
	}

	s.logger.Warn("upstream error",
		"upstream_status", reply.StatusCode,
		"code", fmt.Sprint(code),
		"status", status,
	)

	return model.NewResult(status, model.ErrorBody{
		Error: message,
		Code:  code,
	})
}

// buildUpstreamURL constructs the forecast.json URL with the secret key, the
// percent-encoded city, and the fixed 7-day/AQI parameters. Spaces encode as
// %20, not +, and the parameter order is fixed.
func (s *ForecastService) buildUpstreamURL(city, apiKey string) string {
	u := *s.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/forecast.json"
	u.RawQuery = "key=" + queryEscape(apiKey) +
		"&q=" + queryEscape(city) +
		"&days=7&aqi=yes"
	return u.String()
}

// queryEscape percent-encodes a query value with %20 for spaces.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// sanitize redacts API key values from strings that may contain upstream URLs.
func (s *ForecastService) sanitize(msg string) string {
	return apiKeyPattern.ReplaceAllString(msg, "${1}[REDACTED]")
}
