package function

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"weather-proxy-go/internal/client"
	"weather-proxy-go/internal/config"
	"weather-proxy-go/internal/service"
)

var testErrorStatuses = map[string]int{
	"1006": 404,
	"2006": 401,
	"2007": 403,
	"2008": 403,
	"9000": 400,
	"9001": 400,
}

func newTestHandler(t *testing.T, baseURL, apiKey string) *Handler {
	t.Helper()
	cfg := &config.Config{
		Weather: config.WeatherConfig{APIKey: apiKey},
		Server: config.ServerConfig{
			CORS: config.CORSConfig{AllowOrigin: "*"},
		},
		Upstream: config.UpstreamConfig{
			BaseURL:          baseURL,
			TimeoutSeconds:   10,
			IdleConnections:  10,
			ResponseMaxBytes: 1024 * 1024,
			ErrorStatuses:    testErrorStatuses,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wc := client.NewWeatherAPIClient(cfg, logger, nil)
	svc, err := service.NewForecastServiceForTest(wc, cfg, logger)
	if err != nil {
		t.Fatalf("NewForecastServiceForTest: %v", err)
	}
	return NewHandler(svc, cfg, logger)
}

func assertCORSHeaders(t *testing.T, headers map[string]string) {
	t.Helper()
	if headers["Access-Control-Allow-Origin"] != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", headers["Access-Control-Allow-Origin"], "*")
	}
	if headers["Access-Control-Allow-Headers"] != "Content-Type" {
		t.Errorf("Access-Control-Allow-Headers = %q, want %q", headers["Access-Control-Allow-Headers"], "Content-Type")
	}
	if headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q, want %q", headers["Content-Type"], "application/json")
	}
}

func TestHandle_Preflight(t *testing.T) {
	h := newTestHandler(t, "https://api.weatherapi.com/v1", "test-key")

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodOptions,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if resp.Body != "" {
		t.Errorf("body = %q, want empty", resp.Body)
	}
	assertCORSHeaders(t, resp.Headers)
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, "https://api.weatherapi.com/v1", "test-key")

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
				HTTPMethod: method,
			})
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
			}
			assertCORSHeaders(t, resp.Headers)
		})
	}
}

func TestHandle_NilQueryParameters(t *testing.T) {
	h := newTestHandler(t, "https://api.weatherapi.com/v1", "test-key")

	// API Gateway sends nil QueryStringParameters when the URL has no query
	// string; that must behave as an empty map, not panic.
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: nil,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] == "" || body["example"] == "" {
		t.Errorf("expected error and example fields, got %v", body)
	}
	assertCORSHeaders(t, resp.Headers)
}

func TestHandle_Success(t *testing.T) {
	payload := `{"location":{"name":"London"},"forecast":{"forecastday":[]}}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream.URL, "test-key")

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: map[string]string{"city": "London"},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if resp.Body != payload {
		t.Errorf("body = %q, want upstream payload unchanged", resp.Body)
	}
	assertCORSHeaders(t, resp.Headers)
}

func TestHandle_MissingAPIKey(t *testing.T) {
	h := newTestHandler(t, "https://api.weatherapi.com/v1", "")

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: map[string]string{"city": "London"},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	assertCORSHeaders(t, resp.Headers)
}
