// Package client provides the upstream HTTP client for WeatherAPI.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"weather-proxy-go/internal/config"
	"weather-proxy-go/internal/metrics"
	"weather-proxy-go/internal/model"
)

// WeatherAPIClient sends forecast requests to the upstream WeatherAPI.
type WeatherAPIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	maxBytes   int64
}

// NewWeatherAPIClient creates a WeatherAPIClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewWeatherAPIClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *WeatherAPIClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &WeatherAPIClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:   logger.With("component", "weatherapi_client"),
		metrics:  m,
		maxBytes: cfg.Upstream.ResponseMaxBytes,
	}
}

// FetchForecast issues a single GET to the given upstream URL and returns the
// fully buffered response. The body is read to at most response_max_bytes.
// The provided context controls the lifetime of the upstream request: when it
// is canceled (e.g. client disconnects), the upstream request is also canceled.
//
// No retries and no backoff: a failure is reported once, synchronously.
func (c *WeatherAPIClient) FetchForecast(ctx context.Context, url string) (*model.UpstreamReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("upstream request", "path", req.URL.Path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.Observe(duration)
	}
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	return &model.UpstreamReply{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
