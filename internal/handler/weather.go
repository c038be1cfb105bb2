package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"weather-proxy-go/internal/service"
)

// WeatherHandler serves the proxy endpoint backed by the forecast service.
type WeatherHandler struct {
	service *service.ForecastService
	logger  *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler.
func NewWeatherHandler(svc *service.ForecastService, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{
		service: svc,
		logger:  logger.With("component", "weather_handler"),
	}
}

// Handle serves GET /api/weather. The route accepts any method so the 405
// response body stays under our control instead of Echo's default.
func (h *WeatherHandler) Handle(c echo.Context) error {
	req := c.Request()

	switch req.Method {
	case http.MethodOptions:
		// Preflight; normally short-circuited by the CORS middleware.
		return c.NoContent(http.StatusNoContent)
	case http.MethodGet:
		// fall through to the proxy
	default:
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{
			"error": "Method not allowed. Use GET.",
		})
	}

	res := h.service.Forecast(req.Context(), c.QueryParam("city"))
	return c.Blob(res.StatusCode, echo.MIMEApplicationJSON, res.Body)
}
