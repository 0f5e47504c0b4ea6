package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"habridge/internal/domain/models"
	icache "habridge/internal/service/cache"
	"habridge/internal/service/ratelimit"
	"habridge/internal/usecase"
	apphttp "habridge/pkg/http"
	applogger "habridge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsHandler serves signal ingestion and the history/stats read paths.
type SignalsHandler struct {
	pipeline   *usecase.SignalPipeline
	cache      icache.BytesCache
	rl         *ratelimit.Limiter
	historyTTL time.Duration
	statsTTL   time.Duration
	l          *applogger.Logger
}

func NewSignalsHandler(pipeline *usecase.SignalPipeline, cache icache.BytesCache, historyTTL, statsTTL time.Duration, l *applogger.Logger) *SignalsHandler {
	return &SignalsHandler{
		pipeline:   pipeline,
		cache:      cache,
		rl:         ratelimit.New(),
		historyTTL: historyTTL,
		statsTTL:   statsTTL,
		l:          l,
	}
}

// RegisterRoutes registers the signal endpoints.
func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/test", h.test)
	e.POST("/api/test", h.test)
	e.POST("/api/signal", h.ingest)
	e.GET("/api/signals/history", h.history)
	e.GET("/api/stats", h.stats)
}

func (h *SignalsHandler) test(c echo.Context) error {
	return apphttp.StatusOK(c, "bridge server operational")
}

// ingest accepts whatever the terminal sends. The body is decoded as a
// loose field map; a body that fails to decode at all still produces a
// default signal, so the terminal's delivery loop is never rejected over
// formatting.
func (h *SignalsHandler) ingest(c echo.Context) error {
	raw := map[string]any{}
	body, err := io.ReadAll(c.Request().Body)
	if err == nil && len(body) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if derr := dec.Decode(&raw); derr != nil {
			h.l.Warn("signal body decode", applogger.Error(derr))
			raw = map[string]any{}
		}
	}

	sig, err := h.pipeline.Ingest(c.Request().Context(), raw)
	if err != nil {
		h.l.Error("signal ingest", applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}

	h.l.Info("signal received",
		applogger.String("symbol", sig.Symbol),
		applogger.String("final", sig.Confluence.FinalSignal))
	return apphttp.SuccessResponse(c, map[string]any{"status": "success", "signal": sig})
}

func (h *SignalsHandler) history(c echo.Context) error {
	req := new(models.HistoryRequest)
	if appErr := apphttp.ReadAndValidateRequest(c, req); appErr != nil {
		return apphttp.AppErrorResponse(c, appErr)
	}
	if !h.rl.Allow(c.RealIP()+":history", 10, 5) {
		return apphttp.FailResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	key := "history:" + req.Symbol + ":" + strconv.Itoa(req.Limit)
	if b, ok := h.cached(key); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	signals, err := h.pipeline.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.l.Error("signal history", applogger.Error(err))
		return apphttp.AppErrorResponse(c, apphttp.InternalError("history query failed").WithError(err))
	}
	return h.respondCached(c, key, map[string]any{"signals": signals}, h.historyTTL)
}

func (h *SignalsHandler) stats(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":stats", 10, 5) {
		return apphttp.FailResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	if b, ok := h.cached("stats"); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	stats, err := h.pipeline.Stats(c.Request().Context())
	if err != nil {
		h.l.Error("signal stats", applogger.Error(err))
		return apphttp.AppErrorResponse(c, apphttp.InternalError("stats query failed").WithError(err))
	}
	return h.respondCached(c, "stats", stats, h.statsTTL)
}

func (h *SignalsHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.l.Warn("cache get", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (h *SignalsHandler) respondCached(c echo.Context, key string, payload any, ttl time.Duration) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return apphttp.AppErrorResponse(c, apphttp.InternalError("encode response").WithError(err))
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(key, b, ttl); err != nil {
			h.l.Warn("cache set", applogger.String("key", key), applogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, b)
}
