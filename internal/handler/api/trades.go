package api

import (
	"errors"
	"fmt"
	"strconv"

	"habridge/internal/domain/models"
	"habridge/internal/usecase"
	apphttp "habridge/pkg/http"
	applogger "habridge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TradesHandler serves the operator command surface and the terminal's
// poll/confirm loop.
type TradesHandler struct {
	queue *usecase.TradeQueue
	l     *applogger.Logger
}

func NewTradesHandler(queue *usecase.TradeQueue, l *applogger.Logger) *TradesHandler {
	return &TradesHandler{queue: queue, l: l}
}

// RegisterRoutes registers the trade endpoints.
func (h *TradesHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/trade", h.submit)
	e.GET("/api/pending_trades", h.pending)
	e.GET("/api/pending_trades_list", h.pendingList)
	e.POST("/api/confirm_trade/:id", h.confirm)
	e.POST("/api/cancel_trade/:id", h.cancel)
	e.POST("/api/clear_pending", h.clearPending)
}

func (h *TradesHandler) submit(c echo.Context) error {
	req := new(models.TradeRequest)
	if appErr := apphttp.ReadAndValidateRequest(c, req); appErr != nil {
		return apphttp.AppErrorResponse(c, appErr)
	}

	cmd, err := h.queue.Enqueue(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSymbol) {
			return apphttp.BadRequestResponse(c, "invalid symbol")
		}
		h.l.Error("trade submit", applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}

	h.l.Info("trade queued",
		applogger.String("action", cmd.Action),
		applogger.String("symbol", cmd.Symbol),
		applogger.Int64("id", cmd.ID))
	return apphttp.SuccessResponse(c, map[string]any{"status": "success", "trade": cmd})
}

// pending is the terminal's poll path, oldest first.
func (h *TradesHandler) pending(c echo.Context) error {
	trades, err := h.queue.ListPending(c.Request().Context())
	if err != nil {
		h.l.Error("pending trades", applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}
	return apphttp.SuccessResponse(c, map[string]any{"trades": trades})
}

// pendingList is the dashboard view, newest first.
func (h *TradesHandler) pendingList(c echo.Context) error {
	trades, err := h.queue.ListPendingNewest(c.Request().Context())
	if err != nil {
		h.l.Error("pending trades list", applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}
	return apphttp.SuccessResponse(c, map[string]any{"trades": trades})
}

type confirmRequest struct {
	Status string `json:"status" form:"status"`
	Ticket int64  `json:"ticket" form:"ticket"`
}

func (h *TradesHandler) confirm(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apphttp.BadRequestResponse(c, "invalid trade id")
	}

	// Older terminal builds send form bodies or nothing at all, so a
	// bind failure falls back to defaults instead of rejecting.
	req := new(confirmRequest)
	if err := c.Bind(req); err != nil {
		h.l.Warn("confirm body decode", applogger.Error(err))
		*req = confirmRequest{}
	}

	if err := h.queue.Confirm(c.Request().Context(), id, req.Status, req.Ticket); err != nil {
		h.l.Error("trade confirm", applogger.Int64("id", id), applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}
	return apphttp.SuccessResponse(c, map[string]any{"status": "success"})
}

func (h *TradesHandler) cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apphttp.BadRequestResponse(c, "invalid trade id")
	}

	if err := h.queue.Cancel(c.Request().Context(), id); err != nil {
		if errors.Is(err, usecase.ErrNotPending) {
			return apphttp.NotFoundResponse(c, "trade not found or already resolved")
		}
		h.l.Error("trade cancel", applogger.Int64("id", id), applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}
	return apphttp.SuccessResponse(c, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("trade #%d cancelled", id),
	})
}

func (h *TradesHandler) clearPending(c echo.Context) error {
	n, err := h.queue.ClearPending(c.Request().Context())
	if err != nil {
		h.l.Error("clear pending", applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}
	h.l.Info("pending trades cleared", applogger.Int64("count", n))
	return apphttp.SuccessResponse(c, map[string]any{"status": "success", "cleared": n})
}
