package api

import (
	"errors"

	"habridge/internal/domain/models"
	"habridge/internal/usecase"
	apphttp "habridge/pkg/http"
	applogger "habridge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PositionsHandler serves the position mirror and account relay.
type PositionsHandler struct {
	reconciler *usecase.PositionReconciler
	queue      *usecase.TradeQueue
	l          *applogger.Logger
}

func NewPositionsHandler(reconciler *usecase.PositionReconciler, queue *usecase.TradeQueue, l *applogger.Logger) *PositionsHandler {
	return &PositionsHandler{reconciler: reconciler, queue: queue, l: l}
}

// RegisterRoutes registers the position and account endpoints.
func (h *PositionsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/positions", h.list)
	e.POST("/api/positions/update", h.update)
	e.POST("/api/account", h.account)
	e.POST("/api/close_position", h.closeOne)
	e.POST("/api/close_all", h.closeAll)
	e.POST("/api/modify_position", h.modify)
}

func (h *PositionsHandler) list(c echo.Context) error {
	positions, err := h.reconciler.ListOpen(c.Request().Context())
	if err != nil {
		h.l.Error("positions list", applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}
	return apphttp.SuccessResponse(c, map[string]any{"positions": positions})
}

type positionsUpdateRequest struct {
	Positions []*models.Position `json:"positions"`
}

func (h *PositionsHandler) update(c echo.Context) error {
	req := new(positionsUpdateRequest)
	if err := c.Bind(req); err != nil {
		return apphttp.BadRequestResponse(c, "no data")
	}
	if req.Positions == nil {
		return apphttp.BadRequestResponse(c, "no data")
	}

	if err := h.reconciler.Reconcile(c.Request().Context(), req.Positions); err != nil {
		h.l.Error("positions update", applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}

	h.l.Debug("positions reconciled", applogger.Int("count", len(req.Positions)))
	return apphttp.SuccessResponse(c, map[string]any{"status": "success", "count": len(req.Positions)})
}

// accountUpdateRequest uses the terminal's snake_case field names; the
// broadcast payload re-keys free_margin as freeMargin for the dashboard.
type accountUpdateRequest struct {
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	FreeMargin float64 `json:"free_margin"`
}

func (h *PositionsHandler) account(c echo.Context) error {
	req := new(accountUpdateRequest)
	if err := c.Bind(req); err != nil {
		return apphttp.BadRequestResponse(c, "no data")
	}
	h.reconciler.PublishAccount(&models.AccountSnapshot{
		Balance:    req.Balance,
		Equity:     req.Equity,
		Margin:     req.Margin,
		FreeMargin: req.FreeMargin,
	})
	return apphttp.SuccessResponse(c, map[string]any{"status": "success"})
}

func (h *PositionsHandler) closeOne(c echo.Context) error {
	req := new(models.ClosePositionRequest)
	if appErr := apphttp.ReadAndValidateRequest(c, req); appErr != nil {
		return apphttp.AppErrorResponse(c, appErr)
	}

	cmd, err := h.queue.EnqueueClose(c.Request().Context(), req.Ticket)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidTicket) {
			return apphttp.BadRequestResponse(c, "ticket required")
		}
		h.l.Error("close position", applogger.Int64("ticket", req.Ticket), applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}

	h.l.Info("close requested", applogger.Int64("ticket", req.Ticket), applogger.Int64("id", cmd.ID))
	return apphttp.SuccessResponse(c, map[string]any{
		"status":   "success",
		"ticket":   req.Ticket,
		"trade_id": cmd.ID,
	})
}

func (h *PositionsHandler) closeAll(c echo.Context) error {
	if _, err := h.queue.EnqueueCloseAll(c.Request().Context()); err != nil {
		h.l.Error("close all", applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}
	h.l.Info("close all requested")
	return apphttp.SuccessResponse(c, map[string]any{"status": "success", "closed": "pending"})
}

func (h *PositionsHandler) modify(c echo.Context) error {
	req := new(models.ModifyPositionRequest)
	if appErr := apphttp.ReadAndValidateRequest(c, req); appErr != nil {
		return apphttp.AppErrorResponse(c, appErr)
	}

	if _, err := h.queue.EnqueueModify(c.Request().Context(), req.Ticket, req.SL, req.TP); err != nil {
		if errors.Is(err, usecase.ErrInvalidTicket) {
			return apphttp.BadRequestResponse(c, "ticket required")
		}
		h.l.Error("modify position", applogger.Int64("ticket", req.Ticket), applogger.Error(err))
		return apphttp.AppErrorResponse(c, err)
	}
	return apphttp.SuccessResponse(c, map[string]any{"status": "success"})
}
