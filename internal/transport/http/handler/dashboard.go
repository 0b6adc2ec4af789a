package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/backend"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type dashboardUsecaser interface {
	Cards(ctx context.Context, view *session.View) ([]domain.Card, error)
	Payments(ctx context.Context, view *session.View, f backend.PaymentFilter) ([]domain.Payment, error)
	PaymentStats(ctx context.Context, view *session.View) (*domain.PaymentStats, error)
	Bills(ctx context.Context, view *session.View) ([]domain.Bill, error)
	LinkedAccounts(ctx context.Context, view *session.View) ([]domain.LinkedAccountRecord, error)
	LinkedHolder(ctx context.Context, view *session.View) (*domain.LinkedAccount, error)
}

type DashboardHandler struct {
	dashboard dashboardUsecaser
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard dashboardUsecaser, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger.With("component", "dashboard_handler"),
	}
}

type paymentQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending processing sent failed canceled returned"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// GET /api/dashboard/cards
func (h *DashboardHandler) Cards(c *gin.Context) {
	cards, err := h.dashboard.Cards(c.Request.Context(), middleware.View(c))
	if err != nil {
		h.upstreamError(c, "list cards", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cards})
}

// GET /api/dashboard/payments?status=&limit=&offset=
func (h *DashboardHandler) Payments(c *gin.Context) {
	var q paymentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payments, err := h.dashboard.Payments(c.Request.Context(), middleware.View(c), backend.PaymentFilter{
		Status: q.Status,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		h.upstreamError(c, "list payments", err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(payments)))
	c.JSON(http.StatusOK, gin.H{"data": payments})
}

// GET /api/dashboard/payments/stats
func (h *DashboardHandler) PaymentStats(c *gin.Context) {
	stats, err := h.dashboard.PaymentStats(c.Request.Context(), middleware.View(c))
	if err != nil {
		h.upstreamError(c, "payment stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/dashboard/bills
func (h *DashboardHandler) Bills(c *gin.Context) {
	bills, err := h.dashboard.Bills(c.Request.Context(), middleware.View(c))
	if err != nil {
		h.upstreamError(c, "list bills", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bills})
}

// GET /api/dashboard/accounts
func (h *DashboardHandler) Accounts(c *gin.Context) {
	accounts, err := h.dashboard.LinkedAccounts(c.Request.Context(), middleware.View(c))
	if err != nil {
		h.upstreamError(c, "list linked accounts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

// GET /api/dashboard/holder
func (h *DashboardHandler) Holder(c *gin.Context) {
	holder, err := h.dashboard.LinkedHolder(c.Request.Context(), middleware.View(c))
	if err != nil {
		h.upstreamError(c, "get linked holder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": holder})
}

func (h *DashboardHandler) upstreamError(c *gin.Context, op string, err error) {
	h.logger.WarnContext(c.Request.Context(), op, "error", err)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUpstreamRejected})
	case errors.Is(err, domain.ErrMalformedPayload):
		c.JSON(http.StatusBadGateway, gin.H{"error": errUpstreamMalformed})
	case errors.Is(err, domain.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": errUpstreamUnavailable})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
