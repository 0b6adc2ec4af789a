package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/gate"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/cookie"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type phoneGater interface {
	Supply(ctx context.Context, view *session.View, phone string) (gate.State, error)
	Abandon(ctx context.Context, view *session.View) (gate.State, error)
}

type PhoneHandler struct {
	gates   phoneGater
	cookies cookie.Settings
	logger  *slog.Logger
}

func NewPhoneHandler(gates phoneGater, cookies cookie.Settings, logger *slog.Logger) *PhoneHandler {
	return &PhoneHandler{
		gates:   gates,
		cookies: cookies,
		logger:  logger.With("component", "phone_handler"),
	}
}

type phoneRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// POST /auth/phone
func (h *PhoneHandler) Supply(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}

	state, err := h.gates.Supply(c.Request.Context(), middleware.View(c), req.PhoneNumber)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"gate": state})
	case errors.Is(err, gate.ErrPhoneRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errPhoneRejected, "gate": state})
	case errors.Is(err, gate.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": errInvalidTransition, "gate": state})
	default:
		h.logger.ErrorContext(c.Request.Context(), "supply phone number", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}

// POST /auth/phone/skip
// Declining the interstitial ends the session; the client is sent back to
// the login page.
func (h *PhoneHandler) Skip(c *gin.Context) {
	state, err := h.gates.Abandon(c.Request.Context(), middleware.View(c))
	switch {
	case err == nil:
		h.cookies.Clear(c)
		c.JSON(http.StatusOK, gin.H{"gate": state, "redirect": loginPath})
	case errors.Is(err, gate.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": errInvalidTransition, "gate": state})
	default:
		h.logger.ErrorContext(c.Request.Context(), "abandon phone gate", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
