package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/ofcdigitalhawks/audirifa/internal/config"
	"github.com/ofcdigitalhawks/audirifa/internal/model"
	"github.com/ofcdigitalhawks/audirifa/internal/repository"
	"github.com/ofcdigitalhawks/audirifa/internal/utils"
)

// AdminHandler serves the operator panel: login, the payment and ticket
// ledgers, the webhook audit log and ledger maintenance.
type AdminHandler struct {
	Cfg      config.Config
	Payments *repository.PaymentRepo
	Tickets  *repository.TicketRepo
	Logs     *repository.WebhookLogRepo
}

func NewAdminHandler(cfg config.Config, payments *repository.PaymentRepo, tickets *repository.TicketRepo, logs *repository.WebhookLogRepo) *AdminHandler {
	if payments == nil || tickets == nil || logs == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Payments: payments, Tickets: tickets, Logs: logs}
}

type adminAuthRequest struct {
	Password string `json:"password"`
}

// Auth handles POST /api/admin/auth.  The bcrypt hash is preferred when
// configured; the plaintext comparison exists for local development only.
func (h *AdminHandler) Auth(c echo.Context) error {
	var req adminAuthRequest
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": true, "message": "Senha não fornecida"})
	}

	ok := false
	if h.Cfg.AdminPasswordHash != "" {
		ok = bcrypt.CompareHashAndPassword([]byte(h.Cfg.AdminPasswordHash), []byte(req.Password)) == nil
	} else if h.Cfg.AdminPassword != "" {
		ok = subtle.ConstantTimeCompare([]byte(h.Cfg.AdminPassword), []byte(req.Password)) == 1
	}
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": true, "message": "Senha incorreta"})
	}

	tok, err := utils.NewAdminToken(h.Cfg.JWTSecret, h.Cfg.AdminTokenTTLMin)
	if err != nil {
		log.Printf("admin: sign token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao gerar token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"token":      tok.Token,
		"expires_at": tok.Exp,
	})
}

// ListPayments handles GET /api/admin/payments, newest first.
func (h *AdminHandler) ListPayments(c echo.Context) error {
	payments, err := h.Payments.ListAll(c.Request().Context())
	if err != nil {
		log.Printf("admin: list payments failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao listar pagamentos"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"total":    len(payments),
		"payments": payments,
	})
}

// ListTickets handles GET /api/admin/tickets.
func (h *AdminHandler) ListTickets(c echo.Context) error {
	ctx := c.Request().Context()
	tickets, err := h.Tickets.ListAll(ctx)
	if err != nil {
		log.Printf("admin: list tickets failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao listar bilhetes"})
	}
	counts, err := h.Tickets.Counts(ctx)
	if err != nil {
		log.Printf("admin: count tickets failed: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"counts":  counts,
		"tickets": tickets,
	})
}

// ListWebhookLogs handles GET /api/admin/webhook-logs.  With payment_id it
// returns the full trail for one payment; otherwise the newest events
// across all payments, capped by limit.
func (h *AdminHandler) ListWebhookLogs(c echo.Context) error {
	ctx := c.Request().Context()

	if paymentID := c.QueryParam("payment_id"); paymentID != "" {
		logs, err := h.Logs.ListFor(ctx, paymentID)
		if err != nil {
			log.Printf("admin: list webhook logs for %s failed: %v", paymentID, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao listar webhooks"})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "total": len(logs), "logs": withParsedPayloads(logs)})
	}

	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	logs, err := h.Logs.ListRecent(ctx, limit)
	if err != nil {
		log.Printf("admin: list recent webhook logs failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao listar webhooks"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "total": len(logs), "logs": withParsedPayloads(logs)})
}

// webhookLogView is a WebhookLog with the raw payload re-exposed as a JSON
// object when it parses, so the panel renders it readably.
type webhookLogView struct {
	model.WebhookLog
	Payload json.RawMessage `json:"payload,omitempty"`
}

func withParsedPayloads(logs []model.WebhookLog) []webhookLogView {
	out := make([]webhookLogView, 0, len(logs))
	for _, l := range logs {
		v := webhookLogView{WebhookLog: l}
		if json.Valid([]byte(l.RawPayload)) {
			v.Payload = json.RawMessage(l.RawPayload)
		}
		out = append(out, v)
	}
	return out
}

// CleanDuplicates handles POST /api/admin/clean-duplicates.  It collapses
// repeated ledger rows per payment id, keeping the most informative one.
func (h *AdminHandler) CleanDuplicates(c echo.Context) error {
	removed, duplicateIDs, err := h.Payments.DeleteDuplicates(c.Request().Context())
	if err != nil {
		log.Printf("admin: clean duplicates failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao limpar duplicados"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"removed":       removed,
		"duplicate_ids": duplicateIDs,
		"message":       "Duplicados removidos",
	})
}
