package handler

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
	"github.com/ofcdigitalhawks/audirifa/internal/service"
	"github.com/ofcdigitalhawks/audirifa/internal/utils"
)

// TicketReader is the read side of the ticket ledger the status poll needs.
type TicketReader interface {
	ListByPayment(ctx context.Context, paymentID string) ([]model.Ticket, error)
}

// StatusHandler serves the payment status poll.  The storefront calls it
// while the customer has the PIX code on screen; when the gateway reports
// the deposit settled, the poll feeds the same reconciler as the webhook,
// so a lost webhook never strands a paid customer.
type StatusHandler struct {
	Gateway    PixGateway
	Reconciler ConfirmationService
	Tickets    TicketReader
}

func NewStatusHandler(gw PixGateway, rec ConfirmationService, tickets TicketReader) *StatusHandler {
	if gw == nil || rec == nil || tickets == nil {
		panic("nil dependency passed to NewStatusHandler")
	}
	return &StatusHandler{Gateway: gw, Reconciler: rec, Tickets: tickets}
}

// Check handles GET /api/verificar-status?hash=<payment id>.
func (h *StatusHandler) Check(c echo.Context) error {
	hash := c.QueryParam("hash")
	if hash == "" {
		return c.JSON(http.StatusOK, echo.Map{"erro": true, "mensagem": "Hash não fornecido"})
	}

	ctx := c.Request().Context()
	dep, err := h.Gateway.GetDepositStatus(ctx, hash)
	if err != nil {
		log.Printf("status: deposit lookup for %s failed: %v", hash, err)
		return c.JSON(http.StatusOK, echo.Map{
			"erro":     true,
			"success":  false,
			"status":   "ERROR",
			"mensagem": "Erro ao consultar status do pagamento",
		})
	}

	// payment_status is derived from the normalized paid decision, not the
	// gateway's raw field: a deposit settled via end_to_end must read as
	// paid even while the gateway still reports "pending".
	paid := dep.IsPaid()
	status := model.StatusPending
	paymentStatus := "pending"
	if paid {
		status = model.StatusApproved
		paymentStatus = "paid"

		raw, _ := json.Marshal(dep)
		if _, err := h.Reconciler.Confirm(ctx, service.ConfirmationInput{
			PaymentID:   hash,
			IsPaid:      true,
			AmountCents: int64(math.Round(dep.Value * 100)),
			EndToEnd:    dep.EndToEnd,
			RawPayload:  string(raw),
			Source:      "poll",
		}); err != nil {
			log.Printf("status: confirm %s from poll failed: %v", hash, err)
		}
	}

	ticketNumbers := []int64{}
	formatted := []string{}
	if tickets, err := h.Tickets.ListByPayment(ctx, hash); err != nil {
		log.Printf("status: list tickets for %s failed: %v", hash, err)
	} else {
		for _, t := range tickets {
			ticketNumbers = append(ticketNumbers, t.TicketNumber)
			formatted = append(formatted, utils.FormatTicketNumber(t.TicketNumber))
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":           true,
		"status":            status,
		"payment_status":    paymentStatus,
		"approved":          paid,
		"paid":              paid,
		"end_to_end":        dep.EndToEnd,
		"ticket_numbers":    ticketNumbers,
		"formatted_tickets": formatted,
	})
}
