package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
	"github.com/ofcdigitalhawks/audirifa/internal/repository"
	"github.com/ofcdigitalhawks/audirifa/internal/utils"
)

// TicketsHandler serves the ticket listing used by the storefront's
// "sold numbers" board.
type TicketsHandler struct {
	Tickets *repository.TicketRepo
}

func NewTicketsHandler(tickets *repository.TicketRepo) *TicketsHandler {
	if tickets == nil {
		panic("nil ticket repo passed to NewTicketsHandler")
	}
	return &TicketsHandler{Tickets: tickets}
}

// List handles GET /api/bilhetes.  filter=paid|unpaid|all narrows by
// payment state; payment_id narrows to one purchase.
func (h *TicketsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		tickets []model.Ticket
		err     error
	)
	if paymentID := c.QueryParam("payment_id"); paymentID != "" {
		tickets, err = h.Tickets.ListByPayment(ctx, paymentID)
	} else {
		tickets, err = h.Tickets.ListAll(ctx)
	}
	if err != nil {
		log.Printf("tickets: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao listar bilhetes"})
	}

	filter := c.QueryParam("filter")
	out := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		if filter == "paid" && !t.IsPaid {
			continue
		}
		if filter == "unpaid" && t.IsPaid {
			continue
		}
		out = append(out, echo.Map{
			"ticket_number":    t.TicketNumber,
			"formatted_number": utils.FormatTicketNumber(t.TicketNumber),
			"is_paid":          t.IsPaid,
			"payment_id":       t.PaymentID,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"total":   len(out),
		"tickets": out,
	})
}
