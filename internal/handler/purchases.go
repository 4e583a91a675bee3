package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
	"github.com/ofcdigitalhawks/audirifa/internal/utils"
)

// TicketLister lists every ticket for the purchase lookup.
type TicketLister interface {
	ListAll(ctx context.Context) ([]model.Ticket, error)
}

// PurchasesHandler serves the customer self-service lookup: given a phone
// number, list the tickets bought with it.
type PurchasesHandler struct {
	Tickets TicketLister
}

func NewPurchasesHandler(tickets TicketLister) *PurchasesHandler {
	if tickets == nil {
		panic("nil ticket lister passed to NewPurchasesHandler")
	}
	return &PurchasesHandler{Tickets: tickets}
}

// List handles GET /api/minhas-compras?phone=<number>.  The phone is
// normalized to digits and must have at least the 10 digits of a Brazilian
// number with area code; matching is substring in either direction so the
// country code is optional on both sides.
func (h *PurchasesHandler) List(c echo.Context) error {
	phone := utils.DigitsOnly(c.QueryParam("phone"))
	if len(phone) < 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   true,
			"message": "Telefone inválido. Informe o número com DDD.",
		})
	}

	tickets, err := h.Tickets.ListAll(c.Request().Context())
	if err != nil {
		log.Printf("purchases: list tickets failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   true,
			"message": "Erro ao buscar compras",
		})
	}

	type purchaseTicket struct {
		TicketNumber    int64  `json:"ticket_number"`
		FormattedNumber string `json:"formatted_number"`
		IsPaid          bool   `json:"is_paid"`
		PaymentID       string `json:"payment_id"`
		CreatedAt       string `json:"created_at"`
	}

	out := make([]purchaseTicket, 0)
	var paidCount, pendingCount int
	for _, t := range tickets {
		if !utils.PhoneMatches(t.CustomerPhone, phone) {
			continue
		}
		if t.IsPaid {
			paidCount++
		} else {
			pendingCount++
		}
		out = append(out, purchaseTicket{
			TicketNumber:    t.TicketNumber,
			FormattedNumber: utils.FormatTicketNumber(t.TicketNumber),
			IsPaid:          t.IsPaid,
			PaymentID:       t.PaymentID,
			CreatedAt:       t.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"phone":   phone,
		"total":   len(out),
		"paid":    paidCount,
		"pending": pendingCount,
		"tickets": out,
	})
}
