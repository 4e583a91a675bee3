package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ofcdigitalhawks/audirifa/internal/service"
	"github.com/ofcdigitalhawks/audirifa/internal/utils"
)

// DrawHandler serves the raffle draw endpoint for operators.  Without
// parameters it reports eligibility stats; with action=draw it picks a
// winner uniformly among paid tickets.  The draw is not persisted: running
// it twice can pick different winners, and the operator records the result
// out of band.
type DrawHandler struct {
	Draw *service.Draw
}

func NewDrawHandler(d *service.Draw) *DrawHandler {
	if d == nil {
		panic("nil draw service passed to NewDrawHandler")
	}
	return &DrawHandler{Draw: d}
}

// Run handles GET /api/sorteio and GET /api/sorteio?action=draw.
func (h *DrawHandler) Run(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("action") != "draw" {
		counts, err := h.Draw.Stats(ctx)
		if err != nil {
			log.Printf("draw: stats failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao consultar bilhetes"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success":          true,
			"eligible_tickets": counts.Paid,
			"total_tickets":    counts.Total,
			"unpaid_tickets":   counts.Unpaid,
		})
	}

	winner, err := h.Draw.Winner(ctx)
	if err != nil {
		log.Printf("draw: pick winner failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": true, "message": "Erro ao realizar sorteio"})
	}
	if winner == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"success": false,
			"message": "Nenhum bilhete pago para sortear",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"winner": echo.Map{
			"ticket_number":    winner.TicketNumber,
			"formatted_number": utils.FormatTicketNumber(winner.TicketNumber),
			"customer_name":    winner.CustomerName,
			"customer_phone":   winner.CustomerPhone,
			"payment_id":       winner.PaymentID,
		},
	})
}
