package handler

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ofcdigitalhawks/audirifa/internal/config"
	"github.com/ofcdigitalhawks/audirifa/internal/gateway"
	"github.com/ofcdigitalhawks/audirifa/internal/model"
	"github.com/ofcdigitalhawks/audirifa/internal/repository"
	"github.com/ofcdigitalhawks/audirifa/internal/tracking"
	"github.com/ofcdigitalhawks/audirifa/internal/utils"
)

// PixGateway is the slice of the payment gateway the handlers need.  The
// concrete client lives in internal/gateway.
type PixGateway interface {
	CreatePayment(ctx context.Context, amountCents int64, customer gateway.Customer, description, callbackURL, referenceID string, utm gateway.UTMParams) (*gateway.PaymentResponse, error)
	GetDepositStatus(ctx context.Context, depositID string) (*gateway.DepositStatus, error)
}

// CheckoutHandler serves the PIX generation endpoints.  Checkout is the
// only place tickets are allocated: the gateway charge is created first,
// then the payment row, the tickets and the tracking event follow as
// best-effort bookkeeping. Once the charge exists the customer must
// receive their PIX code even if a bookkeeping step fails.
type CheckoutHandler struct {
	Cfg      config.Config
	Gateway  PixGateway
	Payments *repository.PaymentRepo
	Tickets  *repository.TicketRepo
	Tracker  *tracking.Client
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(cfg config.Config, gw PixGateway, payments *repository.PaymentRepo, tickets *repository.TicketRepo, tracker *tracking.Client) *CheckoutHandler {
	if gw == nil || payments == nil || tickets == nil {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Cfg: cfg, Gateway: gw, Payments: payments, Tickets: tickets, Tracker: tracker}
}

type checkoutRequest struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
	Email    string `json:"email"`
	Amount   int64  `json:"amount"`   // centavos
	Quantity int    `json:"quantity"` // number of tickets; 0 = derive from amount

	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
}

// ticketQuantityFor derives the ticket quantity from the paid amount when
// the storefront did not send one: the base bundle is 10 tickets for
// R$ 19,99 and every additional R$ 1,99 buys one more.
func ticketQuantityFor(amountCents int64) int {
	if amountCents <= 1999 {
		return 10
	}
	return 10 + int((amountCents-1999)/199)
}

// newReferenceID builds the client reference id sent to the gateway.
func newReferenceID(prefix string) string {
	return fmt.Sprintf("%s_%d_%06d", prefix, time.Now().UnixMilli(), rand.IntN(1000000))
}

// GeneratePix handles POST /api/gerar-pix.  It validates the request,
// creates the gateway charge and then records the payment, allocates the
// raffle tickets and fires the waiting_payment tracking event.
func (h *CheckoutHandler) GeneratePix(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"erro": true, "mensagem": "Requisição inválida"})
	}

	if req.Amount < 100 {
		return c.JSON(http.StatusOK, echo.Map{"erro": true, "mensagem": "O valor mínimo permitido é R$ 1,00"})
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = ticketQuantityFor(req.Amount)
	}
	if quantity < 1 {
		return c.JSON(http.StatusOK, echo.Map{"erro": true, "mensagem": "Quantidade mínima é 1 número"})
	}

	customer := gateway.Customer{
		Name:  strings.TrimSpace(req.Nome),
		Email: strings.TrimSpace(req.Email),
		Phone: utils.DigitsOnly(req.Telefone),
	}
	if customer.Name == "" {
		return c.JSON(http.StatusOK, echo.Map{"erro": true, "mensagem": "Nome é obrigatório"})
	}

	referenceID := newReferenceID("audirifa")
	callbackURL := strings.TrimRight(h.Cfg.CallbackBaseURL, "/") + "/api/webhook"
	utm := gateway.UTMParams{
		Source:   req.UTMSource,
		Medium:   req.UTMMedium,
		Campaign: req.UTMCampaign,
		Term:     req.UTMTerm,
		Content:  req.UTMContent,
	}

	ctx := c.Request().Context()
	payment, err := h.Gateway.CreatePayment(ctx, req.Amount, customer, h.Cfg.ProductTitle, callbackURL, referenceID, utm)
	if err != nil {
		log.Printf("checkout: gateway create payment failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"error": true, "message": "Erro ao gerar o PIX"})
	}
	paymentID := fmt.Sprintf("%d", payment.ExternalID)

	// Everything past this point is bookkeeping for a charge that already
	// exists at the gateway: log and continue on failure.
	if _, err := h.Payments.Insert(ctx, &model.Payment{
		PaymentID:     paymentID,
		Status:        model.StatusPending,
		Amount:        req.Amount,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		PixCode:       payment.CopyPast,
		UTMSource:     req.UTMSource,
		Action:        model.ActionGenerated,
	}); err != nil {
		log.Printf("checkout: save payment %s failed: %v", paymentID, err)
	}

	ticketNumbers, err := h.Tickets.Allocate(ctx, paymentID, quantity, customer.Name, customer.Phone, customer.Email, req.Amount)
	if err != nil {
		log.Printf("checkout: allocate tickets for %s failed: %v", paymentID, err)
		ticketNumbers = []int64{}
	}

	if h.Tracker != nil {
		h.Tracker.SendWaitingPayment(ctx, paymentID, req.Amount, req.UTMSource)
	}

	formatted := make([]string, 0, len(ticketNumbers))
	for _, n := range ticketNumbers {
		formatted = append(formatted, utils.FormatTicketNumber(n))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error":             false,
		"pix_code":          payment.CopyPast,
		"pix_qr_code":       payment.CopyPast,
		"qr_code":           payment.CopyPast,
		"qr_code_base64":    payment.Payment,
		"transaction_id":    paymentID,
		"hash":              paymentID,
		"amount":            req.Amount,
		"quantity":          quantity,
		"ticket_numbers":    ticketNumbers,
		"formatted_tickets": formatted,
		"customer": echo.Map{
			"name":  customer.Name,
			"email": customer.Email,
			"phone": customer.Phone,
		},
	})
}

type upsellRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Amount    int64  `json:"amount"` // centavos
	PrizeName string `json:"prize_name"`
}

// GenerateUpsellPix handles POST /api/gerar-pix-roleta, the secondary
// prize-wheel flow.  It creates a charge but never allocates raffle
// tickets and never fires conversion tracking; its payments carry the
// GENERATED_ROLETA action so the reconciler can tell them apart.
func (h *CheckoutHandler) GenerateUpsellPix(c echo.Context) error {
	var req upsellRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": true, "message": "Requisição inválida"})
	}
	if req.Name == "" || req.Phone == "" || req.Amount == 0 || req.PrizeName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   true,
			"message": "Dados incompletos. Nome, telefone, valor e prêmio são obrigatórios.",
		})
	}
	if req.Amount < 1000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": true, "message": "O valor mínimo é R$ 10,00"})
	}

	customer := gateway.Customer{
		Name:  strings.TrimSpace(req.Name),
		Phone: utils.DigitsOnly(req.Phone),
	}
	referenceID := newReferenceID("roleta")
	callbackURL := strings.TrimRight(h.Cfg.CallbackBaseURL, "/") + "/api/webhook"

	ctx := c.Request().Context()
	payment, err := h.Gateway.CreatePayment(ctx, req.Amount, customer, "Roleta: "+req.PrizeName, callbackURL, referenceID, gateway.UTMParams{})
	if err != nil {
		log.Printf("checkout: gateway create upsell payment failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"error": true, "message": "Erro ao gerar PIX"})
	}
	paymentID := fmt.Sprintf("%d", payment.ExternalID)

	if _, err := h.Payments.Insert(ctx, &model.Payment{
		PaymentID:     paymentID,
		Status:        model.StatusPending,
		Amount:        req.Amount,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		PixCode:       payment.CopyPast,
		Action:        model.ActionRoleta,
	}); err != nil {
		log.Printf("checkout: save upsell payment %s failed: %v", paymentID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error":          false,
		"pix_code":       payment.CopyPast,
		"pix_qr_code":    payment.CopyPast,
		"qr_code":        payment.CopyPast,
		"qr_code_base64": payment.Payment,
		"transaction_id": paymentID,
		"hash":           paymentID,
		"amount":         req.Amount,
		"prize_name":     req.PrizeName,
		"customer": echo.Map{
			"name":  customer.Name,
			"phone": customer.Phone,
		},
	})
}
