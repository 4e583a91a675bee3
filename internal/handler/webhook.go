package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ofcdigitalhawks/audirifa/internal/service"
)

// ConfirmationService is implemented by service.Reconciler.
type ConfirmationService interface {
	Confirm(ctx context.Context, in service.ConfirmationInput) (service.ConfirmationResult, error)
	RecordInfraction(ctx context.Context, in service.InfractionInput) error
}

// WebhookHandler receives gateway callbacks.  The gateway retries on
// non-2xx responses, so business failures are reported inside a 200 body;
// only a malformed request ever sees an error status.
type WebhookHandler struct {
	Reconciler ConfirmationService
}

func NewWebhookHandler(rec ConfirmationService) *WebhookHandler {
	if rec == nil {
		panic("nil reconciler passed to NewWebhookHandler")
	}
	return &WebhookHandler{Reconciler: rec}
}

// webhookPayload covers both shapes the gateway sends: payment
// confirmations and infraction (MED) notices.  external_id arrives as a
// JSON number on some gateway versions and as a string on others.
type webhookPayload struct {
	ExternalID        json.Number `json:"external_id"`
	Status            bool        `json:"status"`
	Amount            float64     `json:"amount"` // reais on the wire
	Name              string      `json:"name"`
	Document          string      `json:"document"`
	EndToEnd          string      `json:"end_to_end"`
	EndToEndID        string      `json:"endtoendid"`
	ClientReferenceID string      `json:"client_reference_id"`

	InfractionStatus string `json:"infraction_status"`
	BlockedAt        string `json:"blocked_at"`
}

// Receive handles POST /api/webhook.
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "corpo inválido"})
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("webhook: unmarshal failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "payload inválido"})
	}

	paymentID := payload.ExternalID.String()
	amountCents := int64(math.Round(payload.Amount * 100))

	// Infraction notices carry infraction_status and no payment status.
	if payload.InfractionStatus != "" {
		if paymentID == "" {
			return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "external_id não fornecido"})
		}
		err := h.Reconciler.RecordInfraction(c.Request().Context(), service.InfractionInput{
			PaymentID:        paymentID,
			InfractionStatus: payload.InfractionStatus,
			AmountCents:      amountCents,
			PayerName:        payload.Name,
			Document:         payload.Document,
			BlockedAt:        payload.BlockedAt,
		})
		if err != nil {
			log.Printf("webhook: record infraction for %s failed: %v", paymentID, err)
			return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "falha ao registrar infração"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success":           true,
			"message":           "Infração registrada",
			"paymentId":         paymentID,
			"infraction_status": payload.InfractionStatus,
		})
	}

	if paymentID == "" {
		log.Printf("webhook: missing external_id in payload")
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "external_id não fornecido"})
	}

	endToEnd := payload.EndToEnd
	if endToEnd == "" {
		endToEnd = payload.EndToEndID
	}

	res, err := h.Reconciler.Confirm(c.Request().Context(), service.ConfirmationInput{
		PaymentID:   paymentID,
		IsPaid:      payload.Status,
		AmountCents: amountCents,
		PayerName:   payload.Name,
		Document:    payload.Document,
		EndToEnd:    endToEnd,
		RawPayload:  string(body),
		Source:      "webhook",
	})
	if err != nil {
		log.Printf("webhook: confirm %s failed: %v", paymentID, err)
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "falha ao processar webhook"})
	}

	message := "Pagamento atualizado"
	switch {
	case res.AlreadyProcessed:
		message = "Pagamento já processado"
	case payload.Status:
		message = "Pagamento aprovado"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":             true,
		"message":             message,
		"paymentId":           paymentID,
		"status":              res.Status,
		"end_to_end":          strings.TrimSpace(endToEnd),
		"client_reference_id": payload.ClientReferenceID,
		"webhookNumber":       res.EventCount,
	})
}
