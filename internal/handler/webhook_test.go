package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofcdigitalhawks/audirifa/internal/handler"
	"github.com/ofcdigitalhawks/audirifa/internal/model"
	"github.com/ofcdigitalhawks/audirifa/internal/service"
)

type fakeReconciler struct {
	confirmed   []service.ConfirmationInput
	infractions []service.InfractionInput
	result      service.ConfirmationResult
}

func (f *fakeReconciler) Confirm(_ context.Context, in service.ConfirmationInput) (service.ConfirmationResult, error) {
	f.confirmed = append(f.confirmed, in)
	res := f.result
	res.PaymentID = in.PaymentID
	return res, nil
}

func (f *fakeReconciler) RecordInfraction(_ context.Context, in service.InfractionInput) error {
	f.infractions = append(f.infractions, in)
	return nil
}

func postWebhook(t *testing.T, h *handler.WebhookHandler, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Receive(e.NewContext(req, rec)))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestWebhookApprovedPayment(t *testing.T) {
	fake := &fakeReconciler{result: service.ConfirmationResult{Status: model.StatusApproved, EventCount: 1}}
	h := handler.NewWebhookHandler(fake)

	rec, out := postWebhook(t, h, `{
		"external_id": 987654,
		"status": true,
		"amount": 19.99,
		"name": "Maria",
		"document": "12345678900",
		"endtoendid": "E0001",
		"client_reference_id": "ref-1"
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "987654", out["paymentId"])
	assert.Equal(t, model.StatusApproved, out["status"])

	require.Len(t, fake.confirmed, 1)
	in := fake.confirmed[0]
	assert.Equal(t, "987654", in.PaymentID)
	assert.True(t, in.IsPaid)
	assert.Equal(t, int64(1999), in.AmountCents) // reais converted to centavos
	assert.Equal(t, "E0001", in.EndToEnd)        // endtoendid fallback
	assert.Equal(t, "webhook", in.Source)
	assert.Contains(t, in.RawPayload, `"external_id"`)
}

func TestWebhookStringExternalID(t *testing.T) {
	fake := &fakeReconciler{result: service.ConfirmationResult{Status: model.StatusFailed}}
	h := handler.NewWebhookHandler(fake)

	rec, out := postWebhook(t, h, `{"external_id": "555", "status": false, "amount": 5}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	require.Len(t, fake.confirmed, 1)
	assert.Equal(t, "555", fake.confirmed[0].PaymentID)
	assert.False(t, fake.confirmed[0].IsPaid)
}

func TestWebhookMissingExternalID(t *testing.T) {
	fake := &fakeReconciler{}
	h := handler.NewWebhookHandler(fake)

	// Business failures answer 200 so the gateway does not retry forever.
	rec, out := postWebhook(t, h, `{"status": true, "amount": 10}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Empty(t, fake.confirmed)
}

func TestWebhookInfractionNotice(t *testing.T) {
	fake := &fakeReconciler{}
	h := handler.NewWebhookHandler(fake)

	rec, out := postWebhook(t, h, `{
		"external_id": 987654,
		"amount": 19.99,
		"name": "Maria",
		"infraction_status": "pending_defense",
		"blocked_at": "2026-08-30T12:00:00Z"
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Empty(t, fake.confirmed)
	require.Len(t, fake.infractions, 1)
	in := fake.infractions[0]
	assert.Equal(t, "987654", in.PaymentID)
	assert.Equal(t, "pending_defense", in.InfractionStatus)
	assert.Equal(t, int64(1999), in.AmountCents)
	assert.Equal(t, "2026-08-30T12:00:00Z", in.BlockedAt)
}

func TestWebhookDuplicateMessage(t *testing.T) {
	fake := &fakeReconciler{result: service.ConfirmationResult{
		Status: model.StatusApproved, AlreadyProcessed: true, EventCount: 2,
	}}
	h := handler.NewWebhookHandler(fake)

	_, out := postWebhook(t, h, `{"external_id": 1, "status": true, "amount": 19.99}`)

	assert.Equal(t, "Pagamento já processado", out["message"])
	assert.Equal(t, float64(2), out["webhookNumber"])
}

func TestWebhookMalformedBody(t *testing.T) {
	fake := &fakeReconciler{}
	h := handler.NewWebhookHandler(fake)

	rec, out := postWebhook(t, h, `{not json`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Empty(t, fake.confirmed)
}
