package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofcdigitalhawks/audirifa/internal/gateway"
	"github.com/ofcdigitalhawks/audirifa/internal/handler"
	"github.com/ofcdigitalhawks/audirifa/internal/model"
	"github.com/ofcdigitalhawks/audirifa/internal/service"
)

type fakeGateway struct {
	deposit *gateway.DepositStatus
	err     error
}

func (f *fakeGateway) CreatePayment(context.Context, int64, gateway.Customer, string, string, string, gateway.UTMParams) (*gateway.PaymentResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeGateway) GetDepositStatus(context.Context, string) (*gateway.DepositStatus, error) {
	return f.deposit, f.err
}

type fakeTicketReader struct {
	tickets []model.Ticket
}

func (f *fakeTicketReader) ListByPayment(context.Context, string) ([]model.Ticket, error) {
	return f.tickets, nil
}

func getStatus(t *testing.T, h *handler.StatusHandler, query string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/verificar-status"+query, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Check(e.NewContext(req, rec)))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestStatusRequiresHash(t *testing.T) {
	h := handler.NewStatusHandler(&fakeGateway{}, &fakeReconciler{}, &fakeTicketReader{})
	_, out := getStatus(t, h, "")
	assert.Equal(t, true, out["erro"])
}

func TestStatusPendingDeposit(t *testing.T) {
	rec := &fakeReconciler{}
	h := handler.NewStatusHandler(&fakeGateway{deposit: &gateway.DepositStatus{Status: "pending"}}, rec, &fakeTicketReader{})

	_, out := getStatus(t, h, "?hash=777")

	assert.Equal(t, true, out["success"])
	assert.Equal(t, model.StatusPending, out["status"])
	assert.Equal(t, "pending", out["payment_status"])
	assert.Equal(t, false, out["approved"])
	// A pending poll never feeds the reconciler.
	assert.Empty(t, rec.confirmed)
}

func TestStatusPaidDepositConfirms(t *testing.T) {
	fr := &fakeReconciler{result: service.ConfirmationResult{Status: model.StatusApproved}}
	h := handler.NewStatusHandler(
		&fakeGateway{deposit: &gateway.DepositStatus{Status: "paid", Value: 19.99, EndToEnd: "E0001"}},
		fr,
		&fakeTicketReader{tickets: []model.Ticket{{TicketNumber: 5}, {TicketNumber: 6}}},
	)

	_, out := getStatus(t, h, "?hash=777")

	assert.Equal(t, model.StatusApproved, out["status"])
	assert.Equal(t, true, out["approved"])
	assert.Equal(t, []interface{}{"000005", "000006"}, out["formatted_tickets"])

	require.Len(t, fr.confirmed, 1)
	in := fr.confirmed[0]
	assert.Equal(t, "777", in.PaymentID)
	assert.Equal(t, "poll", in.Source)
	assert.Equal(t, int64(1999), in.AmountCents)
	assert.Equal(t, "E0001", in.EndToEnd)
}

func TestStatusSettlementReferenceCountsAsPaid(t *testing.T) {
	fr := &fakeReconciler{result: service.ConfirmationResult{Status: model.StatusApproved}}
	h := handler.NewStatusHandler(
		&fakeGateway{deposit: &gateway.DepositStatus{Status: "pending", EndToEnd: "E0002"}},
		fr,
		&fakeTicketReader{},
	)

	_, out := getStatus(t, h, "?hash=1")

	assert.Equal(t, true, out["paid"])
	// The normalized field must not leak the gateway's raw "pending".
	assert.Equal(t, "paid", out["payment_status"])
	assert.Len(t, fr.confirmed, 1)
}

func TestStatusGatewayError(t *testing.T) {
	h := handler.NewStatusHandler(&fakeGateway{err: errors.New("timeout")}, &fakeReconciler{}, &fakeTicketReader{})

	rec, out := getStatus(t, h, "?hash=777")

	// Poll errors answer 200 so the storefront keeps polling.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["erro"])
	assert.Equal(t, "ERROR", out["status"])
}
