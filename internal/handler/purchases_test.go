package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofcdigitalhawks/audirifa/internal/handler"
	"github.com/ofcdigitalhawks/audirifa/internal/model"
)

type fakeTicketLister struct {
	tickets []model.Ticket
}

func (f *fakeTicketLister) ListAll(context.Context) ([]model.Ticket, error) {
	return f.tickets, nil
}

func getPurchases(t *testing.T, h *handler.PurchasesHandler, phone string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/minhas-compras?phone="+phone, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.List(e.NewContext(req, rec)))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestPurchasesRejectsShortPhone(t *testing.T) {
	h := handler.NewPurchasesHandler(&fakeTicketLister{})

	rec, out := getPurchases(t, h, "999")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, true, out["error"])
}

func TestPurchasesFiltersByPhone(t *testing.T) {
	now := time.Now()
	h := handler.NewPurchasesHandler(&fakeTicketLister{tickets: []model.Ticket{
		{TicketNumber: 1, CustomerPhone: "5511999998888", IsPaid: true, PaymentID: "a", CreatedAt: now},
		{TicketNumber: 2, CustomerPhone: "5511999998888", IsPaid: false, PaymentID: "a", CreatedAt: now},
		{TicketNumber: 3, CustomerPhone: "5521777776666", IsPaid: true, PaymentID: "b", CreatedAt: now},
	}})

	// Query without country code still matches stored numbers with one.
	rec, out := getPurchases(t, h, "11999998888")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, float64(2), out["total"])
	assert.Equal(t, float64(1), out["paid"])
	assert.Equal(t, float64(1), out["pending"])

	tickets := out["tickets"].([]interface{})
	require.Len(t, tickets, 2)
	first := tickets[0].(map[string]interface{})
	assert.Equal(t, "000001", first["formatted_number"])
}

func TestPurchasesNoMatches(t *testing.T) {
	h := handler.NewPurchasesHandler(&fakeTicketLister{tickets: []model.Ticket{
		{TicketNumber: 1, CustomerPhone: "5511999998888"},
	}})

	rec, out := getPurchases(t, h, "21888887777")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), out["total"])
}
