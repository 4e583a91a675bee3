package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofcdigitalhawks/audirifa/internal/gateway"
)

func newGatewayServer(t *testing.T, authCalls *int64, handle http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(authCalls, 1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "key", body["client_key"])
		assert.Equal(t, "secret", body["client_secret"])
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	})
	mux.HandleFunc("/", handle)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreatePaymentSendsReaisAndUTM(t *testing.T) {
	var authCalls int64
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	var gotBody map[string]interface{}

	srv := newGatewayServer(t, &authCalls, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"copy_past":   "000201pixcode",
			"external_id": 987654,
			"payer_name":  "Maria",
			"payment":     "aW1hZ2U=",
			"status":      1,
		})
	})

	c := gateway.NewClient(srv.URL, "key", "secret")
	resp, err := c.CreatePayment(context.Background(), 1999, gateway.Customer{Name: "Maria", Phone: "11999998888"},
		"AUDI RIFA", "https://shop.example/api/webhook", "ref-1", gateway.UTMParams{Source: "fb", Campaign: "launch"})

	require.NoError(t, err)
	assert.Equal(t, "/transaction/neworder", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	// Amounts cross the wire in reais.
	assert.InDelta(t, 19.99, gotBody["amount"], 0.0001)
	assert.Equal(t, "Maria", gotBody["payer_name"])
	assert.Equal(t, "AUDI RIFA", gotBody["description"])
	assert.Equal(t, "ref-1", gotBody["client_reference_id"])

	assert.Equal(t, []string{"fb"}, gotQuery["utm_source"])
	assert.Equal(t, []string{"launch"}, gotQuery["utm_campaign"])
	_, hasMedium := gotQuery["utm_medium"]
	assert.False(t, hasMedium)

	assert.Equal(t, int64(987654), resp.ExternalID)
	assert.Equal(t, "000201pixcode", resp.CopyPast)
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	var authCalls int64
	srv := newGatewayServer(t, &authCalls, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(gateway.DepositStatus{Status: "pending"})
	})

	c := gateway.NewClient(srv.URL, "key", "secret")
	for i := 0; i < 3; i++ {
		_, err := c.GetDepositStatus(context.Background(), "123")
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&authCalls))
}

func TestGetDepositStatus(t *testing.T) {
	var authCalls int64
	var gotPath string
	srv := newGatewayServer(t, &authCalls, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(gateway.DepositStatus{ID: 123, Status: "paid", EndToEnd: "E123"})
	})

	c := gateway.NewClient(srv.URL, "key", "secret")
	dep, err := c.GetDepositStatus(context.Background(), "123")

	require.NoError(t, err)
	assert.Equal(t, "/api/orders/deposit/123", gotPath)
	assert.True(t, dep.IsPaid())
}

func TestNon2xxSurfacesAsError(t *testing.T) {
	var authCalls int64
	srv := newGatewayServer(t, &authCalls, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "deposit not found", http.StatusNotFound)
	})

	c := gateway.NewClient(srv.URL, "key", "secret")
	_, err := c.GetDepositStatus(context.Background(), "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDepositIsPaid(t *testing.T) {
	assert.True(t, gateway.DepositStatus{Status: "paid"}.IsPaid())
	// A settlement reference means money moved even if status lags behind.
	assert.True(t, gateway.DepositStatus{Status: "pending", EndToEnd: "E0001"}.IsPaid())
	assert.False(t, gateway.DepositStatus{Status: "pending"}.IsPaid())
	assert.False(t, gateway.DepositStatus{Status: "pending", EndToEnd: "   "}.IsPaid())
}
