package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerpix/powerpix-api/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{BaseURL: srv.URL, APIKey: "key-123", Timeout: time.Second})
}

func TestCreateCharge(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("access_token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pay_1","status":"PENDING","value":25.5,"dueDate":"2024-05-01"}`))
	})

	charge, err := c.CreateCharge(context.Background(), ChargeInput{
		CustomerID:        "cus_1",
		Value:             2550,
		DueDate:           time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Description:       "deposit",
		ExternalReference: "ref-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "pay_1", charge.ID)
	assert.Equal(t, domain.Money(2550), charge.Value)
	assert.Equal(t, "PIX", got["billingType"])
	assert.Equal(t, 25.5, got["value"])
	assert.Equal(t, "2024-05-01", got["dueDate"])
}

func TestFindCustomerByExternalRef(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "5511", r.URL.Query().Get("externalReference"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"id":"cus_9","name":"Ana"}]}`))
		})

		customer, err := c.FindCustomerByExternalRef(context.Background(), "5511")
		require.NoError(t, err)
		assert.Equal(t, "cus_9", customer.ID)
	})

	t.Run("missing", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[]}`))
		})

		_, err := c.FindCustomerByExternalRef(context.Background(), "5511")
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})
}

func TestGatewayErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"code":"invalid_value"}]}`))
		})

		_, err := c.PaymentStatus(context.Background(), "pay_1")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		t.Cleanup(srv.Close)
		c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

		_, err := c.PixQRCode(context.Background(), "pay_1")
		assert.Error(t, err)
	})
}
