package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/ostara/internal/domain"
	"github.com/dukerupert/ostara/internal/gateway"
)

func newTestClient(t *testing.T, token string, handler http.Handler) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := gateway.NewClient(gateway.Config{
		BaseURL:     srv.URL,
		BearerToken: token,
	})
	require.NoError(t, err)
	return client
}

func Test_Client_FetchCart(t *testing.T) {
	client := newTestClient(t, "tok-123", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"cart": [
				{"id":"ln-1","product_id":5,"product_name":"Robe","unit_price_cents":4000,"quantity":2},
				{"id":"ln-2","product_id":8,"product_name":"Slippers","unit_price_cents":1500,"quantity":1}
			],
			"total_cents": 9500,
			"item_count": 3
		}`))
	}))

	remote, err := client.FetchCart(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(9500), remote.TotalCents)
	assert.Equal(t, int32(3), remote.ItemCount)
	require.Len(t, remote.Lines, 2)
	assert.Equal(t, "ln-1", remote.Lines[0].RemoteLineID)
	assert.Equal(t, int64(5), remote.Lines[0].ProductID)
	assert.Equal(t, "Robe", remote.Lines[0].DisplayName)
	assert.Equal(t, int32(2), remote.Lines[0].Quantity)
}

func Test_Client_MissingCredentialIsContractViolation(t *testing.T) {
	called := false
	client := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	ctx := context.Background()

	_, err := client.FetchCart(ctx)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	err = client.AddLine(ctx, 1, 1)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	err = client.UpdateLine(ctx, "ln-1", 2)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	err = client.RemoveLine(ctx, "ln-1")
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	_, err = client.Checkout(ctx, domain.Contact{})
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	assert.False(t, called, "no request may leave the client without a credential")
}

func Test_Client_AddLine_SendsWirePayload(t *testing.T) {
	client := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart/items", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5), body["product_id"])
		assert.Equal(t, float64(3), body["quantity"])

		w.WriteHeader(http.StatusCreated)
	}))

	assert.NoError(t, client.AddLine(context.Background(), 5, 3))
}

func Test_Client_UpdateAndRemoveLine_UseLineIDPath(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	ctx := context.Background()

	require.NoError(t, client.UpdateLine(ctx, "ln-42", 4))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/cart/items/ln-42", gotPath)

	require.NoError(t, client.RemoveLine(ctx, "ln-42"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/cart/items/ln-42", gotPath)
}

func Test_Client_ServerRejectionCarriesMessage(t *testing.T) {
	client := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Product is out of stock"}`))
	}))

	err := client.AddLine(context.Background(), 5, 1)

	require.Error(t, err)
	assert.Equal(t, domain.EREJECTED, domain.ErrorCode(err))
	assert.Equal(t, "Product is out of stock", domain.ErrorMessage(err))
}

func Test_Client_ServerRejectionWithoutBodyGetsGenericMessage(t *testing.T) {
	client := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.AddLine(context.Background(), 5, 1)

	require.Error(t, err)
	assert.Equal(t, domain.EREJECTED, domain.ErrorCode(err))
	assert.Equal(t, "The store rejected the request. Please try again.", domain.ErrorMessage(err))
}

func Test_Client_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing is listening anymore

	client, err := gateway.NewClient(gateway.Config{BaseURL: url, BearerToken: "tok"})
	require.NoError(t, err)

	_, err = client.FetchCart(context.Background())

	require.Error(t, err)
	assert.Equal(t, domain.ENETWORK, domain.ErrorCode(err))
}

func Test_Client_Checkout(t *testing.T) {
	client := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart/checkout", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "12 Harbor Lane", body["shipping_address"])
		// The server-held cart supplies the items; none travel here.
		assert.NotContains(t, body, "items")

		w.Write([]byte(`{"order_id":"ord-77","total_cents":12300}`))
	}))

	result, err := client.Checkout(context.Background(), domain.Contact{
		Email:           "a@b.com",
		Phone:           "5551234567",
		ShippingAddress: "12 Harbor Lane",
	})

	require.NoError(t, err)
	assert.Equal(t, "ord-77", result.OrderID)
	assert.Equal(t, int64(12300), result.TotalCents)
}

func Test_Client_SubmitGuestOrder_NoAuthRequired(t *testing.T) {
	client := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/guest", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, float64(100), body["total_cents"])

		items, ok := body["items"].([]interface{})
		require.True(t, ok)
		require.Len(t, items, 1)
		item := items[0].(map[string]interface{})
		assert.Equal(t, float64(1), item["product_id"])
		assert.Equal(t, float64(2), item["quantity"])
		assert.Equal(t, float64(50), item["price_cents"])
		assert.Equal(t, float64(100), item["subtotal_cents"])

		w.Write([]byte(`{"message":"Thank you for your order","order_id":"ord-9"}`))
	}))

	draft := domain.BuildGuestDraft(
		domain.Contact{Email: "a@b.com", Phone: "5551234567"},
		[]domain.CartLine{{ProductID: 1, DisplayName: "Soap", UnitPriceCents: 50, Quantity: 2}},
	)

	result, err := client.SubmitGuestOrder(context.Background(), draft)

	require.NoError(t, err)
	assert.Equal(t, "ord-9", result.OrderID)
	assert.Equal(t, "Thank you for your order", result.Message)
}
