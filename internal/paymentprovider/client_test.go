package paymentprovider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateSession(t *testing.T) {
	var gotAuth, gotIdemKey string
	var gotReq CreateSessionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotIdemKey = r.Header.Get("Idempotence-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(CheckoutSession{
			ID:  "cs_test_1",
			URL: "https://pay.checkout.test/cs_test_1",
		})
	}))
	defer srv.Close()

	client := NewClient("shop-1", "sk_test", srv.URL, 5*time.Second)

	session, err := client.CreateSession(context.Background(), CreateSessionRequest{
		ProductID:  "prod_pro",
		UnitAmount: 3000,
		Currency:   "usd",
		Quantity:   1,
		Mode:       "payment",
		Metadata:   map[string]string{MetadataUserUID: "uid-1", MetadataPlanType: "pro"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://pay.checkout.test/cs_test_1", session.URL)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("shop-1:sk_test"))
	assert.Equal(t, wantAuth, gotAuth)
	assert.NotEmpty(t, gotIdemKey)
	assert.Equal(t, "uid-1", gotReq.Metadata[MetadataUserUID])
}

func TestClient_RetrieveSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/checkout/sessions/cs_test_1", r.URL.Path)
		assert.Empty(t, r.Header.Get("Idempotence-Key"))

		_ = json.NewEncoder(w).Encode(CheckoutSession{
			ID:            "cs_test_1",
			PaymentStatus: PaymentStatusPaid,
			Metadata:      map[string]string{MetadataUserUID: "uid-1", MetadataPlanType: "normal"},
		})
	}))
	defer srv.Close()

	client := NewClient("shop-1", "sk_test", srv.URL, 5*time.Second)

	session, err := client.RetrieveSession(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusPaid, session.PaymentStatus)
	assert.Equal(t, "normal", session.Metadata[MetadataPlanType])
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("shop-1", "sk_test", srv.URL, 5*time.Second)

	session, err := client.RetrieveSession(context.Background(), "cs_test_1")
	assert.Error(t, err)
	assert.Nil(t, session)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("shop-1", "sk_test", srv.URL, 50*time.Millisecond)

	_, err := client.RetrieveSession(context.Background(), "cs_test_1")
	assert.Error(t, err)
}
