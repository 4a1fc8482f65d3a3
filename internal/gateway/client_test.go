package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/freelancehub/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "sk_test_secret", zap.NewNop())
}

func TestInitializePayment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/payments" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_secret" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `{"status":"success","message":"ok","data":{"link":"https://checkout.example.com/x1"}}`)
	})

	result, err := c.InitializePayment(context.Background(), InitializePaymentRequest{
		TxRef:    "fh-1",
		Amount:   decimal.RequireFromString("9.99"),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("InitializePayment() error = %v", err)
	}
	if result.Link != "https://checkout.example.com/x1" {
		t.Errorf("Link = %q", result.Link)
	}
}

func TestVerifyTransaction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/12345/verify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"status":"success","message":"ok","data":{"id":"12345","tx_ref":"fh-1","status":"successful","currency":"USD","charged_amount":9.99}}`)
	})

	result, err := c.VerifyTransaction(context.Background(), "12345")
	if err != nil {
		t.Fatalf("VerifyTransaction() error = %v", err)
	}
	if result.TxRef != "fh-1" || result.Status != StatusSuccessful {
		t.Errorf("unexpected result: %+v", result)
	}
	if !result.ChargedAmount.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("ChargedAmount = %s", result.ChargedAmount)
	}
}

func TestProviderErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","message":"invalid account","data":null}`)
	})

	_, err := c.CreateTransfer(context.Background(), CreateTransferRequest{Reference: "wd-1"})
	if !errors.Is(err, models.ErrGateway) {
		t.Fatalf("CreateTransfer() error = %v, want ErrGateway", err)
	}
}

func TestProviderNon2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.VerifyTransaction(context.Background(), "12345")
	if !errors.Is(err, models.ErrGateway) {
		t.Fatalf("VerifyTransaction() error = %v, want ErrGateway", err)
	}
}

func TestProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := NewClient(srv.URL, "sk_test_secret", zap.NewNop())

	_, err := c.InitializePayment(context.Background(), InitializePaymentRequest{TxRef: "fh-1"})
	if !errors.Is(err, models.ErrGateway) {
		t.Fatalf("InitializePayment() error = %v, want ErrGateway", err)
	}
}
