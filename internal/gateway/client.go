package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/freelancehub/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatusSuccessful is the provider's sentinel for a settled charge or
// transfer, in verification responses and redirect callbacks alike.
const StatusSuccessful = "successful"

// Client talks to the external payment service provider. All calls are
// blocking network I/O and must happen outside any local transaction.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, secretKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// envelope is the provider's standard response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type InitializePaymentRequest struct {
	TxRef       string          `json:"tx_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	RedirectURL string          `json:"redirect_url"`
	Customer    Customer        `json:"customer"`
}

type InitializePaymentResult struct {
	Link string `json:"link"`
}

func (c *Client) InitializePayment(ctx context.Context, req InitializePaymentRequest) (*InitializePaymentResult, error) {
	var result InitializePaymentResult
	if err := c.post(ctx, "/payments", req, &result); err != nil {
		return nil, fmt.Errorf("initialize payment: %w", err)
	}
	return &result, nil
}

type VerifyResult struct {
	ID            string          `json:"id"`
	TxRef         string          `json:"tx_ref"`
	Status        string          `json:"status"`
	Currency      string          `json:"currency"`
	ChargedAmount decimal.Decimal `json:"charged_amount"`
}

func (c *Client) VerifyTransaction(ctx context.Context, transactionID string) (*VerifyResult, error) {
	var result VerifyResult
	path := fmt.Sprintf("/transactions/%s/verify", transactionID)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("verify transaction %s: %w", transactionID, err)
	}
	return &result, nil
}

type CreateTransferRequest struct {
	AccountBank   string          `json:"account_bank"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Reference     string          `json:"reference"`
	Narration     string          `json:"narration"`
}

type CreateTransferResult struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
}

func (c *Client) CreateTransfer(ctx context.Context, req CreateTransferRequest) (*CreateTransferResult, error) {
	var result CreateTransferResult
	if err := c.post(ctx, "/transfers", req, &result); err != nil {
		return nil, fmt.Errorf("create transfer %s: %w", req.Reference, err)
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: provider unavailable: %v", models.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: provider returned %d: %s", models.ErrGateway, resp.StatusCode, string(b))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: invalid provider response: %v", models.ErrGateway, err)
	}
	if env.Status != "success" {
		return fmt.Errorf("%w: %s", models.ErrGateway, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: invalid provider payload: %v", models.ErrGateway, err)
	}
	return nil
}
