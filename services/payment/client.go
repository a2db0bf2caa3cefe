package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lumident/models"

	"go.uber.org/zap"
)

// GatewayConfig carries the merchant credentials and endpoints for the
// payment gateway.
type GatewayConfig struct {
	MerchantID  string
	Secret      string
	BaseURL     string
	RedirectURL string
	CallbackURL string
	Currency    string
}

// HTTPGateway implements Gateway against the gateway's HTTP API.
type HTTPGateway struct {
	cfg    GatewayConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPGateway constructs a gateway client with a bounded request timeout.
func NewHTTPGateway(cfg GatewayConfig, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// createSessionRequest is the outbound payment-creation wire format. The
// reference field carries the draft token so the callback can be correlated
// back to the draft.
type createSessionRequest struct {
	MerchantID  string `json:"merchantId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Label       string `json:"label"`
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirectUrl"`
	CallbackURL string `json:"callbackUrl"`
	Signature   string `json:"signature"`
}

type createSessionResponse struct {
	TransactionID string `json:"transactionId"`
	RedirectURL   string `json:"redirectUrl"`
}

// CreateSession builds a signed payment-creation request for the draft and
// posts it to the gateway. Transport failures and non-2xx responses surface
// as *GatewayError.
func (g *HTTPGateway) CreateSession(ctx context.Context, draft *models.BookingDraft) (*models.PaymentSession, error) {
	label := fmt.Sprintf("Dental appointment %s", draft.ServiceID)
	req := createSessionRequest{
		MerchantID:  g.cfg.MerchantID,
		Amount:      draft.Amount,
		Currency:    g.cfg.Currency,
		Label:       label,
		Reference:   draft.Token,
		RedirectURL: g.cfg.RedirectURL,
		CallbackURL: g.cfg.CallbackURL,
	}
	req.Signature = signCreate(req.MerchantID, req.Amount, req.Currency, req.Label, req.Reference, req.RedirectURL, req.CallbackURL, g.cfg.Secret)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Op: "create", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		g.logger.Warn("Gateway rejected payment creation",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return nil, &GatewayError{Op: "create", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var out createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &GatewayError{Op: "create", Err: fmt.Errorf("malformed response: %w", err)}
	}
	if out.TransactionID == "" || out.RedirectURL == "" {
		return nil, &GatewayError{Op: "create", Err: fmt.Errorf("incomplete response")}
	}

	return &models.PaymentSession{
		TransactionID: out.TransactionID,
		Token:         draft.Token,
		RedirectURL:   out.RedirectURL,
	}, nil
}
