package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPMailer sends templated mail through the mail provider's HTTP API. The
// template rendering itself lives with the provider; we only name the
// template by notification kind.
type HTTPMailer struct {
	baseURL string
	apiKey  string
	sender  string
	client  *http.Client
}

func NewHTTPMailer(baseURL, apiKey, sender string) *HTTPMailer {
	return &HTTPMailer{
		baseURL: baseURL,
		apiKey:  apiKey,
		sender:  sender,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type mailRequest struct {
	Template  string            `json:"template"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Variables map[string]string `json:"variables"`
}

func (m *HTTPMailer) Send(ctx context.Context, kind, recipient string, data map[string]string) error {
	body, err := json.Marshal(mailRequest{
		Template:  "booking-" + kind,
		From:      m.sender,
		To:        recipient,
		Variables: data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail service returned status %d", resp.StatusCode)
	}
	return nil
}
