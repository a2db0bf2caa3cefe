package payment

import (
	"encoding/json"
	"errors"
	"testing"

	"lumident/models"

	"go.uber.org/zap"
)

const testSecret = "test-shared-secret"

func testGateway() *HTTPGateway {
	return NewHTTPGateway(GatewayConfig{
		MerchantID:  "lumident-001",
		Secret:      testSecret,
		BaseURL:     "https://gateway.example",
		RedirectURL: "https://lumident.example/booking/result",
		CallbackURL: "https://lumident.example/api/booking/payment/callback",
		Currency:    "EUR",
	}, zap.NewNop())
}

func signedCallback(t *testing.T, transactionID, token, status string, amount int64) []byte {
	t.Helper()
	payload := map[string]interface{}{
		"transactionId": transactionID,
		"token":         token,
		"status":        status,
		"amount":        amount,
		"signature":     signCallback(transactionID, token, status, amount, testSecret),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal callback: %v", err)
	}
	return b
}

func TestVerifyCallback_Valid(t *testing.T) {
	g := testGateway()

	notif, err := g.VerifyCallback(signedCallback(t, "tx-1", "tok-1", models.PaymentPaid, 150000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notif.TransactionID != "tx-1" || notif.Token != "tok-1" {
		t.Errorf("notification fields mismatch: %+v", notif)
	}
	if notif.Status != models.PaymentPaid || notif.Amount != 150000 {
		t.Errorf("notification payload mismatch: %+v", notif)
	}
}

func TestVerifyCallback_TamperedField(t *testing.T) {
	g := testGateway()

	// Sign for one amount, report another.
	payload := map[string]interface{}{
		"transactionId": "tx-1",
		"token":         "tok-1",
		"status":        models.PaymentPaid,
		"amount":        int64(999999),
		"signature":     signCallback("tx-1", "tok-1", models.PaymentPaid, 150000, testSecret),
	}
	b, _ := json.Marshal(payload)

	if _, err := g.VerifyCallback(b); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifyCallback_WrongSecret(t *testing.T) {
	g := testGateway()

	payload := map[string]interface{}{
		"transactionId": "tx-1",
		"token":         "tok-1",
		"status":        models.PaymentPaid,
		"amount":        int64(150000),
		"signature":     signCallback("tx-1", "tok-1", models.PaymentPaid, 150000, "other-secret"),
	}
	b, _ := json.Marshal(payload)

	if _, err := g.VerifyCallback(b); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifyCallback_MissingFields(t *testing.T) {
	g := testGateway()

	cases := map[string]string{
		"no transaction": `{"token":"tok-1","status":"PAID","amount":150000,"signature":"x"}`,
		"no token":       `{"transactionId":"tx-1","status":"PAID","amount":150000,"signature":"x"}`,
		"no status":      `{"transactionId":"tx-1","token":"tok-1","amount":150000,"signature":"x"}`,
		"no amount":      `{"transactionId":"tx-1","token":"tok-1","status":"PAID","signature":"x"}`,
		"no signature":   `{"transactionId":"tx-1","token":"tok-1","status":"PAID","amount":150000}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := g.VerifyCallback([]byte(payload)); !errors.Is(err, ErrVerificationFailed) {
				t.Fatalf("expected ErrVerificationFailed, got %v", err)
			}
		})
	}
}

func TestVerifyCallback_Malformed(t *testing.T) {
	g := testGateway()

	for _, payload := range []string{"", "not json", `{"transactionId": 42}`} {
		if _, err := g.VerifyCallback([]byte(payload)); !errors.Is(err, ErrVerificationFailed) {
			t.Fatalf("payload %q: expected ErrVerificationFailed, got %v", payload, err)
		}
	}
}

func TestVerifyCallback_UnknownStatus(t *testing.T) {
	g := testGateway()

	if _, err := g.VerifyCallback(signedCallback(t, "tx-1", "tok-1", "REFUNDED", 150000)); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed for unknown status, got %v", err)
	}
}
