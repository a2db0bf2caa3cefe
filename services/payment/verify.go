package payment

import (
	"encoding/json"

	"lumident/models"

	"go.uber.org/zap"
)

// callbackPayload is the loose inbound wire format. Every field arrives as
// untrusted input and is validated before anything downstream sees it.
type callbackPayload struct {
	TransactionID string `json:"transactionId"`
	Token         string `json:"token"`
	Status        string `json:"status"`
	Amount        *int64 `json:"amount"`
	Signature     string `json:"signature"`
}

// VerifyCallback parses the raw callback body, recomputes the expected
// signature over the received fields and compares in constant time. Any
// mismatch, missing field or malformed payload yields ErrVerificationFailed;
// the caller never branches on payload content before this succeeds.
func (g *HTTPGateway) VerifyCallback(payload []byte) (*models.PaymentNotification, error) {
	var cb callbackPayload
	if err := json.Unmarshal(payload, &cb); err != nil {
		g.logger.Warn("Rejected malformed gateway callback", zap.Error(err))
		return nil, ErrVerificationFailed
	}

	if cb.TransactionID == "" || cb.Token == "" || cb.Status == "" || cb.Amount == nil || cb.Signature == "" {
		g.logger.Warn("Rejected gateway callback with missing fields",
			zap.String("transactionId", cb.TransactionID),
		)
		return nil, ErrVerificationFailed
	}

	switch cb.Status {
	case models.PaymentPaid, models.PaymentCancelled, models.PaymentFailed:
	default:
		g.logger.Warn("Rejected gateway callback with unknown status",
			zap.String("status", cb.Status),
		)
		return nil, ErrVerificationFailed
	}

	expected := signCallback(cb.TransactionID, cb.Token, cb.Status, *cb.Amount, g.cfg.Secret)
	if !signaturesEqual(cb.Signature, expected) {
		// Security-relevant: either tampering or a misconfigured secret.
		g.logger.Warn("Rejected gateway callback with invalid signature",
			zap.String("transactionId", cb.TransactionID),
			zap.String("token", cb.Token),
		)
		return nil, ErrVerificationFailed
	}

	return &models.PaymentNotification{
		TransactionID: cb.TransactionID,
		Token:         cb.Token,
		Status:        cb.Status,
		Amount:        *cb.Amount,
	}, nil
}
