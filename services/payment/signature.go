package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Signatures are HMAC-SHA256 over a pipe-joined canonical field ordering.
// Create and callback requests canonicalize differently; both sides must use
// the exact orderings below or verification fails.

func signCreate(merchantID string, amount int64, currency, label, reference, redirectURL, callbackURL, secret string) string {
	payload := strings.Join([]string{
		merchantID,
		strconv.FormatInt(amount, 10),
		currency,
		label,
		reference,
		redirectURL,
		callbackURL,
	}, "|")
	return computeHMAC(payload, secret)
}

func signCallback(transactionID, token, status string, amount int64, secret string) string {
	payload := strings.Join([]string{
		transactionID,
		token,
		status,
		strconv.FormatInt(amount, 10),
	}, "|")
	return computeHMAC(payload, secret)
}

func computeHMAC(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// signaturesEqual compares in constant time.
func signaturesEqual(got, want string) bool {
	return hmac.Equal([]byte(got), []byte(want))
}
