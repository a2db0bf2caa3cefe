package models

// Payment outcome statuses reported by the gateway callback.
const (
	PaymentPaid      = "PAID"
	PaymentCancelled = "CANCELLED"
	PaymentFailed    = "FAILED"
)

// PaymentSession is the gateway-side handle for a draft. It holds a weak
// back-reference to the draft token; the session never owns the draft.
type PaymentSession struct {
	TransactionID string `json:"transactionId"`
	Token         string `json:"token"`
	RedirectURL   string `json:"redirectUrl"`
}

// PaymentNotification is a gateway callback that has passed signature
// verification. Nothing downstream may branch on callback content before
// verification succeeds.
type PaymentNotification struct {
	TransactionID string
	Token         string
	Status        string // PAID | CANCELLED | FAILED
	Amount        int64
}
