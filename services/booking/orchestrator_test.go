package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lumident/models"
	"lumident/services/calendar"
	"lumident/services/payment"

	"go.uber.org/zap"
)

// Mocks for the orchestrator's collaborators.

type mockGateway struct {
	createFunc func(ctx context.Context, draft *models.BookingDraft) (*models.PaymentSession, error)
	verifyFunc func(payload []byte) (*models.PaymentNotification, error)
}

func (m *mockGateway) CreateSession(ctx context.Context, draft *models.BookingDraft) (*models.PaymentSession, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, draft)
	}
	return &models.PaymentSession{
		TransactionID: "tx-" + draft.Token,
		Token:         draft.Token,
		RedirectURL:   "https://gateway.example/pay/" + draft.Token,
	}, nil
}

func (m *mockGateway) VerifyCallback(payload []byte) (*models.PaymentNotification, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(payload)
	}
	return nil, payment.ErrVerificationFailed
}

type mockCalendar struct {
	mu          sync.Mutex
	reserveFunc func(ctx context.Context, serviceID string, slot models.Slot) (string, error)
	calls       int
}

func (m *mockCalendar) Reserve(ctx context.Context, serviceID string, slot models.Slot) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.reserveFunc != nil {
		return m.reserveFunc(ctx, serviceID, slot)
	}
	return "res-1", nil
}

func (m *mockCalendar) reservations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type sentNotification struct {
	kind      string
	recipient string
	data      map[string]string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (m *mockNotifier) Dispatch(kind, recipient string, data map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentNotification{kind: kind, recipient: recipient, data: data})
}

func (m *mockNotifier) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

type mockRecords struct {
	mu       sync.Mutex
	bookings []*models.Booking
	payments []*models.PaymentRecord
}

func (m *mockRecords) CreateBooking(b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, b)
	return nil
}

func (m *mockRecords) GetBookingByToken(token string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.Token == token {
			return b, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockRecords) CreatePaymentRecord(r *models.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, r)
	return nil
}

func (m *mockRecords) GetPaymentRecordByToken(token string) (*models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.payments {
		if r.Token == token {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockRecords) ListRefundDue() ([]models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PaymentRecord
	for _, r := range m.payments {
		if r.RefundDue {
			out = append(out, *r)
		}
	}
	return out, nil
}

type testEnv struct {
	orch     *DefaultBookingOrchestrator
	store    *MemoryDraftStore
	gateway  *mockGateway
	cal      *mockCalendar
	notifier *mockNotifier
	records  *mockRecords
}

func newTestEnv() *testEnv {
	store := NewMemoryDraftStore(30 * time.Minute)
	gw := &mockGateway{}
	cal := &mockCalendar{}
	notifier := &mockNotifier{}
	records := &mockRecords{}

	orch := &DefaultBookingOrchestrator{
		Store:          store,
		Gateway:        gw,
		Calendar:       cal,
		Notifier:       notifier,
		Records:        records,
		Logger:         zap.NewNop(),
		TTL:            30 * time.Minute,
		GatewayRetries: 1,
		Currency:       "EUR",
		locks:          newTokenLocks(),
	}
	return &testEnv{orch: orch, store: store, gateway: gw, cal: cal, notifier: notifier, records: records}
}

func validInput() models.BookingInput {
	return models.BookingInput{
		Name:            "Jana Novak",
		Email:           "jana@example.com",
		Phone:           "+420123456789",
		ServiceID:       "dental-hygiene",
		Start:           time.Now().Add(48 * time.Hour),
		DurationMinutes: 60,
		Amount:          150000,
	}
}

// paidNotification wires the mock gateway to report a verified PAID callback
// for the given token and amount.
func (e *testEnv) paidNotification(token string, amount int64) {
	e.gateway.verifyFunc = func(payload []byte) (*models.PaymentNotification, error) {
		return &models.PaymentNotification{
			TransactionID: "tx-" + token,
			Token:         token,
			Status:        models.PaymentPaid,
			Amount:        amount,
		}, nil
	}
}

func TestSubmitIntent_HappyPath(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, err := env.orch.SubmitIntent(ctx, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" || resp.RedirectURL == "" {
		t.Fatalf("incomplete intent response: %+v", resp)
	}

	draft, err := env.store.Get(ctx, resp.Token)
	if err != nil {
		t.Fatalf("draft not stored: %v", err)
	}
	if draft.Status != models.StatusPaymentPending {
		t.Errorf("expected PAYMENT_PENDING, got %s", draft.Status)
	}
	if draft.TransactionID == "" {
		t.Errorf("transaction id not recorded on draft")
	}
}

func TestSubmitIntent_InvalidInput(t *testing.T) {
	env := newTestEnv()
	gatewayCalled := false
	env.gateway.createFunc = func(ctx context.Context, draft *models.BookingDraft) (*models.PaymentSession, error) {
		gatewayCalled = true
		return nil, errors.New("must not be reached")
	}

	cases := []struct {
		name   string
		mutate func(*models.BookingInput)
	}{
		{"missing email", func(in *models.BookingInput) { in.Email = "" }},
		{"zero amount", func(in *models.BookingInput) { in.Amount = 0 }},
		{"negative amount", func(in *models.BookingInput) { in.Amount = -100 }},
		{"past start", func(in *models.BookingInput) { in.Start = time.Now().Add(-time.Hour) }},
		{"missing service", func(in *models.BookingInput) { in.ServiceID = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := env.orch.SubmitIntent(context.Background(), in)
			if !IsCode(err, CodeInvalidInput) {
				t.Fatalf("expected invalidInput, got %v", err)
			}
		})
	}

	if gatewayCalled {
		t.Error("invalid input reached the gateway; rejection must precede external calls")
	}
}

func TestSubmitIntent_GatewayRetryOnce(t *testing.T) {
	env := newTestEnv()
	attempts := 0
	env.gateway.createFunc = func(ctx context.Context, draft *models.BookingDraft) (*models.PaymentSession, error) {
		attempts++
		if attempts == 1 {
			return nil, &payment.GatewayError{Op: "create", Err: errors.New("connection reset")}
		}
		return &models.PaymentSession{TransactionID: "tx-retry", Token: draft.Token, RedirectURL: "https://gateway.example/pay"}, nil
	}

	resp, err := env.orch.SubmitIntent(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if resp.Token == "" {
		t.Error("missing token after retried session creation")
	}
}

func TestSubmitIntent_GatewayExhausted(t *testing.T) {
	env := newTestEnv()
	attempts := 0
	env.gateway.createFunc = func(ctx context.Context, draft *models.BookingDraft) (*models.PaymentSession, error) {
		attempts++
		return nil, &payment.GatewayError{Op: "create", Err: errors.New("unavailable")}
	}

	_, err := env.orch.SubmitIntent(context.Background(), validInput())
	if !IsCode(err, CodeGatewayError) {
		t.Fatalf("expected gatewayError, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected one retry (2 attempts), got %d", attempts)
	}

	// The abandoned draft must not linger in the store.
	env.store.mu.Lock()
	remaining := len(env.store.drafts)
	env.store.mu.Unlock()
	if remaining != 0 {
		t.Errorf("draft left behind after gateway failure")
	}
}

// Scenario: intent with amount 150000, callback matching amount and
// status=PAID. Draft becomes PAID, exactly one reservation, exactly one
// confirmation.
func TestHandleCallback_PaidCommit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, err := env.orch.SubmitIntent(ctx, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.paidNotification(resp.Token, 150000)

	if err := env.orch.HandleCallback(ctx, []byte(`{}`)); err != nil {
		t.Fatalf("unexpected callback error: %v", err)
	}

	if got := env.cal.reservations(); got != 1 {
		t.Errorf("expected 1 reservation, got %d", got)
	}
	if got := env.notifier.count(models.NotifyConfirmation); got != 1 {
		t.Errorf("expected 1 confirmation, got %d", got)
	}

	// Draft is drained from the transient store; the durable record answers
	// status queries from now on.
	if _, err := env.store.Get(ctx, resp.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft still present after commit")
	}
	status, err := env.orch.BookingStatus(ctx, resp.Token)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if status.Status != models.StatusPaid {
		t.Errorf("expected PAID status, got %s", status.Status)
	}
}

// Re-processing an identical PAID callback must be a no-op that still
// acknowledges: one reservation, one confirmation, no duplicates.
func TestHandleCallback_Idempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, _ := env.orch.SubmitIntent(ctx, validInput())
	env.paidNotification(resp.Token, 150000)

	if err := env.orch.HandleCallback(ctx, []byte(`{}`)); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}
	// Gateway retry: the draft is gone, so this surfaces as an orphan that
	// is acknowledged without side effects.
	err := env.orch.HandleCallback(ctx, []byte(`{}`))
	if err != nil && !IsCode(err, CodeOrphanCallback) {
		t.Fatalf("unexpected second callback error: %v", err)
	}

	if got := env.cal.reservations(); got != 1 {
		t.Errorf("duplicate reservation: got %d", got)
	}
	if got := env.notifier.count(models.NotifyConfirmation); got != 1 {
		t.Errorf("duplicate confirmation: got %d", got)
	}
}

// Scenario: callback for a token not present in the store is a logged
// no-op.
func TestHandleCallback_Orphan(t *testing.T) {
	env := newTestEnv()
	env.paidNotification("tok-ghost", 150000)

	err := env.orch.HandleCallback(context.Background(), []byte(`{}`))
	if !IsCode(err, CodeOrphanCallback) {
		t.Fatalf("expected orphanCallback, got %v", err)
	}
	if env.cal.reservations() != 0 {
		t.Error("orphan callback reserved a slot")
	}
	if len(env.notifier.sent) != 0 {
		t.Error("orphan callback dispatched a notification")
	}
}

// Scenario: draft created at T, TTL 30 minutes, PAID callback at T+31.
// Verification rejects due to expiry; no reservation is created and the
// sweep later expires the draft.
func TestHandleCallback_ExpiredDraft(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	stale := testDraft("tok-late", 31*time.Minute)
	if err := env.store.Put(ctx, stale); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	env.paidNotification("tok-late", 150000)

	err := env.orch.HandleCallback(ctx, []byte(`{}`))
	if !IsCode(err, CodeOrphanCallback) {
		t.Fatalf("expected rejection for expired draft, got %v", err)
	}
	if env.cal.reservations() != 0 {
		t.Error("expired draft was promoted to a reservation")
	}

	// The sweep owns expiry cleanup and its side effects.
	if n := env.orch.Sweep(ctx); n != 1 {
		t.Fatalf("expected 1 expired draft, swept %d", n)
	}
	if got := env.notifier.count(models.NotifyExpiry); got != 1 {
		t.Errorf("expected 1 expiry notification, got %d", got)
	}

	// Sweeping again is idempotent.
	if n := env.orch.Sweep(ctx); n != 0 {
		t.Errorf("second sweep removed %d drafts", n)
	}
	if got := env.notifier.count(models.NotifyExpiry); got != 1 {
		t.Errorf("duplicate expiry notification after second sweep: %d", got)
	}
}

// A valid signature is not enough: the notified amount must equal the
// stored draft amount.
func TestHandleCallback_AmountMismatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, _ := env.orch.SubmitIntent(ctx, validInput())
	env.paidNotification(resp.Token, 99)

	err := env.orch.HandleCallback(ctx, []byte(`{}`))
	if !IsCode(err, CodeVerificationFailed) {
		t.Fatalf("expected verificationFailed, got %v", err)
	}
	if env.cal.reservations() != 0 {
		t.Error("tampered amount reached the calendar")
	}

	// The draft must stay untouched and still be payable.
	draft, err := env.store.Get(ctx, resp.Token)
	if err != nil {
		t.Fatalf("draft lost after rejected callback: %v", err)
	}
	if draft.Status != models.StatusPaymentPending {
		t.Errorf("draft mutated by rejected callback: %s", draft.Status)
	}
}

// Scenario: payment verified PAID but the slot was lost to a concurrent
// reservation. The payment is preserved for refund follow-up, never
// silently dropped.
func TestHandleCallback_SlotUnavailableAfterPayment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, _ := env.orch.SubmitIntent(ctx, validInput())
	env.paidNotification(resp.Token, 150000)
	env.cal.reserveFunc = func(ctx context.Context, serviceID string, slot models.Slot) (string, error) {
		return "", calendar.ErrSlotTaken
	}

	err := env.orch.HandleCallback(ctx, []byte(`{}`))
	if !IsCode(err, CodeSlotUnavailable) {
		t.Fatalf("expected slotUnavailable, got %v", err)
	}

	due, _ := env.records.ListRefundDue()
	if len(due) != 1 {
		t.Fatalf("expected 1 refund-due record, got %d", len(due))
	}
	if due[0].Reason != models.ReasonSlotUnavailable {
		t.Errorf("expected reason %s, got %s", models.ReasonSlotUnavailable, due[0].Reason)
	}
	if due[0].Amount != 150000 {
		t.Errorf("payment amount lost: %d", due[0].Amount)
	}
	if got := env.notifier.count(models.NotifyFailure); got != 1 {
		t.Errorf("expected 1 failure notification, got %d", got)
	}

	status, err := env.orch.BookingStatus(ctx, resp.Token)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if status.Status != models.StatusFailed || status.Reason != models.ReasonSlotUnavailable {
		t.Errorf("unexpected terminal status: %+v", status)
	}
}

func TestHandleCallback_CancelledPayment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, _ := env.orch.SubmitIntent(ctx, validInput())
	env.gateway.verifyFunc = func(payload []byte) (*models.PaymentNotification, error) {
		return &models.PaymentNotification{
			TransactionID: "tx-c",
			Token:         resp.Token,
			Status:        models.PaymentCancelled,
			Amount:        150000,
		}, nil
	}

	if err := env.orch.HandleCallback(ctx, []byte(`{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.cal.reservations() != 0 {
		t.Error("cancelled payment reserved a slot")
	}
	if got := env.notifier.count(models.NotifyFailure); got != 1 {
		t.Errorf("expected 1 failure notification, got %d", got)
	}
	if _, err := env.store.Get(ctx, resp.Token); !errors.Is(err, ErrNotFound) {
		t.Error("cancelled draft still in store")
	}
}

func TestHandleCallback_UnverifiablePayload(t *testing.T) {
	env := newTestEnv()
	env.gateway.verifyFunc = func(payload []byte) (*models.PaymentNotification, error) {
		return nil, payment.ErrVerificationFailed
	}

	err := env.orch.HandleCallback(context.Background(), []byte(`garbage`))
	if !IsCode(err, CodeVerificationFailed) {
		t.Fatalf("expected verificationFailed, got %v", err)
	}
	if env.cal.reservations() != 0 || len(env.notifier.sent) != 0 {
		t.Error("unverified callback caused side effects")
	}
}

// A sweep racing a concurrent commit must never leave a PAID draft without
// a reservation nor strand a reservation without its booking. The slow
// calendar call widens the commit window while sweeps run continuously.
func TestSweep_DoesNotRaceCommit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Draft right at the TTL edge: it crosses the deadline while the
	// callback is mid-commit.
	edge := testDraft("tok-edge", 30*time.Minute-50*time.Millisecond)
	if err := env.store.Put(ctx, edge); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	env.paidNotification("tok-edge", 150000)
	env.cal.reserveFunc = func(ctx context.Context, serviceID string, slot models.Slot) (string, error) {
		time.Sleep(150 * time.Millisecond)
		return "res-edge", nil
	}

	done := make(chan error, 1)
	go func() {
		done <- env.orch.HandleCallback(ctx, []byte(`{}`))
	}()

	sweepDeadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(sweepDeadline) {
		env.orch.Sweep(ctx)
		time.Sleep(10 * time.Millisecond)
	}
	callbackErr := <-done

	committed := callbackErr == nil
	expiries := env.notifier.count(models.NotifyExpiry)
	confirmations := env.notifier.count(models.NotifyConfirmation)

	if committed {
		if env.cal.reservations() != 1 || confirmations != 1 {
			t.Errorf("committed draft: reservations=%d confirmations=%d", env.cal.reservations(), confirmations)
		}
		if expiries != 0 {
			t.Errorf("committed draft also swept: %d expiry notifications", expiries)
		}
	} else {
		if env.cal.reservations() != 0 {
			t.Errorf("expired draft still reserved a slot")
		}
		if confirmations != 0 {
			t.Errorf("expired draft confirmed")
		}
	}
}
