package purchase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/inmemory"
	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/payment"
	sessionRepo "github.com/admin/tg-bots/stars-bot/internal/repository/session"
	"github.com/shopspring/decimal"
)

type fakeGateway struct {
	mu sync.Mutex

	CreateInvoiceFunc    func(ctx context.Context, req payment.CreateInvoiceRequest) (*domain.Invoice, error)
	GetInvoiceStatusFunc func(ctx context.Context, invoiceID string) (domain.InvoiceStatus, error)
	RefundFunc           func(ctx context.Context, invoiceID string) error
	GetRateFunc          func(ctx context.Context, asset string) (decimal.Decimal, error)

	createCalls int
	refundCalls int
	lastCreate  payment.CreateInvoiceRequest
}

func (f *fakeGateway) CreateInvoice(ctx context.Context, req payment.CreateInvoiceRequest) (*domain.Invoice, error) {
	f.mu.Lock()
	f.createCalls++
	f.lastCreate = req
	f.mu.Unlock()
	if f.CreateInvoiceFunc != nil {
		return f.CreateInvoiceFunc(ctx, req)
	}
	return &domain.Invoice{ID: "inv-1", PayURL: "https://t.me/CryptoBot?start=inv-1", Asset: req.Asset, Amount: req.Amount, Status: domain.InvoiceStatusActive}, nil
}

func (f *fakeGateway) GetInvoiceStatus(ctx context.Context, invoiceID string) (domain.InvoiceStatus, error) {
	if f.GetInvoiceStatusFunc != nil {
		return f.GetInvoiceStatusFunc(ctx, invoiceID)
	}
	return domain.InvoiceStatusActive, nil
}

func (f *fakeGateway) Refund(ctx context.Context, invoiceID string) error {
	f.mu.Lock()
	f.refundCalls++
	f.mu.Unlock()
	if f.RefundFunc != nil {
		return f.RefundFunc(ctx, invoiceID)
	}
	return nil
}

func (f *fakeGateway) GetRate(ctx context.Context, asset string) (decimal.Decimal, error) {
	if f.GetRateFunc != nil {
		return f.GetRateFunc(ctx, asset)
	}
	return decimal.NewFromInt(80), nil
}

type fakeDelivery struct {
	mu sync.Mutex

	ValidateRecipientFunc func(ctx context.Context, tag string) (bool, error)
	DeliverFunc           func(ctx context.Context, tag string, quantity int64) error

	validateCalls int
	deliverCalls  int
}

func (f *fakeDelivery) ValidateRecipient(ctx context.Context, tag string) (bool, error) {
	f.mu.Lock()
	f.validateCalls++
	f.mu.Unlock()
	if f.ValidateRecipientFunc != nil {
		return f.ValidateRecipientFunc(ctx, tag)
	}
	return true, nil
}

func (f *fakeDelivery) Deliver(ctx context.Context, tag string, quantity int64) error {
	f.mu.Lock()
	f.deliverCalls++
	f.mu.Unlock()
	if f.DeliverFunc != nil {
		return f.DeliverFunc(ctx, tag, quantity)
	}
	return nil
}

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *domain.InlineKeyboardMarkup
}

type fakeTelegram struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeTelegram) SendMessageWithKeyboard(_ context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

func (f *fakeTelegram) AnswerCallbackQuery(context.Context, string, string, bool) error {
	return nil
}

func (f *fakeTelegram) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTelegram) count(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.Text == text {
			n++
		}
	}
	return n
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (f *fakeAlerter) SendAlert(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, message)
	return nil
}

func (f *fakeAlerter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

type fakePublisher struct {
	mu       sync.Mutex
	outcomes []*domain.PurchaseOutcome
}

func (f *fakePublisher) PublishOutcome(_ context.Context, outcome *domain.PurchaseOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeReceipts struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (f *fakeReceipts) PutFile(_ context.Context, path string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = make(map[string][]byte)
	}
	f.files[path] = data
	return nil
}

func (f *fakeReceipts) GetFile(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[path], nil
}

func (f *fakeReceipts) ListFiles(context.Context, string) ([]string, error) { return nil, nil }

func (f *fakeReceipts) GetPresignedURL(context.Context, string, time.Duration) (string, error) {
	return "", nil
}

type testEnv struct {
	svc      *Service
	ledger   *inmemory.Ledger
	sessions *sessionRepo.Repository
	gateway  *fakeGateway
	delivery *fakeDelivery
	tg       *fakeTelegram
	alerter  *fakeAlerter
	events   *fakePublisher
	receipts *fakeReceipts
	clock    *time.Time
}

func testConfig() Config {
	return Config{
		MinStars:        50,
		MaxStars:        1_000_000,
		StarPrice:       decimal.RequireFromString("1.6"),
		Assets:          []string{"USDT", "TON"},
		PaymentWindow:   15 * time.Minute,
		DeliveryTimeout: 5 * time.Second,
		SessionTTL:      time.Hour,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		ledger:   inmemory.NewLedger(),
		sessions: sessionRepo.New(inmemory.NewCache(), time.Hour, log),
		gateway:  &fakeGateway{},
		delivery: &fakeDelivery{},
		tg:       &fakeTelegram{},
		alerter:  &fakeAlerter{},
		events:   &fakePublisher{},
		receipts: &fakeReceipts{},
	}
	env.svc = New(env.ledger, env.sessions, env.gateway, env.delivery, env.tg, env.alerter,
		env.events, env.receipts, testConfig(), log)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.clock = &now
	env.svc.now = func() time.Time { return *env.clock }
	return env
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

func (e *testEnv) state(t *testing.T, userID int64) domain.PurchaseState {
	t.Helper()
	sess, err := e.svc.loadSession(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("loadSession() error = %v", err)
	}
	return sess.State
}

func (e *testEnv) txStatus(t *testing.T, invoiceID string) domain.TransactionStatus {
	t.Helper()
	tx, err := e.ledger.GetByInvoiceID(context.Background(), invoiceID)
	if err != nil {
		t.Fatalf("GetByInvoiceID(%s) error = %v", invoiceID, err)
	}
	return tx.Status
}

// toAwaitingPayment проводит пользователя до выставленного инвойса inv-1
func (e *testEnv) toAwaitingPayment(t *testing.T, userID int64, stars string) {
	t.Helper()
	ctx := context.Background()
	if err := e.svc.StartPurchase(ctx, userID, userID); err != nil {
		t.Fatalf("StartPurchase() error = %v", err)
	}
	if err := e.svc.ProvideQuantity(ctx, userID, userID, stars); err != nil {
		t.Fatalf("ProvideQuantity() error = %v", err)
	}
	if err := e.svc.ConfirmOrder(ctx, userID, userID); err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if err := e.svc.ChooseCurrency(ctx, userID, userID, "usdt"); err != nil {
		t.Fatalf("ChooseCurrency() error = %v", err)
	}
	if got := e.state(t, userID); got != domain.StateAwaitingPayment {
		t.Fatalf("state = %s, want awaiting_payment", got)
	}
}

// toAwaitingRecipient инвойс inv-1 оплачен, бот ждёт username
func (e *testEnv) toAwaitingRecipient(t *testing.T, userID int64) {
	t.Helper()
	e.toAwaitingPayment(t, userID, "100")
	if err := e.svc.ConfirmPayment(context.Background(), "inv-1", domain.ConfirmationSourceWebhook); err != nil {
		t.Fatalf("ConfirmPayment() error = %v", err)
	}
	if got := e.state(t, userID); got != domain.StateAwaitingRecipient {
		t.Fatalf("state = %s, want awaiting_recipient", got)
	}
}
