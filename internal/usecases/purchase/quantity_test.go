package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
	"github.com/shopspring/decimal"
)

func TestService_ProvideQuantityBounds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "lower bound", input: "50"},
		{name: "upper bound", input: "1000000"},
		{name: "spaces", input: " 100 "},
		{name: "below min", input: "49", wantErr: true},
		{name: "above max", input: "1000001", wantErr: true},
		{name: "negative", input: "-100", wantErr: true},
		{name: "fraction", input: "100.5", wantErr: true},
		{name: "text", input: "сто", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)
			if err := env.svc.StartPurchase(ctx, 1, 1); err != nil {
				t.Fatalf("StartPurchase() error = %v", err)
			}

			err := env.svc.ProvideQuantity(ctx, 1, 1, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ProvideQuantity() error = %v, wantErr %v", err, tt.wantErr)
			}

			want := domain.StateConfirmingOrder
			if tt.wantErr {
				want = domain.StateSelectingQuantity
				if !errors.Is(err, domain.ErrInvalidQuantity) {
					t.Fatalf("expected ErrInvalidQuantity, got %v", err)
				}
				if !domain.IsBusinessError(err) {
					t.Fatalf("expected business error, got %T", err)
				}
			}
			if got := env.state(t, 1); got != want {
				t.Fatalf("state = %s, want %s", got, want)
			}
		})
	}
}

func TestService_OrderCost(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.svc.StartPurchase(ctx, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := env.svc.ProvideQuantity(ctx, 1, 1, "100"); err != nil {
		t.Fatal(err)
	}

	sess, err := env.sessions.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !sess.Amount.Equal(decimal.RequireFromString("160")) {
		t.Fatalf("amount = %s, want 160", sess.Amount)
	}
	if msg := env.tg.last(); msg.Text != texts.FormatConfirmOrder(100, sess.Amount, "RUB") || msg.Keyboard == nil {
		t.Fatalf("unexpected confirmation message: %+v", msg)
	}
}

func TestService_StartPurchaseResetsUnpaidSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.toAwaitingPayment(t, 1, "100")

	if err := env.svc.StartPurchase(ctx, 1, 1); err != nil {
		t.Fatalf("StartPurchase() error = %v", err)
	}
	sess, err := env.sessions.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sess.State != domain.StateSelectingQuantity || sess.InvoiceID != "" || sess.Stars != 0 {
		t.Fatalf("session not reset: %+v", sess)
	}
	// неоплаченный инвойс в леджере остаётся
	if got := env.txStatus(t, "inv-1"); got != domain.TransactionStatusCreated {
		t.Fatalf("status = %s, want created", got)
	}
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("before payment", func(t *testing.T) {
		env := newTestEnv(t)
		env.toAwaitingPayment(t, 1, "100")

		if err := env.svc.Cancel(ctx, 1, 1); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if got := env.state(t, 1); got != domain.StateIdle {
			t.Fatalf("state = %s, want idle", got)
		}
		if got := env.txStatus(t, "inv-1"); got != domain.TransactionStatusCreated {
			t.Fatalf("status = %s, want created", got)
		}
		if env.tg.last().Text != texts.OrderCancelled {
			t.Fatalf("last message = %q", env.tg.last().Text)
		}
	})

	t.Run("after payment rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.toAwaitingRecipient(t, 1)

		err := env.svc.Cancel(ctx, 1, 1)
		if !errors.Is(err, domain.ErrUnexpectedEvent) {
			t.Fatalf("expected ErrUnexpectedEvent, got %v", err)
		}
		if got := env.state(t, 1); got != domain.StateAwaitingRecipient {
			t.Fatalf("state = %s, want awaiting_recipient", got)
		}
		if env.tg.last().Text != texts.FinishCurrentPurchase {
			t.Fatalf("last message = %q", env.tg.last().Text)
		}
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.svc.Cancel(ctx, 1, 1); err == nil {
			t.Fatal("expected error")
		}
		if env.tg.last().Text != texts.NothingToCancel {
			t.Fatalf("last message = %q", env.tg.last().Text)
		}
	})
}
