package notification

import (
	"context"
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/cryptobot"
	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

type fakeConfirmer struct {
	invoices []string
	err      error
}

func (f *fakeConfirmer) ConfirmPayment(_ context.Context, invoiceID string, source domain.ConfirmationSource) error {
	if source != domain.ConfirmationSourceWebhook {
		return errors.New("unexpected source")
	}
	f.invoices = append(f.invoices, invoiceID)
	return f.err
}

const paidBody = `{"update_id":7,"update_type":"invoice_paid","payload":{"invoice_id":42,"status":"paid"}}`

func TestService_HandlePaymentNotification(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		signature     func(body string) string
		wantErr       error
		wantConfirmed int
	}{
		{
			name:          "valid paid",
			body:          paidBody,
			signature:     func(b string) string { return cryptobot.Sign("token", []byte(b)) },
			wantConfirmed: 1,
		},
		{
			name:      "wrong signature",
			body:      paidBody,
			signature: func(b string) string { return cryptobot.Sign("attacker", []byte(b)) },
			wantErr:   domain.ErrSignatureMismatch,
		},
		{
			name:      "missing signature",
			body:      paidBody,
			signature: func(string) string { return "" },
			wantErr:   domain.ErrSignatureMismatch,
		},
		{
			name:      "malformed body",
			body:      `{"update_type":`,
			signature: func(b string) string { return cryptobot.Sign("token", []byte(b)) },
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "other update type",
			body:      `{"update_id":8,"update_type":"something_else","payload":{}}`,
			signature: func(b string) string { return cryptobot.Sign("token", []byte(b)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmer := &fakeConfirmer{}
			s := New(cryptobot.NewWebhookVerifier("token"), confirmer, slog.New(slog.NewTextHandler(io.Discard, nil)))

			err := s.HandlePaymentNotification(context.Background(), []byte(tt.body), tt.signature(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(confirmer.invoices) != tt.wantConfirmed {
				t.Fatalf("confirmed = %v, want %d", confirmer.invoices, tt.wantConfirmed)
			}
		})
	}
}
