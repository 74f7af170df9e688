package purchase

import (
	"errors"
	"testing"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		state   domain.PurchaseState
		event   Event
		next    domain.PurchaseState
		wantErr bool
	}{
		{name: "start from idle", state: domain.StateIdle, event: EventStart, next: domain.StateSelectingQuantity},
		{name: "quantity", state: domain.StateSelectingQuantity, event: EventQuantityProvided, next: domain.StateConfirmingOrder},
		{name: "confirm", state: domain.StateConfirmingOrder, event: EventConfirm, next: domain.StateSelectingCurrency},
		{name: "invoice issued", state: domain.StateSelectingCurrency, event: EventCurrencyChosen, next: domain.StateAwaitingPayment},
		{name: "gateway failed", state: domain.StateSelectingCurrency, event: EventCurrencyChosen, next: domain.StateFailed},
		{name: "paid", state: domain.StateAwaitingPayment, event: EventPaymentConfirmed, next: domain.StateAwaitingRecipient},
		{name: "late payment without session", state: domain.StateIdle, event: EventPaymentConfirmed, next: domain.StateAwaitingRecipient},
		{name: "timeout", state: domain.StateAwaitingPayment, event: EventTimeout, next: domain.StateCancelled},
		{name: "delivered", state: domain.StateAwaitingRecipient, event: EventRecipientProvided, next: domain.StateSuccess},
		{name: "refunded", state: domain.StateAwaitingRecipient, event: EventRecipientProvided, next: domain.StateRefunded},
		{name: "invalid recipient stays", state: domain.StateAwaitingRecipient, event: EventRecipientProvided, next: domain.StateAwaitingRecipient},

		{name: "cancel after payment", state: domain.StateAwaitingRecipient, event: EventCancel, next: domain.StateCancelled, wantErr: true},
		{name: "restart after payment", state: domain.StateAwaitingRecipient, event: EventStart, next: domain.StateSelectingQuantity, wantErr: true},
		{name: "skip confirmation", state: domain.StateSelectingQuantity, event: EventCurrencyChosen, next: domain.StateAwaitingPayment, wantErr: true},
		{name: "wrong target", state: domain.StateConfirmingOrder, event: EventConfirm, next: domain.StateAwaitingPayment, wantErr: true},
		{name: "timeout before invoice", state: domain.StateSelectingCurrency, event: EventTimeout, next: domain.StateCancelled, wantErr: true},
		{name: "from terminal", state: domain.StateSuccess, event: EventStart, next: domain.StateSelectingQuantity, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transition(tt.state, tt.event, tt.next)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Transition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, domain.ErrUnexpectedEvent) {
				t.Fatalf("expected ErrUnexpectedEvent, got %v", err)
			}
		})
	}
}

func TestTransitions_TerminalStatesHaveNoEdges(t *testing.T) {
	for state := range transitions {
		if state.IsTerminal() {
			t.Errorf("terminal state %s has outgoing transitions", state)
		}
	}
}
