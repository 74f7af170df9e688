package purchase

import (
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

// Event событие диалога покупки
type Event string

const (
	EventStart             Event = "start"
	EventQuantityProvided  Event = "quantity_provided"
	EventConfirm           Event = "confirm"
	EventCancel            Event = "cancel"
	EventCurrencyChosen    Event = "currency_chosen"
	EventPaymentConfirmed  Event = "payment_confirmed"
	EventCheckPayment      Event = "check_payment"
	EventRecipientProvided Event = "recipient_provided"
	EventTimeout           Event = "timeout"
)

type edges map[Event][]domain.PurchaseState

// transitions (состояние, событие) → допустимые следующие состояния.
// Несколько целей - исход зависит от внешнего вызова (шлюз, доставка).
// Пары, которых нет в таблице, отклоняются.
var transitions = map[domain.PurchaseState]edges{
	domain.StateIdle: {
		EventStart:            {domain.StateSelectingQuantity},
		EventPaymentConfirmed: {domain.StateAwaitingRecipient},
	},
	domain.StateSelectingQuantity: {
		EventStart:            {domain.StateSelectingQuantity},
		EventQuantityProvided: {domain.StateConfirmingOrder},
		EventCancel:           {domain.StateCancelled},
		EventPaymentConfirmed: {domain.StateAwaitingRecipient},
	},
	domain.StateConfirmingOrder: {
		EventStart:            {domain.StateSelectingQuantity},
		EventConfirm:          {domain.StateSelectingCurrency},
		EventCancel:           {domain.StateCancelled},
		EventPaymentConfirmed: {domain.StateAwaitingRecipient},
	},
	domain.StateSelectingCurrency: {
		EventStart:            {domain.StateSelectingQuantity},
		EventCurrencyChosen:   {domain.StateAwaitingPayment, domain.StateFailed},
		EventCancel:           {domain.StateCancelled},
		EventPaymentConfirmed: {domain.StateAwaitingRecipient},
	},
	domain.StateAwaitingPayment: {
		EventStart:            {domain.StateSelectingQuantity},
		EventCheckPayment:     {domain.StateAwaitingPayment, domain.StateAwaitingRecipient},
		EventPaymentConfirmed: {domain.StateAwaitingRecipient},
		EventCancel:           {domain.StateCancelled},
		EventTimeout:          {domain.StateCancelled},
	},
	// оплата уже получена: отменить или начать заново нельзя, только ввести получателя
	domain.StateAwaitingRecipient: {
		EventRecipientProvided: {
			domain.StateAwaitingRecipient,
			domain.StateSuccess,
			domain.StateRefunded,
			domain.StateFailed,
		},
	},
}

// Allowed есть ли у состояния переход по событию
func Allowed(state domain.PurchaseState, event Event) bool {
	_, ok := transitions[state][event]
	return ok
}

// Transition проверяет ребро state --event--> next
func Transition(state domain.PurchaseState, event Event, next domain.PurchaseState) error {
	targets, ok := transitions[state][event]
	if !ok {
		return fmt.Errorf("%w: %s in %s", domain.ErrUnexpectedEvent, event, state)
	}
	for _, t := range targets {
		if t == next {
			return nil
		}
	}
	return fmt.Errorf("%w: %s --%s--> %s", domain.ErrUnexpectedEvent, state, event, next)
}
