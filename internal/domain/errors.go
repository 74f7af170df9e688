package domain

import (
	"errors"
	"fmt"
)

// BusinessError ошибка бизнес-логики, которая уже залогирована в UseCase
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

// Ошибки пользовательского ввода: исправляются повторным вводом
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity", ErrInvalidInput)
	ErrInvalidCurrency  = fmt.Errorf("%w: currency", ErrInvalidInput)
	ErrInvalidRecipient = fmt.Errorf("%w: recipient", ErrInvalidInput)
	ErrUnexpectedEvent  = fmt.Errorf("%w: event is not allowed in current state", ErrInvalidInput)
)

// Ошибки внешних сервисов и нарушения контракта леджера
var (
	ErrGatewayUnavailable  = errors.New("gateway unavailable")
	ErrDeliveryFailed      = errors.New("delivery failed")
	ErrDuplicateInvoice    = errors.New("duplicate invoice")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrSignatureMismatch   = errors.New("signature mismatch")
	ErrSessionNotFound     = errors.New("session not found")
)

// IsInvalidInput true для ошибок, после которых пользователя нужно попросить повторить ввод
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsLedgerViolation true для нарушений инвариантов леджера (логируются как error и алертятся)
func IsLedgerViolation(err error) bool {
	return errors.Is(err, ErrDuplicateInvoice) || errors.Is(err, ErrInvalidTransition)
}
