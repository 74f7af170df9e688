package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_PublishOutcome(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "outcomes" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "inv-42" {
			return errors.New("unexpected key " + string(key))
		}
		raw, _ := msg.Value.Encode()
		var got domain.PurchaseOutcome
		if err := json.Unmarshal(raw, &got); err != nil {
			return err
		}
		if got.Status != domain.TransactionStatusCompleted || got.Stars != 100 {
			return errors.New("unexpected payload " + string(raw))
		}
		for _, h := range msg.Headers {
			if string(h.Key) == "event_type" && string(h.Value) == "purchase_completed" {
				return nil
			}
		}
		return errors.New("event_type header missing")
	})

	p := NewProducerWith(mock, "outcomes", testLogger())
	err := p.PublishOutcome(context.Background(), &domain.PurchaseOutcome{
		TransactionID: uuid.New(),
		UserID:        1,
		InvoiceID:     "inv-42",
		Stars:         100,
		Amount:        decimal.RequireFromString("160"),
		Status:        domain.TransactionStatusCompleted,
		OccurredAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("PublishOutcome() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestProducer_PublishOutcome_SendError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWith(mock, "outcomes", testLogger())
	err := p.PublishOutcome(context.Background(), &domain.PurchaseOutcome{InvoiceID: "inv-1", Status: domain.TransactionStatusRefunded})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
	_ = p.Close()
}
