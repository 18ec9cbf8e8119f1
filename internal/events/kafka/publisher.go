package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/models/events"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	topic  string
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same client, same partition
		RequiredAcks: kafka.RequireAll,
	}, topic)
}

func newPublisher(w messageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

// PublishSnapshots sends one AccountSnapshotted event per account, keyed by
// client, in a single batch.
func (p *Publisher) PublishSnapshots(ctx context.Context, runID uuid.UUID, accounts []models.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	now := time.Now().UTC()
	msgs := make([]kafka.Message, 0, len(accounts))
	for _, acc := range accounts {
		data, err := json.Marshal(events.AccountSnapshotted{
			RunID:      runID.String(),
			Client:     uint16(acc.Client),
			Available:  acc.Available,
			Held:       acc.Held,
			Total:      acc.Total,
			Locked:     acc.Locked,
			OccurredAt: now,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(acc.Client.String()), Value: data})
	}

	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Topic() string {
	return p.topic
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.SnapshotPublisher = (*Publisher)(nil)
