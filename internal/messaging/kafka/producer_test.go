package kafka

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func newTestProducer(t *testing.T) (*Producer, *mocks.SyncProducer) {
	t.Helper()
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}
	return producer, mockProducer
}

func TestProducer_PublishEvent(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var sent map[string]interface{}
		if err := json.Unmarshal(value, &sent); err != nil {
			return err
		}
		if sent["event_type"] != domain.EventTypeOrderCreated {
			return fmt.Errorf("unexpected event_type %v", sent["event_type"])
		}
		if sent["order_number"] != "ORD-000001" {
			return fmt.Errorf("unexpected order_number %v", sent["order_number"])
		}
		return nil
	})

	event := map[string]interface{}{
		"event_type":   domain.EventTypeOrderCreated,
		"order_id":     "order-1",
		"order_number": "ORD-000001",
		"customer_id":  "cust-1",
		"amount_minor": 2500,
	}
	if err := producer.PublishEvent(TopicOrderEvents, "order-1", event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_BrokerError(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := map[string]interface{}{
		"event_type": domain.EventTypeOrderCancelled,
		"order_id":   "order-1",
	}
	if err := producer.PublishEvent(TopicOrderEvents, "order-1", event); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_MarshalError(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	if err := producer.PublishEvent(TopicOrderEvents, "order-1", func() {}); err == nil {
		t.Fatal("expected marshal error for unserializable event")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}
