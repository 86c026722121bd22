package mq_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/employeeman/pkg/internal/mq"
	mqc "github.com/yeisme/employeeman/pkg/internal/storage/mq"
	"github.com/yeisme/employeeman/pkg/queue"
)

func TestNewLogConsumerRequiresClient(t *testing.T) {
	if _, err := mq.NewLogConsumer(nil, queue.AllTopics); err == nil {
		t.Fatal("nil client accepted")
	}

	ps := mqc.NewMemoryPubSub(8, nil)
	client := mqc.NewWithPubSub(ps, ps)

	if _, err := mq.NewLogConsumer(client, nil); err == nil {
		t.Fatal("empty topics accepted")
	}
}

// TestLogConsumerReceivesEvents 合法事件计入 Received，坏消息被确认并计入 Rejected.
func TestLogConsumerReceivesEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := mqc.NewMemoryPubSub(8, nil)
	client := mqc.NewWithPubSub(ps, ps)

	consumer, err := mq.NewLogConsumer(client, queue.AllTopics)
	if err != nil {
		t.Fatalf("NewLogConsumer: %v", err)
	}

	done := make(chan error, 1)

	go func() { done <- consumer.Run(ctx) }()

	select {
	case <-consumer.Running():
	case <-ctx.Done():
		t.Fatal("consumer did not start")
	}

	msg, err := queue.NewWatermillMessage(queue.TopicEmployeeDeleted, queue.EmployeeDeletedPayload{ID: 7})
	if err != nil {
		t.Fatalf("NewWatermillMessage: %v", err)
	}

	if err := client.Publish(ctx, queue.TopicEmployeeDeleted, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	bad := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	if err := client.Publish(ctx, queue.TopicMediaStored, bad); err != nil {
		t.Fatalf("Publish bad: %v", err)
	}

	for consumer.Received() < 1 || consumer.Rejected() < 1 {
		select {
		case <-ctx.Done():
			t.Fatalf("received=%d rejected=%d", consumer.Received(), consumer.Rejected())
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := consumer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
