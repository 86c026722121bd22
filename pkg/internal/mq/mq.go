// Package mq 消费领域事件. 目前提供日志消费者：订阅给定主题，
// 把事件头与负载写入结构化日志，便于在没有下游系统时观察事件流.
//
// 使用示例：
//
//	consumer, err := mq.NewLogConsumer(client, queue.AllTopics)
//	if err != nil {
//		return err
//	}
//	go consumer.Run(ctx)
//	<-consumer.Running()
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	mqc "github.com/yeisme/employeeman/pkg/internal/storage/mq"
	nlog "github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/queue"
)

// LogConsumer 把收到的领域事件写入日志.
type LogConsumer struct {
	router *message.Router
	logger *zerolog.Logger

	received atomic.Int64
	rejected atomic.Int64
}

// NewLogConsumer 为每个主题注册一个处理器，topics 为空时返回错误.
func NewLogConsumer(client *mqc.Client, topics []string) (*LogConsumer, error) {
	if err := client.HealthCheck(context.Background()); err != nil {
		return nil, err
	}

	if len(topics) == 0 {
		return nil, errors.New("no topics to consume")
	}

	router, err := client.NewRouter()
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(middleware.Recoverer)

	c := &LogConsumer{router: router, logger: nlog.Logger()}

	for _, topic := range topics {
		router.AddNoPublisherHandler("log."+topic, topic, client.Subscriber(), c.Handle)
	}

	return c, nil
}

// Run 阻塞运行直到 ctx 取消或 Close.
func (c *LogConsumer) Run(ctx context.Context) error {
	if err := c.router.Run(ctx); err != nil {
		return fmt.Errorf("event consumer: %w", err)
	}

	return nil
}

// Running 在全部订阅就绪后关闭.
func (c *LogConsumer) Running() chan struct{} {
	return c.router.Running()
}

// Close 停止消费.
func (c *LogConsumer) Close() error {
	return c.router.Close()
}

// Received 已记录的事件数.
func (c *LogConsumer) Received() int64 { return c.received.Load() }

// Rejected 无法解码而丢弃的消息数.
func (c *LogConsumer) Rejected() int64 { return c.rejected.Load() }

// Handle 记录一条事件. 无法解码的消息记一条警告后确认，避免反复投递.
func (c *LogConsumer) Handle(msg *message.Message) error {
	env, err := queue.ParseWatermillMessage[json.RawMessage](msg)
	if err != nil || env.Header.Topic == "" {
		c.rejected.Add(1)
		c.logger.Warn().Err(err).Str("uuid", msg.UUID).Msg("丢弃无法解码的事件")

		return nil
	}

	c.received.Add(1)

	if len(env.Payload) == 0 {
		env.Payload = json.RawMessage("null")
	}

	c.logger.Info().
		Str("uuid", msg.UUID).
		Str("topic", env.Header.Topic).
		Str("trace_id", env.Header.TraceID).
		Str("producer", env.Header.Producer).
		Str("version", env.Header.Version).
		Time("occurred_at", env.Header.OccurredAt).
		RawJSON("payload", env.Payload).
		Msg("domain event")

	return nil
}
