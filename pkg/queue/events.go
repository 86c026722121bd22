package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/employeeman/pkg/configs"
	nlog "github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/tracing"
)

// Events 是服务层发布领域事件的入口.
// 发布失败只记录日志，不影响已提交的写操作.
type Events interface {
	EmployeeCreated(ctx context.Context, p EmployeePayload)
	EmployeeUpdated(ctx context.Context, p EmployeePayload)
	EmployeeDeleted(ctx context.Context, p EmployeeDeletedPayload)
	EmployeesImported(ctx context.Context, p EmployeesImportedPayload)
	MediaStored(ctx context.Context, p MediaPayload)
	MediaDeleted(ctx context.Context, p MediaDeletedPayload)
}

// Publisher 基于 watermill Publisher 的 Events 实现，按配置开关过滤主题.
type Publisher struct {
	pub      message.Publisher
	cfg      configs.EventsConfig
	producer string
}

var _ Events = (*Publisher)(nil)

// NewPublisher 创建事件发布器，pub 为 nil 时所有事件被丢弃.
func NewPublisher(pub message.Publisher, cfg configs.EventsConfig) *Publisher {
	return &Publisher{pub: pub, cfg: cfg, producer: "employeeman"}
}

func (p *Publisher) EmployeeCreated(ctx context.Context, payload EmployeePayload) {
	publish(ctx, p, p.cfg.Employee.Created, TopicEmployeeCreated, payload)
}

func (p *Publisher) EmployeeUpdated(ctx context.Context, payload EmployeePayload) {
	publish(ctx, p, p.cfg.Employee.Updated, TopicEmployeeUpdated, payload)
}

func (p *Publisher) EmployeeDeleted(ctx context.Context, payload EmployeeDeletedPayload) {
	publish(ctx, p, p.cfg.Employee.Deleted, TopicEmployeeDeleted, payload)
}

func (p *Publisher) EmployeesImported(ctx context.Context, payload EmployeesImportedPayload) {
	publish(ctx, p, p.cfg.Employee.Imported, TopicEmployeeImported, payload)
}

func (p *Publisher) MediaStored(ctx context.Context, payload MediaPayload) {
	publish(ctx, p, p.cfg.Media.Stored, TopicMediaStored, payload)
}

func (p *Publisher) MediaDeleted(ctx context.Context, payload MediaDeletedPayload) {
	publish(ctx, p, p.cfg.Media.Deleted, TopicMediaDeleted, payload)
}

func publish[T any](ctx context.Context, p *Publisher, enabled bool, topic string, payload T) {
	if p == nil || p.pub == nil || !p.cfg.Enabled || !enabled {
		return
	}

	msg, err := NewWatermillMessage(topic, payload,
		WithTraceID(tracing.TraceID(ctx)),
		WithProducer(p.producer),
	)
	if err != nil {
		nlog.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("编码领域事件失败")
		return
	}

	msg.SetContext(ctx)

	if err := p.pub.Publish(topic, msg); err != nil {
		nlog.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("发布领域事件失败")
		return
	}

	nlog.Ctx(ctx).Debug().Str("topic", topic).Str("msg_id", msg.UUID).Msg("领域事件已发布")
}

// Nop 丢弃所有事件.
type Nop struct{}

func (Nop) EmployeeCreated(context.Context, EmployeePayload)            {}
func (Nop) EmployeeUpdated(context.Context, EmployeePayload)            {}
func (Nop) EmployeeDeleted(context.Context, EmployeeDeletedPayload)     {}
func (Nop) EmployeesImported(context.Context, EmployeesImportedPayload) {}
func (Nop) MediaStored(context.Context, MediaPayload)                   {}
func (Nop) MediaDeleted(context.Context, MediaDeletedPayload)           {}
