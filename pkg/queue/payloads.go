package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID，来自请求上下文中的 span.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// EmployeePayload 员工记录快照，用于 created / updated.
type EmployeePayload struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	No         string  `json:"no"`
	Position   string  `json:"position"`
	Department string  `json:"department"`
	JoinDate   string  `json:"join_date"`
	Status     string  `json:"status"`
	Photo      *string `json:"photo,omitempty"`
}

// EmployeeDeletedPayload 员工被删除.
type EmployeeDeletedPayload struct {
	ID uint `json:"id"`
}

// EmployeesImportedPayload CSV 导入已提交.
type EmployeesImportedPayload struct {
	ReportID string `json:"report_id"`
	Rows     int    `json:"rows"`
}

// MediaPayload 媒体登记行快照.
type MediaPayload struct {
	UUID       string  `json:"uuid"`
	FileName   string  `json:"file_name"`
	Name       string  `json:"name"`
	MimeType   string  `json:"mime_type"`
	Disk       string  `json:"disk"`
	Size       int64   `json:"size"`
	OwnerType  *string `json:"owner_type,omitempty"`
	OwnerID    *uint   `json:"owner_id,omitempty"`
	Collection *string `json:"collection,omitempty"`
}

// MediaDeletedPayload 一次删除操作移除的文件.
type MediaDeletedPayload struct {
	FileNames []string `json:"file_names"`
}
