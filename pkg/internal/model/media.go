package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// OwnerKind 媒体所属记录的类型，封闭集合.
// 新的实体类型需要在这里声明并加入 ParseOwnerKind，上传与删除接口才会接受.
type OwnerKind string

const (
	OwnerEmployee OwnerKind = "employee"
)

// ParseOwnerKind 解析所属类型字符串.
func ParseOwnerKind(s string) (OwnerKind, error) {
	switch OwnerKind(s) {
	case OwnerEmployee:
		return OwnerEmployee, nil
	default:
		return "", fmt.Errorf("unknown owner type %q", s)
	}
}

// OwnerRef 指向拥有媒体的记录.
type OwnerRef struct {
	Kind OwnerKind
	ID   uint
}

// EmployeeOwner 返回员工记录的 OwnerRef.
func EmployeeOwner(id uint) *OwnerRef {
	return &OwnerRef{Kind: OwnerEmployee, ID: id}
}

// CollectionEmployee 员工照片所在的集合名.
const CollectionEmployee = "employee"

// Media 媒体登记记录，file_name 同时是文件存储中的 key.
type Media struct {
	ID                   uint              `gorm:"primaryKey"                             json:"id"`
	OwnerType            *string           `gorm:"column:model_type;size:64;index:idx_media_owner" json:"model_type"`
	OwnerID              *uint             `gorm:"column:model_id;index:idx_media_owner"  json:"model_id"`
	UUID                 string            `gorm:"column:uuid;size:36;uniqueIndex"        json:"uuid"`
	CollectionName       *string           `gorm:"column:collection_name;size:255"        json:"collection_name"`
	Name                 string            `gorm:"size:255;not null"                      json:"name"`
	FileName             string            `gorm:"column:file_name;size:512;uniqueIndex"  json:"file_name"`
	MimeType             string            `gorm:"column:mime_type;size:255"              json:"mime_type"`
	Disk                 string            `gorm:"size:32;not null"                       json:"disk"`
	ConversionsDisk      *string           `gorm:"column:conversions_disk;size:32"        json:"conversions_disk"`
	Size                 int64             `gorm:"not null"                               json:"size"`
	Manipulations        datatypes.JSONMap `gorm:"not null"                               json:"manipulations"`
	CustomProperties     datatypes.JSONMap `gorm:"column:custom_properties;not null"      json:"custom_properties"`
	GeneratedConversions datatypes.JSONMap `gorm:"column:generated_conversions;not null"  json:"generated_conversions"`
	ResponsiveImages     datatypes.JSONMap `gorm:"column:responsive_images;not null"      json:"responsive_images"`
	OrderColumn          *int              `gorm:"column:order_column;index"              json:"order_column"`
	CreatedAt            time.Time         `gorm:"column:created_at"                      json:"created_at"`
	UpdatedAt            time.Time         `gorm:"column:updated_at"                      json:"updated_at"`
}

// TableName 指定表名.
func (Media) TableName() string {
	return "media"
}

// Owner 返回 OwnerRef，未关联记录时为 nil.
func (m *Media) Owner() *OwnerRef {
	if m.OwnerType == nil || m.OwnerID == nil {
		return nil
	}

	return &OwnerRef{Kind: OwnerKind(*m.OwnerType), ID: *m.OwnerID}
}

// SetOwner 写入所属记录，nil 表示无所属.
func (m *Media) SetOwner(ref *OwnerRef) {
	if ref == nil {
		m.OwnerType, m.OwnerID = nil, nil
		return
	}

	kind, id := string(ref.Kind), ref.ID
	m.OwnerType, m.OwnerID = &kind, &id
}

// EnsureMaps 把空的 JSON 字段补为 {}.
func (m *Media) EnsureMaps() {
	for _, p := range []*datatypes.JSONMap{&m.Manipulations, &m.CustomProperties, &m.GeneratedConversions, &m.ResponsiveImages} {
		if *p == nil {
			*p = datatypes.JSONMap{}
		}
	}
}

// Models 返回需要迁移的全部模型.
func Models() []any {
	return []any{&Employee{}, &Media{}}
}
