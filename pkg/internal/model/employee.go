package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/rule"
)

// Status 员工雇佣状态，封闭集合，存储为小写文本.
type Status string

const (
	StatusKontrak   Status = "kontrak"
	StatusTetap     Status = "tetap"
	StatusProbation Status = "probation"
)

// Statuses 按声明顺序列出全部状态，排序使用该顺序.
var Statuses = []Status{StatusKontrak, StatusTetap, StatusProbation}

// ErrUnknownStatus 无法识别的状态值.
var ErrUnknownStatus = errors.New("unknown status")

// ParseStatus 忽略大小写与首尾空白解析状态.
func ParseStatus(s string) (Status, error) {
	v := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if v == st {
			return st, nil
		}
	}

	return "", fmt.Errorf("%w %q", ErrUnknownStatus, s)
}

// Ordinal 返回状态的声明序号，未知状态为 -1.
func (s Status) Ordinal() int {
	for i, st := range Statuses {
		if s == st {
			return i
		}
	}

	return -1
}

func (s Status) String() string {
	return string(s)
}

// Employee 员工记录.
type Employee struct {
	ID         uint      `gorm:"primaryKey"                     json:"id"`
	Name       string    `gorm:"size:255;not null;index"        json:"name"       rule:"required,min=4"`
	No         string    `gorm:"column:no;size:64;not null"     json:"no"         rule:"required,alphanum"`
	Position   string    `gorm:"size:255;not null"              json:"position"   rule:"required"`
	Department string    `gorm:"size:255;not null;index"        json:"department" rule:"required"`
	JoinDate   Date      `gorm:"column:join_date;not null"      json:"join_date"`
	Photo      *string   `gorm:"size:512"                       json:"photo"`
	Status     Status    `gorm:"size:16;not null;index"         json:"status"     rule:"required,oneof=kontrak tetap probation"`
	CreatedAt  time.Time `gorm:"column:created_at;index"        json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"              json:"updated_at"`
}

// TableName 指定表名.
func (Employee) TableName() string {
	return "employees"
}

// Validate 在任何写入之前校验记录，失败时返回 *errs.ValidationError.
func (e *Employee) Validate() error {
	fields := map[string]string{}

	if err := rule.Check(e); err != nil {
		var ve *errs.ValidationError
		if !errors.As(err, &ve) {
			return err
		}

		fields = ve.Fields
	}

	if e.JoinDate.IsZero() {
		fields["join_date"] = "is required"
	}

	if len(fields) > 0 {
		return errs.Validation(fields)
	}

	return nil
}

// FoldLineBreaks 把文本字段里的 \r\n 折叠为 \n，
// 存储的值与 CSV 导出后再读回的值保持一致.
func (e *Employee) FoldLineBreaks() {
	for _, f := range []*string{&e.Name, &e.No, &e.Position, &e.Department} {
		for strings.Contains(*f, "\r\n") {
			*f = strings.ReplaceAll(*f, "\r\n", "\n")
		}
	}
}

// PhotoName 返回照片文件名，未设置时为空串.
func (e *Employee) PhotoName() string {
	if e.Photo == nil {
		return ""
	}

	return *e.Photo
}
