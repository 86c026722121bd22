// Package errs 定义业务错误分类，所有错误均可通过 errors.Is / errors.As 识别.
//
// HTTP 层按分类映射状态码：
//
//	ValidationError       -> 400
//	ErrInvalidArgument    -> 400
//	ParseError            -> 400
//	ErrNotFound           -> 404
//	ErrStorageInconsistency -> 500
//	TransactionError      -> 500
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound 记录或文件不存在.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument 调用方传入了矛盾或不完整的参数.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageInconsistency 媒体登记存在但文件缺失.
	ErrStorageInconsistency = errors.New("storage inconsistency")
	// ErrTransactionFailure 事务回滚或提交失败.
	ErrTransactionFailure = errors.New("transaction failure")
)

// NotFound 返回包装了 ErrNotFound 的错误.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidArgument 返回包装了 ErrInvalidArgument 的错误.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}

// StorageInconsistency 返回包装了 ErrStorageInconsistency 的错误.
func StorageInconsistency(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrStorageInconsistency)
}

// ValidationError 字段级校验失败，Fields 为 字段名 -> 可读信息.
type ValidationError struct {
	Fields map[string]string
}

// Validation 构造 ValidationError.
func Validation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Field 构造只包含一个字段的 ValidationError.
func Field(name, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{name: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// ParseError CSV 解析错误. Row 从第一条数据行起算 1，表头错误时为 0.
type ParseError struct {
	Row    int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Row == 0 && e.Column != "":
		return fmt.Sprintf("header: column %q: %v", e.Column, e.Err)
	case e.Row == 0:
		return fmt.Sprintf("header: %v", e.Err)
	case e.Column != "":
		return fmt.Sprintf("row %d: column %q: %v", e.Row, e.Column, e.Err)
	default:
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransactionError 事务失败，Op 为发生失败的写操作.
// errors.Is(err, ErrTransactionFailure) 恒为真，同时保留底层原因.
type TransactionError struct {
	Op  string
	Err error
}

// Transaction 包装事务失败原因，nil 原样返回.
func Transaction(op string, err error) error {
	if err == nil {
		return nil
	}

	var te *TransactionError
	if errors.As(err, &te) {
		return err
	}

	return &TransactionError{Op: op, Err: err}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: transaction rolled back: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() []error {
	return []error{ErrTransactionFailure, e.Err}
}
