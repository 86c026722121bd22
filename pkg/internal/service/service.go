// Package service 实现员工与媒体的业务逻辑（事务、文件补偿、事件发布），不处理 HTTP 细节.
package service

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/storage/filestore"
	nlog "github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/metrics"
)

const (
	// sniffLen 与 mimetype 默认读取上限一致.
	sniffLen = 3072

	genericMime = "application/octet-stream"
)

// Upload 待存储的上传文件.
type Upload struct {
	// Name 客户端提供的原始文件名.
	Name string
	// Size 字节数，未知时为 -1.
	Size int64
	// ContentType 客户端声明的类型，为空或通用类型时按内容探测.
	ContentType string
	Reader      io.Reader
}

// sanitizeName 只保留文件名部分，去掉路径与前导点.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.TrimLeft(name, ".")

	if name == "" || name == "/" {
		return "file"
	}

	return name
}

// detectMime 返回文件类型与可继续完整读取的 reader.
// 客户端给出具体的 Content-Type 时直接采用，不做内容嗅探.
// 只有缺失或为 application/octet-stream 时才用 mimetype 检测.
func detectMime(up *Upload) (string, io.Reader, error) {
	ct := strings.TrimSpace(up.ContentType)
	if ct != "" && ct != genericMime {
		return ct, up.Reader, nil
	}

	head := make([]byte, sniffLen)

	n, err := io.ReadFull(up.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}

	head = head[:n]

	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), up.Reader), nil
}

// stage 记录事务中已写入存储的文件，回滚时删除.
type stage struct {
	keys []string
}

func (s *stage) add(key string) {
	s.keys = append(s.keys, key)
}

// runTx 在事务中执行 fn. 任何失败都会回滚、删除暂存文件，并返回 *errs.TransactionError.
func runTx(ctx context.Context, db *gorm.DB, files filestore.Store, op string, fn func(tx *gorm.DB, st *stage) error) error {
	st := &stage{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, st)
	})
	if err != nil {
		compensate(ctx, files, op, st.keys)
		return errs.Transaction(op, err)
	}

	return nil
}

// compensate 尽力删除暂存文件，失败只记录日志与指标，不覆盖原始错误.
func compensate(ctx context.Context, files filestore.Store, op string, keys []string) {
	if len(keys) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)

	for _, key := range keys {
		if err := files.Delete(ctx, key); err != nil {
			metrics.CompensationFailures.Inc()
			nlog.Ctx(ctx).Warn().Err(err).Str("op", op).Str("file", key).Msg("回滚后删除暂存文件失败")

			continue
		}

		nlog.Ctx(ctx).Warn().Str("op", op).Str("file", key).Msg("事务回滚，已删除暂存文件")
	}
}
