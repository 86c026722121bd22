// Package handle 提供 HTTP 请求处理器，负责参数绑定、调用业务服务以及错误到状态码的映射.
package handle

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/employeeman/pkg/context"
	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/log"
)

// services 从请求上下文获取业务服务，缺失时直接写出 503.
func services(c *gin.Context) (*service.Services, bool) {
	svc := ctxPkg.GetServices(c.Request.Context())
	if svc == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "services not initialized"})
		return nil, false
	}

	return svc, true
}

// ErrorStatus 返回错误对应的 HTTP 状态码与响应体.
func ErrorStatus(err error) (int, gin.H) {
	var (
		pe *errs.ParseError
		ve *errs.ValidationError
		mb *http.MaxBytesError
	)

	status := http.StatusInternalServerError
	body := gin.H{}

	switch {
	case errors.As(err, &pe):
		status = http.StatusBadRequest
		body["row"] = pe.Row

		if pe.Column != "" {
			body["column"] = pe.Column
		}

		if errors.As(err, &ve) {
			body["fields"] = ve.Fields
		}
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		body["fields"] = ve.Fields
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.As(err, &mb):
		status = http.StatusRequestEntityTooLarge
	}

	body["error"] = message(err, status)

	return status, body
}

// message 4xx 返回去掉事务包装后的原因，5xx 返回完整错误.
func message(err error, status int) string {
	var te *errs.TransactionError
	if status < http.StatusInternalServerError && errors.As(err, &te) {
		return te.Err.Error()
	}

	return err.Error()
}

// writeError 按错误分类写出响应.
func writeError(c *gin.Context, err error) {
	writeErrorWith(c, err, nil)
}

// writeErrorWith 写出错误响应，并附加额外字段.
func writeErrorWith(c *gin.Context, err error, extra gin.H) {
	status, body := ErrorStatus(err)
	for k, v := range extra {
		body[k] = v
	}

	l := log.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Str("path", c.FullPath()).Msg("request rejected")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// bindError 绑定失败时的响应，超出大小限制为 413，其余为 400.
func bindError(c *gin.Context, err error) {
	var mb *http.MaxBytesError
	if errors.As(err, &mb) {
		writeError(c, err)
		return
	}

	writeError(c, errs.InvalidArgument("%v", err))
}

// formUpload 依次尝试读取 fields 中的文件字段，都不存在时返回 nil.
// 返回的 closer 总是可以调用.
func formUpload(c *gin.Context, fields ...string) (*service.Upload, func(), error) {
	nop := func() {}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nop, nil
	}

	for _, field := range fields {
		fh, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}

		if err != nil {
			return nil, nop, err
		}

		return openUpload(fh)
	}

	return nil, nop, nil
}

func openUpload(fh *multipart.FileHeader) (*service.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}

	up := &service.Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Reader:      f,
	}

	return up, func() { _ = f.Close() }, nil
}
