package types

import (
	"strconv"
	"strings"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
	"github.com/yeisme/employeeman/pkg/internal/service"
)

// UploadMediaForm 上传文件时的附加表单字段，文件本身在 file 字段.
type UploadMediaForm struct {
	ModelType  string `form:"model_type"`
	ModelID    string `form:"model_id"`
	Collection string `form:"collection"`
}

// Owner 解析所属记录，两个字段都为空时返回 nil.
func (f *UploadMediaForm) Owner() (*model.OwnerRef, error) {
	kind, rawID := strings.TrimSpace(f.ModelType), strings.TrimSpace(f.ModelID)

	switch {
	case kind == "" && rawID == "":
		return nil, nil
	case kind == "":
		return nil, errs.InvalidArgument("model_type is required when model_id is provided")
	case rawID == "":
		return nil, errs.InvalidArgument("model_id is required when model_type is provided")
	}

	k, err := model.ParseOwnerKind(kind)
	if err != nil {
		return nil, errs.InvalidArgument("%v", err)
	}

	id, err := parseID(rawID)
	if err != nil {
		return nil, errs.Field("model_id", "must be a positive integer")
	}

	return &model.OwnerRef{Kind: k, ID: id}, nil
}

// CollectionName 为空时返回 nil.
func (f *UploadMediaForm) CollectionName() *string {
	c := strings.TrimSpace(f.Collection)
	if c == "" {
		return nil
	}

	return &c
}

// DeleteMediaQuery 删除媒体的查询参数.
type DeleteMediaQuery struct {
	FileName  string `form:"filename"`
	UUID      string `form:"uuid"`
	ModelID   string `form:"model_id"`
	ModelType string `form:"model_type"`
}

// Selector 转换为删除条件，组合是否合法由服务层判断.
func (q *DeleteMediaQuery) Selector() (service.RemoveSelector, error) {
	sel := service.RemoveSelector{
		FileName:  strings.TrimSpace(q.FileName),
		UUID:      strings.TrimSpace(q.UUID),
		OwnerType: strings.TrimSpace(q.ModelType),
	}

	if raw := strings.TrimSpace(q.ModelID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return sel, errs.Field("model_id", "must be a positive integer")
		}

		sel.OwnerID = &id
	}

	return sel, nil
}

// DeleteMediaResponse 删除结果.
type DeleteMediaResponse struct {
	Message string   `json:"message"`
	Deleted []string `json:"deleted"`
}

// parseID 解析正整数 id.
func parseID(raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil {
		return 0, err
	}

	if n == 0 {
		return 0, strconv.ErrRange
	}

	return uint(n), nil
}

// ParseID 解析路径中的记录 id，失败返回 *errs.ValidationError.
func ParseID(raw string) (uint, error) {
	id, err := parseID(raw)
	if err != nil {
		return 0, errs.Field("id", "must be a positive integer")
	}

	return id, nil
}
