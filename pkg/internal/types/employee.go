// Package types 定义 HTTP 请求与响应结构，以及它们到领域类型的转换.
package types

import (
	"strconv"
	"strings"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
	"github.com/yeisme/employeeman/pkg/internal/repository"
	"github.com/yeisme/employeeman/pkg/internal/service"
)

const statusMessage = "must be one of: kontrak, tetap, probation"

// EmployeeRequest 创建或更新员工的请求体，multipart 表单与 JSON 共用.
// 更新时缺省字段保持原值，photo 为空串表示清除照片.
type EmployeeRequest struct {
	Name       *string `form:"name"       json:"name"`
	No         *string `form:"no"         json:"no"`
	Position   *string `form:"position"   json:"position"`
	Department *string `form:"department" json:"department"`
	JoinDate   *string `form:"join_date"  json:"join_date"`
	Photo      *string `form:"photo"      json:"photo"`
	Status     *string `form:"status"     json:"status"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}

	return strings.TrimSpace(*p)
}

// parse 转换日期与状态，缺省字段返回 nil.
func (r *EmployeeRequest) parse() (*model.Date, *model.Status, map[string]string) {
	fields := map[string]string{}

	var (
		date   *model.Date
		status *model.Status
	)

	if r.JoinDate != nil && str(r.JoinDate) != "" {
		d, err := model.ParseDate(*r.JoinDate)
		if err != nil {
			fields["join_date"] = "must be a date in YYYY-MM-DD format"
		} else {
			date = &d
		}
	}

	if r.Status != nil && str(r.Status) != "" {
		s, err := model.ParseStatus(*r.Status)
		if err != nil {
			fields["status"] = statusMessage
		} else {
			status = &s
		}
	}

	return date, status, fields
}

// Employee 转换为待创建的记录. 无法解析的日期或状态返回 *errs.ValidationError，
// 其余字段规则由服务层统一校验.
func (r *EmployeeRequest) Employee() (*model.Employee, error) {
	date, status, fields := r.parse()
	if len(fields) > 0 {
		return nil, errs.Validation(fields)
	}

	e := &model.Employee{
		Name:       str(r.Name),
		No:         str(r.No),
		Position:   str(r.Position),
		Department: str(r.Department),
	}

	if date != nil {
		e.JoinDate = *date
	}

	if status != nil {
		e.Status = *status
	}

	if p := str(r.Photo); p != "" {
		e.Photo = &p
	}

	return e, nil
}

// Patch 转换为部分更新. 提供了但为空的日期或状态视为非法值.
func (r *EmployeeRequest) Patch() (*service.EmployeePatch, error) {
	date, status, fields := r.parse()

	if r.JoinDate != nil && date == nil && fields["join_date"] == "" {
		fields["join_date"] = "is required"
	}

	if r.Status != nil && status == nil && fields["status"] == "" {
		fields["status"] = statusMessage
	}

	if len(fields) > 0 {
		return nil, errs.Validation(fields)
	}

	trim := func(p *string) *string {
		if p == nil {
			return nil
		}

		v := strings.TrimSpace(*p)

		return &v
	}

	return &service.EmployeePatch{
		Name:       trim(r.Name),
		No:         trim(r.No),
		Position:   trim(r.Position),
		Department: trim(r.Department),
		JoinDate:   date,
		Photo:      trim(r.Photo),
		Status:     status,
	}, nil
}

// ListEmployeesQuery 列表查询参数. 排序参数同时接受 sort_by 与 sortBy 两种写法.
type ListEmployeesQuery struct {
	Name       string `form:"name"`
	Position   string `form:"position"`
	Department string `form:"department"`
	Status     string `form:"status"`
	Page       string `form:"page"`
	Limit      string `form:"limit"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order"`

	SortByCamel    string `form:"sortBy"`
	SortOrderCamel string `form:"sortOrder"`
}

// Params 转换为仓储查询参数，非整数的 page/limit 返回 *errs.ValidationError.
func (q *ListEmployeesQuery) Params() (repository.ListParams, error) {
	p := repository.ListParams{
		Name:       q.Name,
		Position:   q.Position,
		Department: q.Department,
		Status:     q.Status,
		SortBy:     firstNonEmpty(q.SortBy, q.SortByCamel),
		SortOrder:  firstNonEmpty(q.SortOrder, q.SortOrderCamel),
	}

	fields := map[string]string{}

	parseInt := func(name, raw string) *int {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			fields[name] = "must be an integer"
			return nil
		}

		return &n
	}

	p.Page = parseInt("page", q.Page)
	p.Limit = parseInt("limit", q.Limit)

	if len(fields) > 0 {
		return p, errs.Validation(fields)
	}

	return p, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

// DepartmentsQuery 部门搜索参数.
type DepartmentsQuery struct {
	Search string `form:"search"`
}

// DepartmentsResponse 部门搜索结果.
type DepartmentsResponse struct {
	Departments []string `json:"departments"`
}

// MessageResponse 只包含提示信息的响应.
type MessageResponse struct {
	Message string `json:"message"`
}

// ImportResponse CSV 导入结果.
type ImportResponse struct {
	Message string                `json:"message"`
	Report  *service.ImportReport `json:"report"`
}
