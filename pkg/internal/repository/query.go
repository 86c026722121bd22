package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// MaxLimit 单页条数上限.
	MaxLimit = 1000

	// likeEscape 是 LIKE 的转义字符，选用 ! 以避免各方言对反斜杠字面量的不同处理.
	likeEscape = "!"
)

// SortField 列表可排序的字段.
type SortField string

const (
	SortByName       SortField = "name"
	SortByPosition   SortField = "position"
	SortByDepartment SortField = "department"
	SortByStatus     SortField = "status"
	SortByCreatedAt  SortField = "created_at"
)

// ListParams 列表查询的原始输入，零值字段使用默认值.
type ListParams struct {
	Name       string
	Position   string
	Department string
	// Status 逗号分隔的状态集合，空串表示全部.
	Status    string
	Page      *int
	Limit     *int
	SortBy    string
	SortOrder string
}

// ListQuery 校验后的列表查询.
type ListQuery struct {
	Name       string
	Position   string
	Department string
	Statuses   []model.Status
	Page       int
	Limit      int
	SortBy     SortField
	Desc       bool
}

// Meta 分页信息.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewMeta 计算分页信息，totalPages = ceil(total / limit).
func NewMeta(total int64, page, limit int) Meta {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}

	return Meta{Total: total, Page: page, Limit: limit, TotalPages: int(pages)}
}

// pageOffset 返回第 page 页的偏移量，页码越界时 ok 为 false.
// 先比较页号再相乘，超大页码不会溢出.
func pageOffset(page, limit int, total int64) (offset int, ok bool) {
	if total <= 0 || page < 1 || limit < 1 {
		return 0, false
	}

	if int64(page-1) > (total-1)/int64(limit) {
		return 0, false
	}

	return (page - 1) * limit, true
}

// Normalize 校验并规范化参数，所有问题合并到一个 *errs.ValidationError.
func (p ListParams) Normalize() (ListQuery, error) {
	q := ListQuery{
		Name:       strings.TrimSpace(p.Name),
		Position:   strings.TrimSpace(p.Position),
		Department: strings.TrimSpace(p.Department),
		Page:       DefaultPage,
		Limit:      DefaultLimit,
	}
	fields := map[string]string{}

	if p.Page != nil {
		if *p.Page < 1 {
			fields["page"] = "must be at least 1"
		}

		q.Page = *p.Page
	}

	if p.Limit != nil {
		switch {
		case *p.Limit < 1:
			fields["limit"] = "must be at least 1"
		case *p.Limit > MaxLimit:
			fields["limit"] = fmt.Sprintf("must be at most %d", MaxLimit)
		}

		q.Limit = *p.Limit
	}

	if p.SortBy != "" {
		sf, ok := parseSortField(p.SortBy)
		if !ok {
			fields["sort_by"] = "must be one of: name, position, department, status, created_at"
		}

		q.SortBy = sf
	}

	switch strings.ToUpper(strings.TrimSpace(p.SortOrder)) {
	case "", "ASC":
	case "DESC":
		q.Desc = true
	default:
		fields["sort_order"] = "must be one of: ASC, DESC"
	}

	statuses, err := parseStatuses(p.Status)
	if err != nil {
		fields["status"] = err.Error()
	}

	q.Statuses = statuses

	if len(fields) > 0 {
		return ListQuery{}, errs.Validation(fields)
	}

	return q, nil
}

func parseSortField(s string) (SortField, bool) {
	switch strings.TrimSpace(s) {
	case "name":
		return SortByName, true
	case "position":
		return SortByPosition, true
	case "department":
		return SortByDepartment, true
	case "status":
		return SortByStatus, true
	case "created_at", "createdAt":
		return SortByCreatedAt, true
	default:
		return "", false
	}
}

// parseStatuses 解析逗号分隔的状态，空串返回 nil（不过滤）.
func parseStatuses(raw string) ([]model.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	seen := map[model.Status]bool{}
	out := make([]model.Status, 0, len(model.Statuses))

	for _, part := range strings.Split(raw, ",") {
		st, err := model.ParseStatus(part)
		if err != nil {
			return nil, fmt.Errorf("must be a comma separated list of: kontrak, tetap, probation")
		}

		if !seen[st] {
			seen[st] = true
			out = append(out, st)
		}
	}

	return out, nil
}

// EscapeLike 转义 LIKE 通配符，返回 %v% 形式的模式.
func EscapeLike(v string) string {
	r := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)

	return "%" + r.Replace(v) + "%"
}

// containsCI 追加大小写不敏感的子串过滤.
func containsCI(db *gorm.DB, column, v string) *gorm.DB {
	if v == "" {
		return db
	}

	return db.Where("LOWER("+column+") LIKE LOWER(?) ESCAPE '"+likeEscape+"'", EscapeLike(v))
}

// applyFilters 追加全部过滤条件，计数与分页查询共用.
func applyFilters(db *gorm.DB, q ListQuery) *gorm.DB {
	db = containsCI(db, "name", q.Name)
	db = containsCI(db, "position", q.Position)
	db = containsCI(db, "department", q.Department)

	if len(q.Statuses) > 0 {
		values := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			values[i] = string(st)
		}

		db = db.Where("status IN ?", values)
	}

	return db
}

// statusOrdinalExpr 按声明顺序把状态映射为序号.
func statusOrdinalExpr() string {
	var b strings.Builder

	b.WriteString("CASE status")

	for i, st := range model.Statuses {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", st, i)
	}

	fmt.Fprintf(&b, " ELSE %d END", len(model.Statuses))

	return b.String()
}

// applyOrder 追加排序，id 总是作为最后的排序键保证分页稳定.
func applyOrder(db *gorm.DB, q ListQuery) *gorm.DB {
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	switch q.SortBy {
	case SortByName, SortByPosition, SortByDepartment:
		db = db.Order("LOWER(" + string(q.SortBy) + ") " + dir)
	case SortByStatus:
		db = db.Order(statusOrdinalExpr() + " " + dir)
	case SortByCreatedAt:
		db = db.Order("created_at " + dir)
	}

	if q.SortBy == "" {
		return db.Order("id ASC")
	}

	return db.Order("id " + dir)
}
