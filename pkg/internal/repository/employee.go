// Package repository 封装员工与媒体登记表的 gorm 访问，所有方法可通过 WithTx 加入外部事务.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
)

// EmployeeRepository 员工记录仓储.
type EmployeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository 创建仓储.
func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// WithTx 返回绑定到事务的仓储.
func (r *EmployeeRepository) WithTx(tx *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: tx}
}

// Create 插入记录，回填 ID 与时间戳.
func (r *EmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}

	return nil
}

// Save 保存全部字段.
func (r *EmployeeRepository) Save(ctx context.Context, e *model.Employee) error {
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		return fmt.Errorf("save employee %d: %w", e.ID, err)
	}

	return nil
}

// Get 按 ID 读取，不存在时返回 errs.ErrNotFound.
func (r *EmployeeRepository) Get(ctx context.Context, id uint) (*model.Employee, error) {
	var e model.Employee

	err := r.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("employee %d", id)
	}

	if err != nil {
		return nil, fmt.Errorf("load employee %d: %w", id, err)
	}

	return &e, nil
}

// Delete 删除记录，不存在时返回 errs.ErrNotFound.
func (r *EmployeeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Employee{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete employee %d: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return errs.NotFound("employee %d", id)
	}

	return nil
}

// Find 按查询条件分页列出记录，总数在分页之前统计.
func (r *EmployeeRepository) Find(ctx context.Context, q ListQuery) ([]model.Employee, Meta, error) {
	var total int64

	base := func() *gorm.DB {
		return applyFilters(r.db.WithContext(ctx).Model(&model.Employee{}), q)
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, Meta{}, fmt.Errorf("count employees: %w", err)
	}

	rows := []model.Employee{}

	if offset, ok := pageOffset(q.Page, q.Limit, total); ok {
		if err := applyOrder(base(), q).Limit(q.Limit).Offset(offset).Find(&rows).Error; err != nil {
			return nil, Meta{}, fmt.Errorf("list employees: %w", err)
		}
	}

	return rows, NewMeta(total, q.Page, q.Limit), nil
}

// Departments 返回去重后的部门列表，按字母升序，search 为大小写不敏感的子串过滤.
func (r *EmployeeRepository) Departments(ctx context.Context, search string) ([]string, error) {
	out := []string{}

	db := containsCI(r.db.WithContext(ctx).Model(&model.Employee{}), "department", search)
	if err := db.Distinct("department").Order("department ASC").Pluck("department", &out).Error; err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}

	return out, nil
}

// Each 按 id 升序分批遍历全部记录.
func (r *EmployeeRepository) Each(ctx context.Context, batch int, fn func([]model.Employee) error) error {
	var rows []model.Employee

	res := r.db.WithContext(ctx).FindInBatches(&rows, batch, func(_ *gorm.DB, _ int) error {
		return fn(rows)
	})
	if res.Error != nil {
		return fmt.Errorf("scan employees: %w", res.Error)
	}

	return nil
}
