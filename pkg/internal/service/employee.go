package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
	"github.com/yeisme/employeeman/pkg/internal/repository"
	nlog "github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/metrics"
	"github.com/yeisme/employeeman/pkg/queue"
	"github.com/yeisme/employeeman/pkg/tracing"
)

// EmployeeService 员工记录的事务性写入协调与查询.
//
// 写操作的状态流转：开启事务 -> 修改记录 ->（存储文件）-> 提交或回滚.
// 回滚时删除本次写入的文件；领域事件只在提交之后发布.
type EmployeeService struct {
	db        *gorm.DB
	employees *repository.EmployeeRepository
	registry  *MediaRegistry
	events    queue.Events
}

// NewEmployeeService 创建员工服务.
func NewEmployeeService(db *gorm.DB, registry *MediaRegistry, events queue.Events) *EmployeeService {
	if events == nil {
		events = queue.Nop{}
	}

	return &EmployeeService{
		db:        db,
		employees: repository.NewEmployeeRepository(db),
		registry:  registry,
		events:    events,
	}
}

// EmployeePatch 部分更新，nil 字段保持原值. Photo 指向空串时清除照片.
type EmployeePatch struct {
	Name       *string
	No         *string
	Position   *string
	Department *string
	JoinDate   *model.Date
	Photo      *string
	Status     *model.Status
}

// apply 把补丁合并到记录上.
func (p *EmployeePatch) apply(e *model.Employee) {
	if p == nil {
		return
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&e.Name, p.Name)
	set(&e.No, p.No)
	set(&e.Position, p.Position)
	set(&e.Department, p.Department)

	if p.JoinDate != nil {
		e.JoinDate = *p.JoinDate
	}

	if p.Status != nil {
		e.Status = *p.Status
	}

	if p.Photo != nil {
		if *p.Photo == "" {
			e.Photo = nil
		} else {
			photo := *p.Photo
			e.Photo = &photo
		}
	}
}

// Page 列表查询结果.
type Page struct {
	Data []model.Employee `json:"data"`
	Meta repository.Meta  `json:"meta"`
}

// Create 创建员工，upload 非空时存储照片并登记为该员工所有.
func (s *EmployeeService) Create(ctx context.Context, in *model.Employee, upload *Upload) (out *model.Employee, err error) {
	ctx, span := tracing.StartSpan(ctx, "employee.create")
	defer func() { tracing.End(span, err) }()

	var stored *model.Media

	e := *in
	e.ID = 0

	err = runTx(ctx, s.db, s.registry.files, "employee.create", func(tx *gorm.DB, st *stage) error {
		if upload != nil {
			e.Photo = nil
		}

		if err := validateEmployee(ctx, s.registry, tx, &e, "photo", true); err != nil {
			return err
		}

		repo := s.employees.WithTx(tx)
		if err := repo.Create(ctx, &e); err != nil {
			return err
		}

		if upload == nil {
			return nil
		}

		collection := model.CollectionEmployee

		m, err := s.registry.store(ctx, tx, st, upload, model.EmployeeOwner(e.ID), &collection)
		if err != nil {
			return err
		}

		stored = m
		e.Photo = &m.FileName

		return repo.Save(ctx, &e)
	})

	metrics.EmployeeWrites.WithLabelValues("create", metrics.Result(err)).Inc()

	if err != nil {
		return nil, err
	}

	nlog.Ctx(ctx).Debug().Uint("id", e.ID).Bool("photo", stored != nil).Msg("员工已创建")

	s.events.EmployeeCreated(ctx, employeePayload(&e))

	if stored != nil {
		s.registry.events.MediaStored(ctx, mediaPayload(stored))
	}

	return &e, nil
}

// Update 合并补丁并保存，upload 非空时存储新照片并指向它. 旧照片不删除.
func (s *EmployeeService) Update(ctx context.Context, id uint, patch *EmployeePatch, upload *Upload) (out *model.Employee, err error) {
	ctx, span := tracing.StartSpan(ctx, "employee.update")
	defer func() { tracing.End(span, err) }()

	var (
		e      *model.Employee
		stored *model.Media
	)

	err = runTx(ctx, s.db, s.registry.files, "employee.update", func(tx *gorm.DB, st *stage) error {
		repo := s.employees.WithTx(tx)

		e, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}

		prevPhoto := e.PhotoName()

		patch.apply(e)

		if upload != nil {
			e.Photo = nil
		}

		// 未修改的照片引用不再校验，媒体可能已被单独删除
		checkPhoto := e.PhotoName() != prevPhoto
		if err := validateEmployee(ctx, s.registry, tx, e, "photo", checkPhoto); err != nil {
			return err
		}

		if upload != nil {
			collection := model.CollectionEmployee

			m, err := s.registry.store(ctx, tx, st, upload, model.EmployeeOwner(e.ID), &collection)
			if err != nil {
				return err
			}

			stored = m
			e.Photo = &m.FileName
		}

		return repo.Save(ctx, e)
	})

	metrics.EmployeeWrites.WithLabelValues("update", metrics.Result(err)).Inc()

	if err != nil {
		return nil, err
	}

	s.events.EmployeeUpdated(ctx, employeePayload(e))

	if stored != nil {
		s.registry.events.MediaStored(ctx, mediaPayload(stored))
	}

	return e, nil
}

// Delete 删除员工记录，其媒体行与文件保留.
func (s *EmployeeService) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := tracing.StartSpan(ctx, "employee.delete")
	defer func() { tracing.End(span, err) }()

	err = runTx(ctx, s.db, s.registry.files, "employee.delete", func(tx *gorm.DB, _ *stage) error {
		repo := s.employees.WithTx(tx)
		if _, err := repo.Get(ctx, id); err != nil {
			return err
		}

		return repo.Delete(ctx, id)
	})

	metrics.EmployeeWrites.WithLabelValues("delete", metrics.Result(err)).Inc()

	if err != nil {
		return err
	}

	s.events.EmployeeDeleted(ctx, queue.EmployeeDeletedPayload{ID: id})

	return nil
}

// Get 读取单条记录.
func (s *EmployeeService) Get(ctx context.Context, id uint) (*model.Employee, error) {
	return s.employees.Get(ctx, id)
}

// Find 过滤、排序并分页列出记录.
func (s *EmployeeService) Find(ctx context.Context, params repository.ListParams) (page *Page, err error) {
	ctx, span := tracing.StartSpan(ctx, "employee.find")
	defer func() { tracing.End(span, err) }()

	q, err := params.Normalize()
	if err != nil {
		return nil, err
	}

	rows, meta, err := s.employees.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	return &Page{Data: rows, Meta: meta}, nil
}

// Departments 去重后的部门列表.
func (s *EmployeeService) Departments(ctx context.Context, search string) ([]string, error) {
	return s.employees.Departments(ctx, search)
}

// validateEmployee 折叠换行后校验字段，checkPhoto 时确认 photo 引用的文件已登记.
// photoField 为错误信息中照片字段的名称.
func validateEmployee(ctx context.Context, registry *MediaRegistry, tx *gorm.DB,
	e *model.Employee, photoField string, checkPhoto bool) error {
	e.FoldLineBreaks()

	fields := map[string]string{}

	if err := e.Validate(); err != nil {
		var ve *errs.ValidationError
		if !errors.As(err, &ve) {
			return err
		}

		fields = ve.Fields
	}

	if checkPhoto && e.Photo != nil {
		ok, err := registry.exists(ctx, tx, *e.Photo)
		if err != nil {
			return err
		}

		if !ok {
			fields[photoField] = "does not reference an uploaded file"
		}
	}

	if len(fields) > 0 {
		return errs.Validation(fields)
	}

	return nil
}

func employeePayload(e *model.Employee) queue.EmployeePayload {
	return queue.EmployeePayload{
		ID:         e.ID,
		Name:       e.Name,
		No:         e.No,
		Position:   e.Position,
		Department: e.Department,
		JoinDate:   e.JoinDate.String(),
		Status:     string(e.Status),
		Photo:      e.Photo,
	}
}
