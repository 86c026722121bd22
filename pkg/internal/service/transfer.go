package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/csvcodec"
	"github.com/yeisme/employeeman/pkg/internal/model"
	"github.com/yeisme/employeeman/pkg/internal/repository"
	"github.com/yeisme/employeeman/pkg/internal/storage/kv"
	nlog "github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/metrics"
	"github.com/yeisme/employeeman/pkg/queue"
	"github.com/yeisme/employeeman/pkg/tracing"
	"github.com/yeisme/employeeman/pkg/typedkv"
)

const (
	ImportCommitted  = "committed"
	ImportRolledBack = "rolled_back"

	exportBatchSize = 500
	reportNamespace = "import"
)

// ImportReport 一次 CSV 导入的结果.
type ImportReport struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Rows       int       `json:"rows"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// TransferService CSV 导入导出.
type TransferService struct {
	db        *gorm.DB
	employees *repository.EmployeeRepository
	registry  *MediaRegistry
	reports   *typedkv.Namespace
	reportTTL time.Duration
	events    queue.Events
	now       func() time.Time

	entropyMu sync.Mutex
	entropy   io.Reader
}

// NewTransferService 创建导入导出服务. store 为 nil 时不保存导入报告.
func NewTransferService(db *gorm.DB, registry *MediaRegistry, store kv.KVStore,
	reportTTL time.Duration, events queue.Events) *TransferService {
	if events == nil {
		events = queue.Nop{}
	}

	s := &TransferService{
		db:        db,
		employees: repository.NewEmployeeRepository(db),
		registry:  registry,
		reportTTL: reportTTL,
		events:    events,
		now:       time.Now,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // ulid 熵无需密码学强度
	}

	if store != nil {
		s.reports = typedkv.New(store, reportNamespace)
	}

	return s
}

func (s *TransferService) newID(t time.Time) string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Export 按 id 升序写出全部记录，返回写出的行数.
func (s *TransferService) Export(ctx context.Context, w io.Writer) (n int, err error) {
	ctx, span := tracing.StartSpan(ctx, "employee.export")
	defer func() { tracing.End(span, err) }()

	enc := csvcodec.NewEncoder(w)
	if err := enc.WriteHeader(); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	err = s.employees.Each(ctx, exportBatchSize, func(rows []model.Employee) error {
		for i := range rows {
			if err := enc.Encode(csvcodec.FromEmployee(&rows[i])); err != nil {
				return err
			}
		}

		n += len(rows)

		return nil
	})
	if err != nil {
		return n, err
	}

	if err := enc.Flush(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}

	nlog.Ctx(ctx).Debug().Int("rows", n).Msg("员工数据已导出")

	return n, nil
}

// Import 解码 CSV 并在一个事务中插入全部行. 任一行失败则全部回滚.
// ctx 取消会在提交之前中止并回滚；一旦开始提交就不再被打断.
// 返回的报告在成功与失败时都不为 nil.
func (s *TransferService) Import(ctx context.Context, r io.Reader) (report *ImportReport, err error) {
	ctx, span := tracing.StartSpan(ctx, "employee.import")
	defer func() { tracing.End(span, err) }()

	started := s.now().UTC()
	report = &ImportReport{ID: s.newID(started), StartedAt: started}

	defer func() {
		report.FinishedAt = s.now().UTC()
		report.Status = ImportCommitted

		if err != nil {
			report.Status = ImportRolledBack
			report.Error = err.Error()
			report.Rows = 0
		}

		s.saveReport(ctx, report)
	}()

	rows, err := csvcodec.Decode(r)
	if err != nil {
		return report, err
	}

	err = s.insertAll(ctx, rows)

	metrics.ImportRows.WithLabelValues(metrics.Result(err)).Add(float64(len(rows)))

	if err != nil {
		return report, err
	}

	report.Rows = len(rows)

	nlog.Ctx(ctx).Debug().Str("report", report.ID).Int("rows", len(rows)).Msg("CSV 导入已提交")

	s.events.EmployeesImported(ctx, queue.EmployeesImportedPayload{ReportID: report.ID, Rows: len(rows)})

	return report, nil
}

// insertAll 事务本身不随 ctx 取消，取消在逐行处理与提交前检查.
func (s *TransferService) insertAll(ctx context.Context, rows []csvcodec.Row) error {
	txCtx := context.WithoutCancel(ctx)

	return runTx(txCtx, s.db, s.registry.files, "employee.import", func(tx *gorm.DB, _ *stage) error {
		repo := s.employees.WithTx(tx)

		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}

			e := row.Employee()

			if err := validateEmployee(txCtx, s.registry, tx, &e, csvcodec.ColPhoto, true); err != nil {
				return &errs.ParseError{Row: i + 1, Err: err}
			}

			if err := repo.Create(txCtx, &e); err != nil {
				return &errs.ParseError{Row: i + 1, Err: err}
			}
		}

		return ctx.Err()
	})
}

func (s *TransferService) saveReport(ctx context.Context, report *ImportReport) {
	if s.reports == nil {
		return
	}

	if err := typedkv.Put(context.WithoutCancel(ctx), s.reports, report.ID, report, s.reportTTL); err != nil {
		nlog.Ctx(ctx).Error().Err(err).Str("report", report.ID).Msg("保存导入报告失败")
	}
}

// Report 读取导入报告，不存在或已过期时返回 ErrNotFound.
func (s *TransferService) Report(ctx context.Context, id string) (*ImportReport, error) {
	if s.reports == nil {
		return nil, errs.NotFound("import report %s", id)
	}

	report, err := typedkv.Get[ImportReport](ctx, s.reports, id)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, errs.NotFound("import report %s", id)
	}

	if err != nil {
		return nil, fmt.Errorf("load import report %s: %w", id, err)
	}

	return &report, nil
}
