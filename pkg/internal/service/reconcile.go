package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/repository"
	"github.com/yeisme/employeeman/pkg/internal/storage/filestore"
	nlog "github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/metrics"
	"github.com/yeisme/employeeman/pkg/tracing"
)

// ReconcileReport 一次对账的结果.
type ReconcileReport struct {
	// Missing 已登记但文件缺失的 file_name.
	Missing []string `json:"missing"`
	// Unregistered 超过宽限期且没有登记行的文件.
	Unregistered []string `json:"unregistered"`
	// Purged 本次删除的未登记文件.
	Purged []string `json:"purged"`
	// Recent 未超过宽限期而跳过的未登记文件数.
	Recent    int       `json:"recent"`
	CheckedAt time.Time `json:"checked_at"`
}

// Reconciler 比对媒体登记表与文件存储.
type Reconciler struct {
	media *repository.MediaRepository
	files filestore.Store
	cfg   configs.ReconcileConfig
	now   func() time.Time
}

// NewReconciler 创建对账器.
func NewReconciler(db *gorm.DB, files filestore.Store, cfg configs.ReconcileConfig) *Reconciler {
	return &Reconciler{
		media: repository.NewMediaRepository(db),
		files: files,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Sweep 执行一次对账. 只有 purge 为 true 时才删除未登记文件，登记行从不删除.
func (r *Reconciler) Sweep(ctx context.Context, purge bool) (report *ReconcileReport, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.reconcile")
	defer func() { tracing.End(span, err) }()

	now := r.now()
	report = &ReconcileReport{Missing: []string{}, Unregistered: []string{}, Purged: []string{}, CheckedAt: now.UTC()}

	// 先列文件再读登记表，避免把列举期间新登记的文件误判为未登记
	objects, err := r.files.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	rows, err := r.media.All(ctx)
	if err != nil {
		return nil, err
	}

	onDisk := make(map[string]bool, len(objects))
	for _, o := range objects {
		onDisk[o.Key] = true
	}

	registered := make(map[string]bool, len(rows))

	for _, m := range rows {
		if m.Disk != r.files.Disk() {
			continue
		}

		registered[m.FileName] = true

		if !onDisk[m.FileName] {
			report.Missing = append(report.Missing, m.FileName)
		}
	}

	for _, o := range objects {
		if registered[o.Key] {
			continue
		}

		if now.Sub(o.ModTime) < r.cfg.GracePeriod {
			report.Recent++
			continue
		}

		report.Unregistered = append(report.Unregistered, o.Key)

		if !purge {
			continue
		}

		if err := r.files.Delete(ctx, o.Key); err != nil {
			nlog.Ctx(ctx).Error().Err(err).Str("file", o.Key).Msg("删除未登记文件失败")
			continue
		}

		report.Purged = append(report.Purged, o.Key)
	}

	metrics.ReconcileFindings.WithLabelValues("missing").Set(float64(len(report.Missing)))
	metrics.ReconcileFindings.WithLabelValues("unregistered").Set(float64(len(report.Unregistered)))
	metrics.ReconcileFindings.WithLabelValues("purged").Set(float64(len(report.Purged)))

	ev := nlog.Ctx(ctx).Info()
	if len(report.Missing) > 0 || len(report.Unregistered) > 0 {
		ev = nlog.Ctx(ctx).Warn()
	}

	ev.Int("missing", len(report.Missing)).
		Int("unregistered", len(report.Unregistered)).
		Int("purged", len(report.Purged)).
		Int("recent", report.Recent).
		Msg("媒体对账完成")

	return report, nil
}

// Purge 返回配置中的 purge 开关.
func (r *Reconciler) Purge() bool {
	return r.cfg.Purge
}
