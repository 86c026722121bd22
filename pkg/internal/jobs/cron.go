// Package jobs 注册业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/scheduler"
)

// RegisterCronJobs 按配置注册定时任务，目前只有媒体对账：
// 按 reconcile.cron 比对媒体登记表与文件存储，reconcile.purge 为 true 时删除未登记文件.
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, svc *service.Services, cfg configs.ReconcileConfig) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if svc == nil || svc.Reconciler == nil {
		return fmt.Errorf("reconciler is nil")
	}

	if !cfg.Enabled {
		log.Logger().Info().Msg("media reconcile job disabled")
		return nil
	}

	return sched.AddCron(ctx, JobMediaReconcile, cfg.Cron, ReconcileJob(svc.Reconciler))
}

// ReconcileJob 返回执行一次对账的任务函数.
func ReconcileJob(r *service.Reconciler) scheduler.JobFunc {
	return func(ctx context.Context) error {
		report, err := r.Sweep(ctx, r.Purge())
		if err != nil {
			return fmt.Errorf("media reconcile: %w", err)
		}

		log.Logger().Debug().
			Str("job", JobMediaReconcile).
			Time("checked_at", report.CheckedAt).
			Msg("media reconcile finished")

		return nil
	}
}
