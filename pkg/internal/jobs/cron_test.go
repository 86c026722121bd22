package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/jobs"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/internal/storage/db/dbtest"
	"github.com/yeisme/employeeman/pkg/internal/storage/filestore"
	"github.com/yeisme/employeeman/pkg/scheduler"
)

func newServices(t *testing.T, fs afero.Fs, rc configs.ReconcileConfig) *service.Services {
	t.Helper()

	files, err := filestore.NewLocalFs(fs, "/uploads")
	if err != nil {
		t.Fatalf("NewLocalFs: %v", err)
	}

	return service.New(service.Deps{DB: dbtest.New(t).DB, Files: files}, configs.AppConfig{Reconcile: rc})
}

func TestRegisterCronJobs(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer func() { _ = sched.Stop() }()

	ctx := context.Background()
	svc := newServices(t, afero.NewMemMapFs(), configs.ReconcileConfig{})

	if err := jobs.RegisterCronJobs(ctx, sched, svc, configs.ReconcileConfig{Enabled: false, Cron: "0 * * * *"}); err != nil {
		t.Fatalf("disabled: %v", err)
	}

	if n := len(sched.JobInfos()); n != 0 {
		t.Fatalf("disabled job registered, %d jobs", n)
	}

	if err := jobs.RegisterCronJobs(ctx, sched, svc, configs.ReconcileConfig{Enabled: true, Cron: "0 * * * *"}); err != nil {
		t.Fatalf("enabled: %v", err)
	}

	info, err := sched.JobInfoByName(jobs.JobMediaReconcile)
	if err != nil || info.CronExpr != "0 * * * *" {
		t.Fatalf("info = %+v, err %v", info, err)
	}

	if err := jobs.RegisterCronJobs(ctx, nil, svc, configs.ReconcileConfig{}); err == nil {
		t.Fatal("nil scheduler accepted")
	}
}

// TestReconcileJobPurges 开启 purge 时任务删除超过宽限期的未登记文件.
func TestReconcileJobPurges(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc := newServices(t, fs, configs.ReconcileConfig{Purge: true})

	if err := afero.WriteFile(fs, "/uploads/orphan.txt", []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	old := time.Now().Add(-48 * time.Hour)
	if err := fs.Chtimes("/uploads/orphan.txt", old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if err := jobs.ReconcileJob(svc.Reconciler)(context.Background()); err != nil {
		t.Fatalf("job: %v", err)
	}

	if ok, _ := afero.Exists(fs, "/uploads/orphan.txt"); ok {
		t.Fatal("orphan file survived purge")
	}
}
