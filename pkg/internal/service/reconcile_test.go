package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/service"
)

// TestSweepReportsOnly purge 关闭时只报告，不删除任何文件.
func TestSweepReportsOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	kept, err := e.svc.Media.Store(ctx, upload("kept.txt", "k"), nil, nil)
	if err != nil {
		t.Fatalf("Store kept: %v", err)
	}

	gone, err := e.svc.Media.Store(ctx, upload("gone.txt", "g"), nil, nil)
	if err != nil {
		t.Fatalf("Store gone: %v", err)
	}

	if err := e.files.Delete(ctx, gone.FileName); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := e.files.Write(ctx, "stray.bin", strings.NewReader("?"), 1, ""); err != nil {
		t.Fatalf("Write stray: %v", err)
	}

	report, err := e.svc.Reconciler.Sweep(ctx, false)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if len(report.Missing) != 1 || report.Missing[0] != gone.FileName {
		t.Fatalf("missing = %v", report.Missing)
	}

	if len(report.Unregistered) != 1 || report.Unregistered[0] != "stray.bin" {
		t.Fatalf("unregistered = %v", report.Unregistered)
	}

	if len(report.Purged) != 0 {
		t.Fatalf("purged = %v", report.Purged)
	}

	if n := e.fileCount(t); n != 2 {
		t.Fatalf("files = %d, want kept and stray", n)
	}

	if _, err := e.svc.Media.Retrieve(ctx, kept.FileName); err != nil {
		t.Fatalf("kept media: %v", err)
	}
}

// TestSweepPurges purge 打开时删除未登记文件，登记行保持不变.
func TestSweepPurges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	kept, err := e.svc.Media.Store(ctx, upload("kept.txt", "k"), nil, nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, err := e.files.Write(ctx, "stray.bin", strings.NewReader("?"), 1, ""); err != nil {
		t.Fatalf("Write stray: %v", err)
	}

	report, err := e.svc.Reconciler.Sweep(ctx, true)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if len(report.Purged) != 1 || report.Purged[0] != "stray.bin" {
		t.Fatalf("purged = %v", report.Purged)
	}

	objs, err := e.files.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(objs) != 1 || objs[0].Key != kept.FileName {
		t.Fatalf("objects = %+v", objs)
	}
}

// TestSweepGracePeriod 宽限期内的未登记文件不报告也不删除.
func TestSweepGracePeriod(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.files.Write(ctx, "fresh.bin", strings.NewReader("?"), 1, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r := service.NewReconciler(e.db, e.files, configs.ReconcileConfig{GracePeriod: time.Hour, Purge: true})

	report, err := r.Sweep(ctx, r.Purge())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if report.Recent != 1 || len(report.Unregistered) != 0 || len(report.Purged) != 0 {
		t.Fatalf("report = %+v", report)
	}

	if n := e.fileCount(t); n != 1 {
		t.Fatalf("files = %d, want 1", n)
	}
}
