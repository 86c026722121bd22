package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/repository"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/queue"
)

const validCSV = "nama,nomor,jabatan,departmen,tanggal_masuk,foto,status\n" +
	"Andi Wijaya,E001,Engineer,IT,2024-01-02,,TETAP\n" +
	"Budi Santoso,E002,Manager,Finance,2023-05-06,,probation\n"

// TestImportCommits 全部行有效时一次提交，并保存可查询的报告.
func TestImportCommits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	report, err := e.svc.Transfer.Import(ctx, strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if report.Status != service.ImportCommitted || report.Rows != 2 || report.ID == "" {
		t.Fatalf("report = %+v", report)
	}

	page, err := e.svc.Employees.Find(ctx, repository.ListParams{SortBy: "name"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if page.Meta.Total != 2 || page.Data[0].Name != "Andi Wijaya" {
		t.Fatalf("page = %+v", page)
	}

	stored, err := e.svc.Transfer.Report(ctx, report.ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if stored.Status != service.ImportCommitted || stored.Rows != 2 {
		t.Fatalf("stored = %+v", stored)
	}

	if !contains(e.events.all(), queue.TopicEmployeeImported) {
		t.Fatalf("events = %v", e.events.all())
	}
}

// TestImportRollsBackOnBadRow 任一行无效则整体回滚，错误带有行号.
func TestImportRollsBackOnBadRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	csv := "nama,nomor,jabatan,departmen,tanggal_masuk,foto,status\n" +
		"Andi Wijaya,E001,Engineer,IT,2024-01-02,,tetap\n" +
		"Bud,E002,Manager,Finance,2023-05-06,,kontrak\n"

	report, err := e.svc.Transfer.Import(ctx, strings.NewReader(csv))

	var pe *errs.ParseError
	if !errors.As(err, &pe) || pe.Row != 2 {
		t.Fatalf("want ParseError at row 2, got %v", err)
	}

	var ve *errs.ValidationError
	if !errors.As(err, &ve) || ve.Fields["name"] == "" {
		t.Fatalf("want name validation error, got %v", err)
	}

	if report == nil || report.Status != service.ImportRolledBack || report.Rows != 0 || report.Error == "" {
		t.Fatalf("report = %+v", report)
	}

	page, err := e.svc.Employees.Find(ctx, repository.ListParams{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if page.Meta.Total != 0 {
		t.Fatalf("total = %d, want 0 after rollback", page.Meta.Total)
	}

	stored, err := e.svc.Transfer.Report(ctx, report.ID)
	if err != nil || stored.Status != service.ImportRolledBack {
		t.Fatalf("stored report = %+v, err = %v", stored, err)
	}
}

// TestImportUnknownPhoto foto 列必须引用已登记的文件.
func TestImportUnknownPhoto(t *testing.T) {
	e := newEnv(t)

	csv := "nama,nomor,jabatan,departmen,tanggal_masuk,foto,status\n" +
		"Andi Wijaya,E001,Engineer,IT,2024-01-02,ghost.png,tetap\n"

	_, err := e.svc.Transfer.Import(context.Background(), strings.NewReader(csv))

	var ve *errs.ValidationError
	if !errors.As(err, &ve) || ve.Fields["foto"] == "" {
		t.Fatalf("want foto validation error, got %v", err)
	}
}

// TestImportHeaderError 表头错误的行号为 0.
func TestImportHeaderError(t *testing.T) {
	e := newEnv(t)

	report, err := e.svc.Transfer.Import(context.Background(), strings.NewReader("nama,nomor\nAndi,E1\n"))

	var pe *errs.ParseError
	if !errors.As(err, &pe) || pe.Row != 0 {
		t.Fatalf("want header ParseError, got %v", err)
	}

	if report.Status != service.ImportRolledBack {
		t.Fatalf("status = %s", report.Status)
	}
}

// TestImportCancelled 提交前取消则回滚.
func TestImportCancelled(t *testing.T) {
	e := newEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.svc.Transfer.Import(ctx, strings.NewReader(validCSV))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	if report.Status != service.ImportRolledBack {
		t.Fatalf("status = %s", report.Status)
	}

	page, err := e.svc.Employees.Find(context.Background(), repository.ListParams{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if page.Meta.Total != 0 {
		t.Fatalf("total = %d, want 0", page.Meta.Total)
	}
}

// TestReportNotFound 未知报告返回 ErrNotFound.
func TestReportNotFound(t *testing.T) {
	e := newEnv(t)

	if _, err := e.svc.Transfer.Report(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// TestExportRoundTrip 导出结果可以再次导入.
func TestExportRoundTrip(t *testing.T) {
	src := newEnv(t)
	ctx := context.Background()

	if _, err := src.svc.Transfer.Import(ctx, strings.NewReader(validCSV)); err != nil {
		t.Fatalf("Import: %v", err)
	}

	var buf bytes.Buffer

	n, err := src.svc.Transfer.Export(ctx, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if n != 2 {
		t.Fatalf("exported %d rows, want 2", n)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "id,nama,nomor,jabatan,departmen,tanggal_masuk,foto,status\n") {
		t.Fatalf("header = %q", out)
	}

	if !strings.Contains(out, ",Andi Wijaya,E001,Engineer,IT,2024-01-02,,tetap\n") {
		t.Fatalf("export = %q", out)
	}

	dst := newEnv(t)

	report, err := dst.svc.Transfer.Import(ctx, &buf)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}

	if report.Rows != 2 {
		t.Fatalf("rows = %d", report.Rows)
	}
}

// TestExportImportPreservesText 首尾空白与换行在导出再导入后保持不变.
func TestExportImportPreservesText(t *testing.T) {
	src := newEnv(t)
	ctx := context.Background()

	in := newEmployee(" Budi Santoso ", "E001")
	in.Position = "Staff\r\nLead"
	in.Department = "IT "

	created, err := src.svc.Employees.Create(ctx, in, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Position != "Staff\nLead" {
		t.Fatalf("stored position = %q", created.Position)
	}

	var buf bytes.Buffer
	if _, err := src.svc.Transfer.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := newEnv(t)
	if _, err := dst.svc.Transfer.Import(ctx, &buf); err != nil {
		t.Fatalf("Import: %v", err)
	}

	page, err := dst.svc.Employees.Find(ctx, repository.ListParams{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if len(page.Data) != 1 {
		t.Fatalf("imported %d rows", len(page.Data))
	}

	got := page.Data[0]
	if got.Name != created.Name || got.Position != created.Position || got.Department != created.Department {
		t.Fatalf("got %q/%q/%q, want %q/%q/%q",
			got.Name, got.Position, got.Department, created.Name, created.Position, created.Department)
	}
}
