package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/queue"
)

func uintp(v uint) *uint { return &v }

// TestStoreTrustsDeclaredMime 声明了具体类型时直接采用，通用类型才探测.
func TestStoreTrustsDeclaredMime(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		declared string
		want     string
	}{
		{"image/png", "image/png"},
		{"application/octet-stream", "text/plain; charset=utf-8"},
		{"", "text/plain; charset=utf-8"},
	}

	for _, c := range cases {
		up := upload("face.png", "plain text body")
		up.ContentType = c.declared

		m, err := e.svc.Media.Store(ctx, up, nil, nil)
		if err != nil {
			t.Fatalf("Store(%q): %v", c.declared, err)
		}

		if m.MimeType != c.want {
			t.Errorf("declared %q: mime = %q, want %q", c.declared, m.MimeType, c.want)
		}
	}
}

// TestStoreDetectsMime 客户端未声明类型时按内容探测.
func TestStoreDetectsMime(t *testing.T) {
	e := newEnv(t)

	m, err := e.svc.Media.Store(context.Background(), upload("../../etc/notes.txt", "plain text body"), nil, nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if m.Name != "notes.txt" {
		t.Fatalf("name = %q, want path stripped", m.Name)
	}

	if m.FileName != m.UUID+"-notes.txt" {
		t.Fatalf("file_name = %q", m.FileName)
	}

	if m.MimeType != "text/plain; charset=utf-8" {
		t.Fatalf("mime = %q", m.MimeType)
	}

	if m.Size != int64(len("plain text body")) || m.Disk != "local" {
		t.Fatalf("size=%d disk=%s", m.Size, m.Disk)
	}

	if m.Owner() != nil {
		t.Fatalf("owner = %+v, want nil", m.Owner())
	}

	if !contains(e.events.all(), queue.TopicMediaStored) {
		t.Fatalf("events = %v", e.events.all())
	}
}

// TestStoreWithoutFile 缺少文件返回 ErrInvalidArgument.
func TestStoreWithoutFile(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Media.Store(context.Background(), nil, nil, nil)
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

// TestRemoveSelectorRules 必须恰好提供一种选择方式.
func TestRemoveSelectorRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := map[string]service.RemoveSelector{
		"none":         {},
		"two modes":    {FileName: "a", UUID: "b"},
		"type only":    {OwnerType: "employee"},
		"id only":      {OwnerID: uintp(1)},
		"unknown type": {OwnerType: "invoice", OwnerID: uintp(1)},
	}

	for name, sel := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := e.svc.Media.Remove(ctx, sel); !errors.Is(err, errs.ErrInvalidArgument) {
				t.Fatalf("want ErrInvalidArgument, got %v", err)
			}
		})
	}
}

// TestRemoveByOwner 按所属记录删除全部媒体及其文件.
func TestRemoveByOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	owner := model.EmployeeOwner(7)

	a, err := e.svc.Media.Store(ctx, upload("a.txt", "a"), owner, nil)
	if err != nil {
		t.Fatalf("Store a: %v", err)
	}

	b, err := e.svc.Media.Store(ctx, upload("b.txt", "b"), owner, nil)
	if err != nil {
		t.Fatalf("Store b: %v", err)
	}

	other, err := e.svc.Media.Store(ctx, upload("c.txt", "c"), model.EmployeeOwner(8), nil)
	if err != nil {
		t.Fatalf("Store c: %v", err)
	}

	removed, err := e.svc.Media.Remove(ctx, service.RemoveSelector{OwnerType: "employee", OwnerID: uintp(7)})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if len(removed) != 2 || !contains(removed, a.FileName) || !contains(removed, b.FileName) {
		t.Fatalf("removed = %v", removed)
	}

	if n := e.fileCount(t); n != 1 {
		t.Fatalf("files = %d, want 1", n)
	}

	if _, err := e.svc.Media.Retrieve(ctx, other.FileName); err != nil {
		t.Fatalf("other media: %v", err)
	}

	if _, err := e.svc.Media.Remove(ctx, service.RemoveSelector{UUID: a.UUID}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second remove: want ErrNotFound, got %v", err)
	}
}

// TestRemoveFileDeleteFailure 行已删除而文件删除失败时返回错误，不回滚登记.
func TestRemoveFileDeleteFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.svc.Media.Store(ctx, upload("a.txt", "a"), nil, nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	e.files.failDelete = true

	removed, err := e.svc.Media.Remove(ctx, service.RemoveSelector{FileName: m.FileName})
	if !errors.Is(err, errInjected) {
		t.Fatalf("want injected error, got %v", err)
	}

	if len(removed) != 0 {
		t.Fatalf("removed = %v", removed)
	}

	if _, err := e.svc.Media.Retrieve(ctx, m.FileName); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("row should be gone, got %v", err)
	}
}

// TestRetrieveClassifiesErrors 未登记为 NotFound，登记存在文件缺失为 StorageInconsistency.
func TestRetrieveClassifiesErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.svc.Media.Retrieve(ctx, "missing.png"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	m, err := e.svc.Media.Store(ctx, upload("a.png", "x"), nil, nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	loc, err := e.svc.Media.Retrieve(ctx, m.FileName)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if loc.Location != "/uploads/"+m.FileName || loc.Disk != "local" {
		t.Fatalf("loc = %+v", loc)
	}

	if err := e.files.Store.Delete(ctx, m.FileName); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := e.svc.Media.Retrieve(ctx, m.FileName); !errors.Is(err, errs.ErrStorageInconsistency) {
		t.Fatalf("want ErrStorageInconsistency, got %v", err)
	}

	if _, _, err := e.svc.Media.Open(ctx, m.FileName); !errors.Is(err, errs.ErrStorageInconsistency) {
		t.Fatalf("Open: want ErrStorageInconsistency, got %v", err)
	}
}
