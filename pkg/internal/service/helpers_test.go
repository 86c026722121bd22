package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/model"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/internal/storage/db/dbtest"
	"github.com/yeisme/employeeman/pkg/internal/storage/filestore"
	"github.com/yeisme/employeeman/pkg/internal/storage/kv"
	"github.com/yeisme/employeeman/pkg/queue"
)

var errInjected = errors.New("injected failure")

// flakyStore 包装本地存储，按开关注入写入或删除失败.
type flakyStore struct {
	filestore.Store

	// failAfterWrite 为 true 时文件写入成功后仍返回错误，模拟写入中途失败
	failAfterWrite bool
	failDelete     bool
}

func (f *flakyStore) Write(ctx context.Context, key string, r io.Reader, size int64, ct string) (int64, error) {
	n, err := f.Store.Write(ctx, key, r, size, ct)
	if err != nil {
		return n, err
	}

	if f.failAfterWrite {
		return n, errInjected
	}

	return n, nil
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errInjected
	}

	return f.Store.Delete(ctx, key)
}

// recorder 记录发布的领域事件.
type recorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *recorder) add(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.topics = append(r.topics, topic)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.topics...)
}

func (r *recorder) EmployeeCreated(context.Context, queue.EmployeePayload) {
	r.add(queue.TopicEmployeeCreated)
}

func (r *recorder) EmployeeUpdated(context.Context, queue.EmployeePayload) {
	r.add(queue.TopicEmployeeUpdated)
}

func (r *recorder) EmployeeDeleted(context.Context, queue.EmployeeDeletedPayload) {
	r.add(queue.TopicEmployeeDeleted)
}

func (r *recorder) EmployeesImported(context.Context, queue.EmployeesImportedPayload) {
	r.add(queue.TopicEmployeeImported)
}

func (r *recorder) MediaStored(context.Context, queue.MediaPayload) {
	r.add(queue.TopicMediaStored)
}

func (r *recorder) MediaDeleted(context.Context, queue.MediaDeletedPayload) {
	r.add(queue.TopicMediaDeleted)
}

type env struct {
	db     *gorm.DB
	svc    *service.Services
	files  *flakyStore
	events *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()

	local, err := filestore.NewLocalFs(afero.NewMemMapFs(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalFs: %v", err)
	}

	store, err := kv.NewMemoryKV(context.Background(), configs.KVConfig{})
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	files := &flakyStore{Store: local}
	events := &recorder{}

	cfg := configs.AppConfig{
		Import:    configs.ImportConfig{ReportTTL: time.Hour},
		Reconcile: configs.ReconcileConfig{},
	}

	db := dbtest.New(t).DB

	svc := service.New(service.Deps{
		DB:     db,
		Files:  files,
		KV:     store,
		Events: events,
	}, cfg)

	return &env{db: db, svc: svc, files: files, events: events}
}

func (e *env) fileCount(t *testing.T) int {
	t.Helper()

	objs, err := e.files.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	return len(objs)
}

func newEmployee(name, no string) *model.Employee {
	return &model.Employee{
		Name:       name,
		No:         no,
		Position:   "Engineer",
		Department: "IT",
		JoinDate:   model.NewDate(2024, time.March, 1),
		Status:     model.StatusTetap,
	}
}

func upload(name, body string) *service.Upload {
	return &service.Upload{Name: name, Size: int64(len(body)), Reader: strings.NewReader(body)}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}

	return false
}
