package service

import (
	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/storage"
	"github.com/yeisme/employeeman/pkg/internal/storage/filestore"
	"github.com/yeisme/employeeman/pkg/internal/storage/kv"
	"github.com/yeisme/employeeman/pkg/queue"
)

// Services 聚合全部业务服务，共享同一组存储资源.
type Services struct {
	Employees  *EmployeeService
	Media      *MediaRegistry
	Transfer   *TransferService
	Reconciler *Reconciler
}

// Deps 构造服务所需的依赖. KV 可为 nil（不保存导入报告），Events 可为 nil（不发布事件）.
type Deps struct {
	DB     *gorm.DB
	Files  filestore.Store
	KV     kv.KVStore
	Events queue.Events
}

// New 由依赖构造全部服务.
func New(d Deps, cfg configs.AppConfig) *Services {
	registry := NewMediaRegistry(d.DB, d.Files, d.Events)

	return &Services{
		Employees:  NewEmployeeService(d.DB, registry, d.Events),
		Media:      registry,
		Transfer:   NewTransferService(d.DB, registry, d.KV, cfg.Import.ReportTTL, d.Events),
		Reconciler: NewReconciler(d.DB, d.Files, cfg.Reconcile),
	}
}

// FromManager 使用存储管理器中的资源构造服务，事件发布到管理器的 MQ.
func FromManager(mgr *storage.Manager, cfg configs.AppConfig) *Services {
	d := Deps{
		DB:    mgr.GetDBClient().DB,
		Files: mgr.GetFileStore(),
	}

	if mgr.KV != nil {
		d.KV = mgr.KV.KVStore
	}

	if mgr.MQ != nil {
		d.Events = queue.NewPublisher(mgr.MQ.Publisher(), cfg.Events)
	}

	return New(d, cfg)
}
