// Package context 拓展上下文功能，将存储资源与业务服务集成到上下文中，方便在应用程序各处传递和使用.
package context

import (
	"context"

	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/internal/storage"
	dbc "github.com/yeisme/employeeman/pkg/internal/storage/db"
	"github.com/yeisme/employeeman/pkg/internal/storage/filestore"
	mqc "github.com/yeisme/employeeman/pkg/internal/storage/mq"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	ServicesKey       ContextKey = "services"
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// WithServices 将业务服务存储到 context 中.
func WithServices(ctx context.Context, svc *service.Services) context.Context {
	return context.WithValue(ctx, ServicesKey, svc)
}

// GetServices 从 context 中获取业务服务.
func GetServices(ctx context.Context) *service.Services {
	if svc, ok := ctx.Value(ServicesKey).(*service.Services); ok {
		return svc
	}

	return nil
}

// GetDBClient 从 context 中获取 DB 客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetFileStore 从 context 中获取文件存储.
func GetFileStore(ctx context.Context) filestore.Store {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetFileStore()
	}

	return nil
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}
