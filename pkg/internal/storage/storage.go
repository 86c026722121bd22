// Package storage 聚合数据库、文件存储、KV 与消息队列客户端.
//
// Example:
//
//	mgr, err := storage.New(ctx, configs.GetConfig())
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	dbClient := mgr.GetDBClient()
//	files := mgr.GetFileStore()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/employeeman/pkg/configs"
	dbc "github.com/yeisme/employeeman/pkg/internal/storage/db"
	"github.com/yeisme/employeeman/pkg/internal/storage/filestore"
	kvc "github.com/yeisme/employeeman/pkg/internal/storage/kv"
	mqc "github.com/yeisme/employeeman/pkg/internal/storage/mq"
	nlog "github.com/yeisme/employeeman/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB    *dbc.Client
	Files filestore.Store
	KV    *kvc.Client
	MQ    *mqc.Client
}

// New 按配置初始化全部存储资源，任一失败时关闭已打开的资源.
func New(ctx context.Context, cfg configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	var err error

	if m.DB, err = dbc.New(ctx, cfg.DB, cfg.Metrics.Enabled); err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	if m.Files, err = filestore.New(ctx, cfg.Storage, cfg.CircuitBreaker); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}

	if m.KV, err = kvc.NewKVClient(ctx, cfg.KV); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init kv: %w", err)
	}

	if m.MQ, err = mqc.New(ctx, cfg.MQ, cfg.Metrics.Enabled); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init mq: %w", err)
	}

	nlog.Logger().Info().
		Str("db", string(cfg.DB.Type)).
		Str("disk", m.Files.Disk()).
		Str("kv", string(cfg.KV.Type)).
		Str("mq", string(cfg.MQ.Type)).
		Msg("storage manager initialized")

	return m, nil
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetFileStore 获取文件存储.
func (m *Manager) GetFileStore() filestore.Store {
	return m.Files
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 关闭全部已打开的资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
