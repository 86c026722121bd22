// Package app 提供应用程序的初始化、运行与关闭.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/employeeman/pkg/api"
	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/jobs"
	"github.com/yeisme/employeeman/pkg/internal/mq"
	"github.com/yeisme/employeeman/pkg/internal/service"
	"github.com/yeisme/employeeman/pkg/internal/storage"
	"github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/metrics"
	"github.com/yeisme/employeeman/pkg/queue"
	"github.com/yeisme/employeeman/pkg/scheduler"
	"github.com/yeisme/employeeman/pkg/tracing"
)

// shutdownTimeout 优雅关闭时等待进行中请求的最长时间.
const shutdownTimeout = 10 * time.Second

// App 持有进程级资源.
type App struct {
	Engine   *gin.Engine
	Manager  *storage.Manager
	Services *service.Services

	config *configs.AppConfig
}

// Bootstrap 加载配置并初始化日志、追踪与指标，命令行子命令共用.
func Bootstrap(configPath string) (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	log.Init()

	config := configs.GetConfig()

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	metrics.Init(config.Metrics)

	return config, nil
}

// NewApp 初始化配置、存储与业务服务，并组装 HTTP 引擎.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	config, err := Bootstrap(configPath)
	if err != nil {
		return nil, err
	}

	manager, err := storage.New(ctx, *config)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	svc := service.FromManager(manager, *config)

	return &App{
		Engine:   api.NewEngine(config, manager, svc),
		Manager:  manager,
		Services: svc,
		config:   config,
	}, nil
}

// Config 返回加载后的配置.
func (a *App) Config() *configs.AppConfig {
	return a.config
}

// Run 启动 HTTP 服务、定时任务与事件消费者，ctx 取消后优雅关闭并返回.
func (a *App) Run(ctx context.Context) error {
	sched, err := a.startScheduler(ctx)
	if err != nil {
		return err
	}

	var consumer *mq.LogConsumer

	if a.config.Events.Enabled && a.config.Events.LogConsumer {
		if consumer, err = mq.NewLogConsumer(a.Manager.GetMQClient(), queue.AllTopics); err != nil {
			if sched != nil {
				_ = sched.Stop()
			}

			return fmt.Errorf("init event consumer: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.config.Server.Host, strconv.Itoa(a.config.Server.Port)),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	g.Go(func() error {
		log.Logger().Info().Str("addr", srv.Addr).Msg("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if sched != nil {
			err = errors.Join(err, sched.Stop())
		}

		return err
	})

	if consumer != nil {
		g.Go(func() error { return consumer.Run(ctx) })
	}

	return g.Wait()
}

// startScheduler 注册并启动定时任务，对账关闭时返回 nil.
func (a *App) startScheduler(ctx context.Context) (*scheduler.Scheduler, error) {
	if !a.config.Reconcile.Enabled {
		return nil, nil
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(context.WithoutCancel(ctx), sched, a.Services, a.config.Reconcile); err != nil {
		_ = sched.Stop()
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	sched.Start()

	return sched, nil
}

// Close 释放存储资源并刷新追踪数据.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(tracing.ShutdownTracer(ctx), a.Manager.Close())
}
