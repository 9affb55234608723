package app

import (
	"errors"
	"fmt"

	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/provider"
	"github.com/checkout-core/internal/router"
	"github.com/checkout-core/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unknown mode: %q", mode)
	}

	container := provider.NewContainer(cfg)

	// 结算配置在任何请求之前落库，读路径不再隐式创建
	created, err := container.SettingService.Bootstrap()
	if err != nil {
		return nil, fmt.Errorf("bootstrap settlement settings failed: %w", err)
	}
	if created {
		logger.Infow("app_settlement_settings_created")
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	// 初始化 Worker 服务；队列关闭时审计日志直接落库，all 模式下跳过 worker
	if mode == ModeAll || mode == ModeWorker {
		if !cfg.Queue.Enabled && mode == ModeAll {
			logger.Warnw("app_worker_skipped_queue_disabled")
		} else {
			workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

func listenAddr(cfg *config.Config) string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}
