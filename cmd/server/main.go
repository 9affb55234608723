package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/checkout-core/internal/app"
	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()
	defer func() { _ = logger.Z().Sync() }()

	for name, secret := range map[string]string{
		"user_jwt":     cfg.UserJWT.SecretKey,
		"operator_jwt": cfg.OperatorJWT.SecretKey,
	} {
		if !isWeakSecret(secret) {
			continue
		}
		if cfg.Server.Mode == "release" {
			log.Fatalw("jwt_secret_weak", "key", name)
		}
		log.Warnw("jwt_secret_weak", "key", name, "hint", "configure a strong random secret before going to production")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		log.Fatalw("database_init_failed", "driver", cfg.Database.Driver, "error", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		log.Fatalw("database_migrate_failed", "error", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  log,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		log.Fatalw("server_run_failed", "mode", mode, "error", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
