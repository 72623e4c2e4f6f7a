package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/config"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/db"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/logger"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/repository/dao"
)

const configPath = "./cmd/app/config.yml"

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL, conf.Postgres)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	if conf.Postgres.AutoMigrate {
		if err = dao.InitTables(postgresDB); err != nil {
			return fmt.Errorf("failed to initialize tables -> %w", err)
		}
	}

	rdb, err := db.OpenRedis(context.Background(), conf.Redis)
	if err != nil {
		// Rate limiting is optional; serve without it.
		zap.L().Warn("redis unavailable, ticket submissions are not rate limited", zap.Error(err))
		rdb = nil
	}

	err = config.Watch(configPath, func(updated *config.AppConfig) {
		if err := logger.SetLevel(updated.Log.Level); err != nil {
			zap.L().Warn("ignoring log level from reloaded config", zap.Error(err))
			return
		}
		zap.L().Info("config reloaded", zap.String("log_level", updated.Log.Level))
	}, func(err error) {
		zap.L().Warn("config reload failed", zap.Error(err))
	})
	if err != nil {
		zap.L().Warn("config watch disabled", zap.Error(err))
	}

	s := api.NewServer(conf, postgresDB, rdb)

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}
