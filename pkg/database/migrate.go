package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// 排程库 schema 以编号 SQL 内嵌在二进制中，启动时增量应用
//
//go:embed migrations/*.sql
var schemaFS embed.FS

// RunMigrations 将排程库 schema 迁移到最新版本
// 已是最新版本时为空操作；dirty 状态只告警，由运维人工介入
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("读取内嵌迁移脚本失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("构造 postgres 迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("构造迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("应用排程库迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("排程库迁移处于 dirty 状态，需人工处理", zap.Uint("version", version))
	} else {
		logger.Info("排程库 schema 已就绪", zap.Uint("version", version))
	}

	return nil
}
