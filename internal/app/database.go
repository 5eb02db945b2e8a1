package app

import (
	"fmt"
	"path"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/toughrent/config"
)

// getDatabase opens the configured database. Postgres is the production
// target; sqlite exists for small deployments and tests.
func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	switch cfg.Type {
	case "sqlite":
		dbfile := path.Join(workdir, "data", cfg.Name+".db")
		db, err := gorm.Open(sqlite.Open(dbfile), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			zap.S().Fatalf("open sqlite database failed: %v", err)
		}
		return db
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			zap.S().Fatalf("open postgres database failed: %v", err)
		}
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.SetMaxOpenConns(cfg.MaxConn)
			sqlDB.SetMaxIdleConns(cfg.IdleConn)
			sqlDB.SetConnMaxLifetime(time.Hour)
		}
		return db
	}
}
