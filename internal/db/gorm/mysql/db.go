package mysql

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"png_compression/config"
)

const maxOpenConns = 20

// DSN builds the go-sql-driver DSN for cfg.
func DSN(cfg config.MYSQL) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Dbname)
}

// NewDB opens a traced connection pool.
func NewDB(cfg config.MYSQL) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{DSN: DSN(cfg)}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to open db connection")
	}

	if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Dbname))); err != nil {
		return nil, errors.Wrap(err, "failed to set gorm plugin for opentelemetry")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql db")
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
