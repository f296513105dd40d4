// Package datastore opens the alert store and owns its schema.
package datastore

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/bhv-platform/bhv-go/internal/conf"
	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
)

// Manager owns the gorm connection for the configured driver.
type Manager struct {
	db     *gorm.DB
	driver string
	log    logger.Logger
}

// Models lists every entity the store migrates.
func Models() []any {
	return []any{
		&entities.Alert{},
		&entities.AlertResponse{},
		&entities.ActivityLog{},
		&entities.User{},
	}
}

// NewManager opens a connection for settings.Driver. Call Initialize before use.
func NewManager(settings conf.DatabaseSettings, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Module("datastore")

	var dialector gorm.Dialector
	switch settings.Driver {
	case conf.DriverSQLite, "":
		path := settings.SQLite.Path
		if path == "" {
			path = "bhv.db"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return nil, errors.New(fmt.Errorf("failed to create database directory: %w", err)).
					Component("datastore").
					Category(errors.CategoryDatabase).
					Context("path", path).
					Build()
			}
		}
		dialector = sqlite.Open(path + "?_busy_timeout=5000&_journal_mode=WAL")
	case conf.DriverMySQL:
		dialector = mysql.Open(MySQLDSN(settings))
	default:
		return nil, errors.Newf("unsupported database driver %q", settings.Driver).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open %s database: %w", settings.Driver, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if settings.Driver == conf.DriverMySQL {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	} else {
		sqlDB.SetMaxOpenConns(1)
	}

	return &Manager{db: db, driver: settings.Driver, log: log}, nil
}

// MySQLDSN builds a go-sql-driver DSN with parseTime enabled.
func MySQLDSN(settings conf.DatabaseSettings) string {
	cfg := gomysql.NewConfig()
	cfg.User = settings.MySQL.Username
	cfg.Passwd = settings.MySQL.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(settings.MySQL.Host, strconv.Itoa(settings.MySQL.Port))
	cfg.DBName = settings.MySQL.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Initialize migrates the schema.
func (m *Manager) Initialize() error {
	if err := m.db.AutoMigrate(Models()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	m.log.Info("database schema ready", logger.String("driver", m.driver))
	return nil
}

// DB returns the gorm handle.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Ping checks connectivity.
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
