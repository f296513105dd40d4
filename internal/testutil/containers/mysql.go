//go:build integration

package containers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"gorm.io/gorm"

	"github.com/bhv-platform/bhv-go/internal/conf"
	"github.com/bhv-platform/bhv-go/internal/datastore"
)

// validTableNameRe matches MySQL identifiers: letters, digits, underscore and
// dollar sign, not starting with a digit.
var validTableNameRe = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

// MySQLContainer is a MySQL instance with a migrated alert store on top.
type MySQLContainer struct {
	container *mysql.MySQLContainer
	manager   *datastore.Manager
	settings  conf.DatabaseSettings
}

// MySQLConfig holds configuration for MySQL container creation.
type MySQLConfig struct {
	Database string
	Username string
	Password string
	ImageTag string
}

// DefaultMySQLConfig returns the configuration used when nil is passed.
func DefaultMySQLConfig() MySQLConfig {
	return MySQLConfig{
		Database: "bhv_test",
		Username: "bhv",
		Password: "bhvpass",
		ImageTag: "8.0",
	}
}

// NewMySQLContainer starts MySQL and opens a migrated datastore.Manager on it.
func NewMySQLContainer(ctx context.Context, config *MySQLConfig) (*MySQLContainer, error) {
	if config == nil {
		defaultCfg := DefaultMySQLConfig()
		config = &defaultCfg
	}

	container, err := mysql.Run(ctx, "mysql:"+config.ImageTag,
		mysql.WithDatabase(config.Database),
		mysql.WithUsername(config.Username),
		mysql.WithPassword(config.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start MySQL container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "3306/tcp")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	var settings conf.DatabaseSettings
	settings.Driver = conf.DriverMySQL
	settings.MySQL.Host = host
	settings.MySQL.Port, _ = strconv.Atoi(port.Port())
	settings.MySQL.Username = config.Username
	settings.MySQL.Password = config.Password
	settings.MySQL.Database = config.Database

	manager, err := datastore.NewManager(settings, nil)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, err
	}
	if err := manager.Initialize(); err != nil {
		_ = manager.Close()
		_ = testcontainers.TerminateContainer(container)
		return nil, err
	}

	return &MySQLContainer{container: container, manager: manager, settings: settings}, nil
}

// DB returns the shared gorm handle. Tests must not close it.
func (c *MySQLContainer) DB() *gorm.DB {
	return c.manager.DB()
}

// Settings returns the database settings pointing at the container.
func (c *MySQLContainer) Settings() conf.DatabaseSettings {
	return c.settings
}

// Reset truncates tables with foreign key checks disabled.
func (c *MySQLContainer) Reset(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if !validTableNameRe.MatchString(table) {
			return fmt.Errorf("invalid table name: %s", table)
		}
	}

	return c.manager.DB().WithContext(ctx).Connection(func(tx *gorm.DB) error {
		if err := tx.Exec("SET FOREIGN_KEY_CHECKS = 0").Error; err != nil {
			return fmt.Errorf("failed to disable foreign key checks: %w", err)
		}
		for _, table := range tables {
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE `%s`", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return tx.Exec("SET FOREIGN_KEY_CHECKS = 1").Error
	})
}

// Terminate closes the connection pool and removes the container.
func (c *MySQLContainer) Terminate(ctx context.Context) error {
	if c.manager != nil {
		if err := c.manager.Close(); err != nil {
			fmt.Printf("Warning: failed to close database connection: %v\n", err)
		}
		c.manager = nil
	}
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}
