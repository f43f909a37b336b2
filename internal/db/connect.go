// Package db opens the journal database.
package db

import (
	"fmt"
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/zulandar/railsection/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLDSN builds a DSN for a MySQL-compatible server.
func MySQLDSN(user, host string, port int, database string) string {
	c := gomysql.NewConfig()
	c.User = user
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = database
	c.ParseTime = true
	return c.FormatDSN()
}

// Open opens the journal database described by cfg. An explicit DSN wins
// over host, port and database for mysql.
func Open(cfg config.JournalConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = MySQLDSN(cfg.User, cfg.Host, cfg.Port, cfg.Database)
		}
		return open(mysql.Open(dsn), "mysql "+redact(dsn))
	case "", "sqlite":
		path := cfg.Path
		if cfg.DSN != "" {
			path = cfg.DSN
		}
		if path == "" {
			path = "railsection.db"
		}
		return open(sqlite.Open(path), "sqlite "+path)
	default:
		return nil, fmt.Errorf("db: unknown driver %q", cfg.Driver)
	}
}

func open(dialector gorm.Dialector, desc string) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s: %w", desc, err)
	}
	return db, nil
}

// redact hides the password of a mysql DSN for error messages.
func redact(dsn string) string {
	c, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "(unparseable dsn)"
	}
	if c.Passwd != "" {
		c.Passwd = "xxxxx"
	}
	return c.FormatDSN()
}
