package database

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"notably/internal/platform/config"
)

// Connector owns the process-wide database handle. The first Get connects;
// every later Get returns the same pool. Safe for concurrent use.
type Connector struct {
	once   sync.Once
	db     *sql.DB
	err    error
	config config.DatabaseConfig
}

func NewConnector(cfg config.DatabaseConfig) *Connector {
	return &Connector{config: cfg}
}

func (c *Connector) Get() (*sql.DB, error) {
	c.once.Do(func() {
		db, err := sql.Open("sqlite3", c.config.Path)
		if err != nil {
			c.err = err
			return
		}

		maxConns := c.config.MaxConnections
		if maxConns < 1 {
			maxConns = 10
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)

		if err := db.Ping(); err != nil {
			db.Close()
			c.err = err
			return
		}

		c.db = db
	})
	return c.db, c.err
}

func (c *Connector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
