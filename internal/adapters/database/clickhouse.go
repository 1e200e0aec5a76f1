package database

import (
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"

	"github.com/tacticalpha/regime-engine/pkg/logger"
)

// NewClickHouse creates a connection to the analytics sink using the
// same DB wrapper as Postgres, so repositories can take either handle
func NewClickHouse(dsn string) (*DB, error) {
	conn, err := sqlx.Connect("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)

	logger.Info("clickhouse connection established")

	return &DB{conn: conn}, nil
}
