package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	MYSQL_CONN_MAX_LIFETIME = 5 * time.Minute
	MYSQL_MAX_OPEN_CONNS    = 10
	MYSQL_MAX_IDLE_CONNS    = 10
	MYSQL_TIMEOUT           = 10 * time.Second
)

// ConnectMySQL opens the legacy MySQL database that holds team members.
func ConnectMySQL(ctx context.Context, mysqlURI string) (*sql.DB, error) {
	mysqlDB, err := sql.Open("mysql", mysqlURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	mysqlDB.SetConnMaxLifetime(MYSQL_CONN_MAX_LIFETIME)
	mysqlDB.SetMaxOpenConns(MYSQL_MAX_OPEN_CONNS)
	mysqlDB.SetMaxIdleConns(MYSQL_MAX_IDLE_CONNS)

	ctx, cancel := context.WithTimeout(ctx, MYSQL_TIMEOUT)
	defer cancel()
	if err := mysqlDB.PingContext(ctx); err != nil {
		mysqlDB.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return mysqlDB, nil
}
