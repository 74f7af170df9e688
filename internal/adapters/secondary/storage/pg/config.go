package pg

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

type Config struct {
	Host                   string        `envconfig:"HOST"` // пустой - леджер в памяти
	Port                   string        `envconfig:"PORT" default:"5432"`
	Username               string        `envconfig:"USERNAME"`
	Password               string        `envconfig:"PASSWORD"`
	Database               string        `envconfig:"DATABASE"`
	SSLMode                string        `envconfig:"SSL_MODE" default:"disable"`
	StatementTimeoutMillis int           `envconfig:"STATEMENT_TIMEOUT" default:"60000"`
	MaxOpenConns           int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns           int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime        time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime        time.Duration `envconfig:"CONN_MAX_IDLE_TIME" default:"1m"`
	ApplicationName        string        `envconfig:"APPLICATION_NAME" default:"stars_bot"`
}

func (c *Config) toPgConnection() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.Host,
		c.Port,
		c.Username,
		c.Database,
		c.Password,
		c.SSLMode,
	)
}

// Enabled задан ли Postgres
func (c *Config) Enabled() bool {
	return c != nil && c.Host != ""
}

// connConfig statement_timeout и application_name уходят в startup каждого соединения пула
func (c *Config) connConfig() (*pgx.ConnConfig, error) {
	connectionConfig, err := pgx.ParseConfig(c.toPgConnection())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	if c.StatementTimeoutMillis > 0 {
		connectionConfig.RuntimeParams["statement_timeout"] = strconv.Itoa(c.StatementTimeoutMillis)
	}
	if c.ApplicationName != "" {
		connectionConfig.RuntimeParams["application_name"] = c.ApplicationName
	}
	return connectionConfig, nil
}

// NewConnection создает пул подключений через pgx stdlib и проверяет соединение
func (c *Config) NewConnection() (*sqlx.DB, error) {
	connectionConfig, err := c.connConfig()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("pgx", stdlib.RegisterConnConfig(connectionConfig))
	if err != nil {
		return nil, fmt.Errorf("connect db error: %w", err)
	}

	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)
	db.SetConnMaxIdleTime(c.ConnMaxIdleTime)

	return db, nil
}
