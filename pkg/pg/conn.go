package pg

import (
	"database/sql"
)

type Config struct {
	User     string `env:"USER"`
	Host     string `env:"HOST"`
	Port     string `env:"PORT"`
	Password string `env:"PASSWORD"`
	Database string `env:"DBNAME"`
}

// newSqlConnection opens a plain database/sql handle; goose needs one.
func newSqlConnection(config Config) (*sql.DB, error) {
	return sql.Open("postgres", dsn(config))
}
