package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"png_compression/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.MYSQL{
		Host:     "db",
		Port:     "3306",
		Username: "app",
		Password: "pw",
		Dbname:   "images",
	})
	assert.Equal(t, "app:pw@tcp(db:3306)/images?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}
