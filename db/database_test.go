package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"echofm/config"
)

func TestDSNUsesLocalTimezone(t *testing.T) {
	cfg := &config.Config{
		DBUser:     "echofm",
		DBPassword: "pw",
		DBHost:     "127.0.0.1",
		DBPort:     "3306",
		DBName:     "echofm",
	}

	got := dsn(cfg)
	assert.Equal(t, "echofm:pw@tcp(127.0.0.1:3306)/echofm?parseTime=true&charset=utf8mb4&loc=Local", got)

	// Day bucketing groups DATETIMEs with DATE_FORMAT and labels the series
	// with local dates; a UTC session would shift plays across midnight.
	assert.Contains(t, got, "loc=Local")
	assert.Contains(t, got, "parseTime=true")
}
