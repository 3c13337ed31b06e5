package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN("booking", "p@ss:word", "db.internal", "3307", "spacebooking")

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "booking", cfg.User)
	assert.Equal(t, "p@ss:word", cfg.Passwd)
	assert.Equal(t, "db.internal:3307", cfg.Addr)
	assert.Equal(t, "spacebooking", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Loc.String())
}
