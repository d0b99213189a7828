package clients

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConnString(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "merck", Password: "pw", Name: "threats"}
	assert.Equal(t, "postgres://merck:pw@db:5432/threats?sslmode=disable", cfg.ConnString())

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://merck:pw@db:5432/threats?sslmode=require", cfg.ConnString())

	cfg.DSN = "postgres://other/db"
	assert.Equal(t, "postgres://other/db", cfg.ConnString())
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.True(t, isConnectionError(errors.New("read: i/o timeout")))
	assert.False(t, isConnectionError(errors.New("WRONGTYPE")))
}

func TestExpireSeconds(t *testing.T) {
	assert.Zero(t, expireSeconds(0))
	assert.Zero(t, expireSeconds(-time.Minute))
	assert.Equal(t, int64(1), expireSeconds(300*time.Millisecond))
	assert.Equal(t, int64(86400), expireSeconds(24*time.Hour))
}
