package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai2c-dataviz/internal/common/config"
)

func TestNewRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	c := &PostgresClient{DB: db}
	mock.ExpectPing()
	assert.NoError(t, c.Ping(context.Background()))

	mock.ExpectClose()
	assert.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_AppliesPool(t *testing.T) {
	c, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "analytics", User: "u", Password: "p",
		SSLMode: "disable", MaxConnections: 7, MaxIdle: 2,
	})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 7, c.DB.Stats().MaxOpenConnections)
}
