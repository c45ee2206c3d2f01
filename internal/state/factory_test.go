package state

import (
	"context"
	"testing"

	"github.com/ETAnderson/catalogfeed/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_MemoryByDefault(t *testing.T) {
	res, err := NewStore(context.Background(), FactoryConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, res.Store)
	assert.Nil(t, res.DB)
}

func TestNewStore_MySQLRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), FactoryConfig{Backend: "MySQL"})
	require.Error(t, err)
}

func TestNewStore_BadDSN(t *testing.T) {
	_, err := NewStore(context.Background(), FactoryConfig{Backend: "mysql", MySQL: db.Config{DSN: "not a dsn"}})
	require.ErrorContains(t, err, "open mysql")
}

func TestNewStore_UnknownBackend(t *testing.T) {
	_, err := NewStore(context.Background(), FactoryConfig{Backend: "redis"})
	require.ErrorIs(t, err, ErrUnknownBackend)
}
