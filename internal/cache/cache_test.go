package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai2c-dataviz/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type schemaDoc map[string]string

var key = Key{Env: "dev", Survey: "pesquisa-01"}

func constLoad(v schemaDoc) LoadFunc[schemaDoc] {
	return func(context.Context) (schemaDoc, bool, error) { return v, true, nil }
}

// ==========================
// Local Semantics
// ==========================

func TestInsertIfAbsent_FirstWriterWins(t *testing.T) {
	c := New[schemaDoc]("schema")
	ctx := context.Background()

	first, inserted := c.InsertIfAbsent(ctx, key, schemaDoc{"Q1": "numeric"})
	require.True(t, inserted)

	second, inserted := c.InsertIfAbsent(ctx, key, schemaDoc{"Q1": "open-ended"})
	assert.False(t, inserted)
	assert.Equal(t, first, second)
	assert.Equal(t, "numeric", second["Q1"])
}

func TestReplace_SwapsWholeEntry(t *testing.T) {
	c := New[schemaDoc]("schema")
	ctx := context.Background()

	c.InsertIfAbsent(ctx, key, schemaDoc{"Q1": "numeric", "Q2": "open-ended"})
	c.Replace(ctx, key, schemaDoc{"Q3": "single-choice"})

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, schemaDoc{"Q3": "single-choice"}, got)
}

func TestGetOrLoad_LoadsOncePerKey(t *testing.T) {
	c := New[schemaDoc]("schema", WithLogger[schemaDoc](logger.NewTestLogger(t)))
	ctx := context.Background()

	var calls int32
	load := func(context.Context) (schemaDoc, bool, error) {
		atomic.AddInt32(&calls, 1)
		return schemaDoc{"Q1": "numeric"}, true, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(ctx, key, load)
			assert.NoError(t, err)
			assert.Equal(t, "numeric", v["Q1"])
		}()
	}
	wg.Wait()

	_, err := c.GetOrLoad(ctx, key, load)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, c.Len())
}

func TestGetOrLoad_ErrorsAreNotCached(t *testing.T) {
	c := New[schemaDoc]("schema")
	ctx := context.Background()

	_, err := c.GetOrLoad(ctx, key, func(context.Context) (schemaDoc, bool, error) {
		return nil, false, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrLoad(ctx, key, constLoad(schemaDoc{"Q1": "numeric"}))
	require.NoError(t, err)
	assert.Equal(t, "numeric", v["Q1"])
}

func TestGetOrLoad_UncacheableValuesPassThrough(t *testing.T) {
	c := New[schemaDoc]("table")
	ctx := context.Background()

	v, err := c.GetOrLoad(ctx, key, func(context.Context) (schemaDoc, bool, error) {
		return schemaDoc{}, false, nil
	})
	require.NoError(t, err)
	assert.Empty(t, v)
	_, ok := c.Get(key)
	assert.False(t, ok)
}

// ==========================
// Redis Backing
// ==========================

func TestRedisBacking_SharesFirstWrittenValue(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()

	processA := New[schemaDoc]("schema", WithBacking[schemaDoc](NewRedisBacking[schemaDoc](client, "schema")))
	processB := New[schemaDoc]("schema", WithBacking[schemaDoc](NewRedisBacking[schemaDoc](client, "schema")))

	a, err := processA.GetOrLoad(ctx, key, constLoad(schemaDoc{"Q1": "numeric"}))
	require.NoError(t, err)

	var loaded bool
	b, err := processB.GetOrLoad(ctx, key, func(context.Context) (schemaDoc, bool, error) {
		loaded = true
		return schemaDoc{"Q1": "open-ended"}, true, nil
	})
	require.NoError(t, err)

	assert.False(t, loaded)
	assert.Equal(t, a, b)
}

func TestRedisBacking_ReplaceOverwrites(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	c := New[schemaDoc]("schema", WithBacking[schemaDoc](NewRedisBacking[schemaDoc](client, "schema")))
	c.InsertIfAbsent(ctx, key, schemaDoc{"Q1": "numeric"})
	c.Replace(ctx, key, schemaDoc{"Q1": "single-choice"})

	raw, err := mr.Get("schema:dev:pesquisa-01")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Q1":"single-choice"}`, raw)
	assert.Equal(t, time.Duration(0), mr.TTL("schema:dev:pesquisa-01"))
}

func TestRedisBacking_FailureFallsBackToLocal(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("schema:dev:pesquisa-01").SetErr(errors.New("connection refused"))

	c := New[schemaDoc]("schema",
		WithBacking[schemaDoc](NewRedisBacking[schemaDoc](client, "schema")),
		WithLogger[schemaDoc](logger.NewTestLogger(t)),
	)

	v, err := c.GetOrLoad(context.Background(), key, constLoad(schemaDoc{"Q1": "numeric"}))
	require.NoError(t, err)
	assert.Equal(t, "numeric", v["Q1"])

	cached, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, v, cached)
}

func TestRedisBacking_MissingKey(t *testing.T) {
	_, client := setupRedis(t)
	b := NewRedisBacking[schemaDoc](client, "schema")

	_, ok, err := b.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
}
