package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "forever", []byte("x"), 0))
	now = now.Add(24 * time.Hour)
	_, err = m.Get(ctx, "forever")
	assert.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "forever"))
	_, err = m.Get(ctx, "forever")
	assert.ErrorIs(t, err, ErrMiss)
}

type brokenProvider struct{}

func (brokenProvider) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenProvider) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenProvider) Delete(context.Context, string) error { return nil }

func TestRemember(t *testing.T) {
	ctx := context.Background()

	t.Run("computes once", func(t *testing.T) {
		m := NewMemory()
		calls := 0
		fn := func() ([]int, error) {
			calls++
			return []int{1, 2, 3}, nil
		}
		first, err := Remember(ctx, m, "ids", time.Minute, fn)
		require.NoError(t, err)
		second, err := Remember(ctx, m, "ids", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		m := NewMemory()
		_, err := Remember(ctx, m, "k", time.Minute, func() (string, error) { return "", errors.New("nope") })
		assert.Error(t, err)
		_, err = m.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("broken cache falls through", func(t *testing.T) {
		v, err := Remember(ctx, brokenProvider{}, "k", time.Minute, func() (string, error) { return "fresh", nil })
		require.NoError(t, err)
		assert.Equal(t, "fresh", v)
	})

	t.Run("undecodable entry is recomputed", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", []byte("{not json"), 0))
		v, err := Remember(ctx, m, "k", time.Minute, func() (int, error) { return 7, nil })
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})
}

func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, "carclub-test:")
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer r.Close()

	require.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, r.Delete(ctx, "k"))
	_, err = r.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := NewRedis(ctx, "127.0.0.1:1", "", 0, "")
	assert.Error(t, err)
}
