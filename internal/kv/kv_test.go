package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(context.Background(), shared.StorageConfig{Path: ":memory:"})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rds := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", 0)

	stores := map[string]Store{
		"memory":     NewMemoryStore(),
		"sqlite":     sqlite,
		"redis":      rds,
		"observable": Observe(NewMemoryStore()),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("Get Missing", func(t *testing.T) {
				_, err := store.Get(ctx, "missing")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("Set And Get", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "userToken", "abc"))
				got, err := store.Get(ctx, "userToken")
				require.NoError(t, err)
				assert.Equal(t, "abc", got)
			})

			t.Run("Set Overwrites", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "appTheme", "light"))
				require.NoError(t, store.Set(ctx, "appTheme", "dark"))
				got, err := store.Get(ctx, "appTheme")
				require.NoError(t, err)
				assert.Equal(t, "dark", got)
			})

			t.Run("Delete", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "gone", "soon"))
				require.NoError(t, store.Delete(ctx, "gone"))
				_, err := store.Get(ctx, "gone")
				assert.ErrorIs(t, err, ErrNotFound)

				assert.NoError(t, store.Delete(ctx, "never-existed"))
			})

			t.Run("MultiDelete", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "a", "1"))
				require.NoError(t, store.Set(ctx, "b", "2"))
				require.NoError(t, store.Set(ctx, "c", "3"))

				require.NoError(t, store.MultiDelete(ctx, "a", "b", "missing"))

				_, err := store.Get(ctx, "a")
				assert.ErrorIs(t, err, ErrNotFound)
				_, err = store.Get(ctx, "b")
				assert.ErrorIs(t, err, ErrNotFound)
				v, err := store.Get(ctx, "c")
				require.NoError(t, err)
				assert.Equal(t, "3", v)

				assert.NoError(t, store.MultiDelete(ctx))
			})

			t.Run("Lookup", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "present", "yes"))
				v, ok := Lookup(ctx, store, "present")
				assert.True(t, ok)
				assert.Equal(t, "yes", v)

				_, ok = Lookup(ctx, store, "absent")
				assert.False(t, ok)
			})
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, shared.StorageConfig{Driver: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("sqlite persists across reopen", func(t *testing.T) {
		cfg := shared.StorageConfig{Driver: "sqlite", Path: t.TempDir() + "/state.db"}

		s, err := Open(ctx, cfg)
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "favorites", `[{"key":"/works/OL1W"}]`))
		require.NoError(t, s.Close())

		reopened, err := Open(ctx, cfg)
		require.NoError(t, err)
		defer reopened.Close()

		v, err := reopened.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.Equal(t, `[{"key":"/works/OL1W"}]`, v)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := shared.StorageConfig{Driver: "redis"}
		cfg.Redis.Addr = mr.Addr()
		cfg.Redis.Prefix = "cf:"

		s, err := Open(ctx, cfg)
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "userToken", "t"))
		got, err := mr.Get("cf:userToken")
		require.NoError(t, err)
		assert.Equal(t, "t", got)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := shared.StorageConfig{Driver: "redis"}
		cfg.Redis.Addr = addr
		_, err := Open(ctx, cfg)
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, shared.StorageConfig{Driver: "etcd"})
		assert.True(t, errors.Is(err, shared.ErrUnknownDriver))
	})
}

func TestRedisStoreFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "", 0)
	defer store.Close()

	mr.SetError("READONLY simulated failure")

	ctx := context.Background()
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, shared.ErrStorageFailure)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Set(ctx, "k", "v"), shared.ErrStorageFailure)
}
