package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhammm008/Infosys-Team5/core"
)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	require.NoError(t, store.Set(ctx, "k", []byte("v2")))
	got, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, store.Delete(ctx, "k"))
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestMemory_copiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")
	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	testStore(t, store)

	// values survive reopening
	require.NoError(t, store.Set(ctx, "durable", []byte("yes")))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	got, err := store.Get(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, "yes", string(got))
}

func TestRedis(t *testing.T) {
	url := os.Getenv("LTMS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LTMS_TEST_REDIS_URL not set")
	}
	store, err := OpenRedis(context.Background(), url, "ltms-test")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	testStore(t, store)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		driver  string
		wantErr bool
	}{
		{name: "memory", driver: "memory"},
		{name: "default", driver: ""},
		{name: "sqlite", driver: "sqlite"},
		{name: "unknown", driver: "etcd", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conf := &core.Config{Prefs: core.PrefsConfig{Driver: tc.driver, Path: filepath.Join(t.TempDir(), "p.db")}}
			store, err := Open(ctx, conf)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, store.Close())
		})
	}
}
