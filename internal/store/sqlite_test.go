package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/snapshot"
)

func openTestSQLite(t *testing.T, dsn string) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLite(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLite_GetAbsentReturnsNilNil(t *testing.T) {
	b := openTestSQLite(t, ":memory:")

	v, err := b.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSQLite_SetUpsertDelete(t *testing.T) {
	b := openTestSQLite(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", []byte(`"old"`)))
	require.NoError(t, b.Set(ctx, "k", []byte(`"new"`)))

	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte(`"new"`), v)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"k"}, keys)

	require.NoError(t, b.Delete(ctx, "k"))
	v, err = b.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "profile.db")
	ctx := context.Background()

	b1, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	s1 := New(Options{Backend: b1})
	require.True(t, s1.ImportSnapshot(ctx, &snapshot.Snapshot{
		Services:    snapshot.Ptr([]entity.Service{{ID: "only"}}),
		PublishedID: "ignored-here",
	}))
	require.NoError(t, s1.SetLastPublishedID(ctx, "2024-01-01T00:00:00Z"))
	require.NoError(t, b1.Close())

	b2 := openTestSQLite(t, dsn)
	s2 := New(Options{Backend: b2})
	require.Equal(t, []entity.Service{{ID: "only"}}, s2.Services(ctx))
	require.Equal(t, "2024-01-01T00:00:00Z", s2.LastPublishedID(ctx))
}

func TestSQLite_StoreDefaults(t *testing.T) {
	s := New(Options{Backend: openTestSQLite(t, ":memory:")})
	ctx := context.Background()

	require.Equal(t, entity.LoadDefaults().HomePage, s.HomePage(ctx))
	require.NoError(t, s.SetHomePage(ctx, entity.HomePage{HeroTitle: "x"}))
	require.Equal(t, "x", s.HomePage(ctx).HeroTitle)
}
