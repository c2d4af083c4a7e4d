package imagecache

import (
	"context"
	"testing"
	"time"

	"amazon-suisyou/internal/imagecache/db"
	"amazon-suisyou/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestSQLStore(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "internal/imagecache",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewSQLStore(setup.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, loaded, 0)
	}
	{
		require.NoError(t, store.Put(ctx, "7987560", "https://image.rakuten.co.jp/a.jpg"))
		require.NoError(t, store.Put(ctx, "1234567", ""))

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, map[string]string{
			"7987560": "https://image.rakuten.co.jp/a.jpg",
			"1234567": "",
		}, loaded)
	}
	{
		// upsert: one row per key, last write wins
		require.NoError(t, store.Put(ctx, "7987560", "https://image.rakuten.co.jp/b.jpg"))

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, "https://image.rakuten.co.jp/b.jpg", loaded["7987560"])
		require.Len(t, loaded, 2)
	}
	{
		require.NoError(t, store.Delete(ctx, "1234567"))

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, map[string]string{
			"7987560": "https://image.rakuten.co.jp/b.jpg",
		}, loaded)
	}
}

func TestResolverOnSQLStore(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "internal/imagecache/resolver",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewSQLStore(setup.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	fetcher := &countingFetcher{}
	resolver, err := NewResolver(ctx, store, fetcher, ResolverOptions{})
	if err != nil {
		t.Fatal(err)
	}

	first := resolver.Resolve(ctx, "7987560")
	require.Equal(t, "https://item.rakuten.co.jp/img/main.jpg", first.ImageURL)
	require.Equal(t, 1, fetcher.fetches)

	// a second resolver over the same database sees the write-through
	resolver2, err := NewResolver(ctx, store, fetcher, ResolverOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second := resolver2.Resolve(ctx, "7987560")
	require.True(t, second.CacheHit)
	require.Equal(t, first.ImageURL, second.ImageURL)
	require.Equal(t, 1, fetcher.fetches)
}
