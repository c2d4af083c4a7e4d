package fetch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestBadger(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCachedFetcher(t *testing.T) {
	db := openTestBadger(t)

	fetches := 0
	inner := FetcherFunc(func(ctx context.Context, url string) (Page, error) {
		fetches++
		return Page{Body: []byte("page " + url), FinalURL: url}, nil
	})
	fetcher := NewCachedFetcher(inner, db, CachedFetcherOptions{})

	ctx := context.Background()
	itemUrl := "https://item.rakuten.co.jp/hype/7987560/"

	first, err := fetcher.FetchPage(ctx, itemUrl)
	require.NoError(t, err)
	require.Equal(t, 1, fetches)

	second, err := fetcher.FetchPage(ctx, itemUrl)
	require.NoError(t, err)
	require.Equal(t, 1, fetches)
	require.Equal(t, first.Body, second.Body)
	require.Equal(t, first.FinalURL, second.FinalURL)

	// fragments are not part of the cache key
	third, err := fetcher.FetchPage(ctx, itemUrl+"#reviews")
	require.NoError(t, err)
	require.Equal(t, 1, fetches)
	require.Equal(t, first.Body, third.Body)
}

func TestCachedFetcherExpiry(t *testing.T) {
	db := openTestBadger(t)

	fetches := 0
	inner := FetcherFunc(func(ctx context.Context, url string) (Page, error) {
		fetches++
		return Page{Body: []byte(fmt.Sprintf("fetch %d", fetches)), FinalURL: url}, nil
	})
	fetcher := NewCachedFetcher(inner, db, CachedFetcherOptions{
		Lifetime: time.Nanosecond,
	})

	ctx := context.Background()
	itemUrl := "https://item.rakuten.co.jp/hype/7987560/"

	_, err := fetcher.FetchPage(ctx, itemUrl)
	require.NoError(t, err)
	_, err = fetcher.FetchPage(ctx, itemUrl)
	require.NoError(t, err)
	require.Equal(t, 2, fetches)
}

func TestCachedFetcherFetchFailure(t *testing.T) {
	db := openTestBadger(t)

	fetches := 0
	inner := FetcherFunc(func(ctx context.Context, url string) (Page, error) {
		fetches++
		return Page{}, fmt.Errorf("connection refused")
	})
	fetcher := NewCachedFetcher(inner, db, CachedFetcherOptions{})

	ctx := context.Background()
	itemUrl := "https://item.rakuten.co.jp/hype/7987560/"

	_, err := fetcher.FetchPage(ctx, itemUrl)
	require.Error(t, err)

	// failures are not cached at this layer, the next call tries again
	_, err = fetcher.FetchPage(ctx, itemUrl)
	require.Error(t, err)
	require.Equal(t, 2, fetches)
}
