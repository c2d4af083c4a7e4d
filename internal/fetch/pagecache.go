package fetch

import (
	"bytes"
	"context"
	"encoding/gob"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errPageNotCached = badger.ErrKeyNotFound

type cachedPage struct {
	Body      []byte
	FinalURL  string
	FetchedAt int64
	ExpiresAt int64
}

const defaultPageLifetime = time.Hour * 24
const defaultLruSize = 512

type CachedFetcherOptions struct {
	// durable page lifetime, defaults to 24h
	Lifetime time.Duration
	// in-process lru entry count, defaults to 512
	LruSize int
}

// CachedFetcher keeps raw pages in badger (fronted by an in-process
// lru) so repeated extraction runs against the same items do not
// re-hit the site. It sits below the resolution cache: a resolved key
// never reaches this layer again, the page cache only absorbs re-runs
// after the resolution store was wiped or extended.
type CachedFetcher struct {
	inner    PageFetcher
	db       *badger.DB
	lru      *expirable.LRU[string, cachedPage]
	lifetime time.Duration
}

func NewCachedFetcher(inner PageFetcher, db *badger.DB, opts CachedFetcherOptions) *CachedFetcher {
	lifetime := opts.Lifetime
	if lifetime == 0 {
		lifetime = defaultPageLifetime
	}
	lruSize := opts.LruSize
	if lruSize == 0 {
		lruSize = defaultLruSize
	}
	return &CachedFetcher{
		inner:    inner,
		db:       db,
		lru:      expirable.NewLRU[string, cachedPage](lruSize, nil, lifetime),
		lifetime: lifetime,
	}
}

func (f *CachedFetcher) key(rawurl string) (string, error) {
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return normalized, nil
}

func (f *CachedFetcher) get(ctx context.Context, key string) (cachedPage, error) {
	ctx, span := tracer.Start(ctx, "pagecache:get")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "cache_key",
		Value: attribute.StringValue(key),
	})

	if cached, hit := f.lru.Get(key); hit {
		span.SetStatus(codes.Ok, "LRU HIT")
		return cached, nil
	}

	tx := f.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return cachedPage{}, errPageNotCached
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return cachedPage{}, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return cachedPage{}, err
	}

	decoder := gob.NewDecoder(bytes.NewBuffer(serialized))

	var cached cachedPage
	err = decoder.Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return cachedPage{}, err
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(attribute.KeyValue{
			Key:   "key",
			Value: attribute.StringValue(key),
		}))

		tx := f.db.NewTransaction(true)
		defer tx.Commit()

		err = tx.Delete([]byte(key))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return cachedPage{}, errPageNotCached
	}

	f.lru.Add(key, cached)
	return cached, nil
}

func (f *CachedFetcher) set(ctx context.Context, key string, page cachedPage) error {
	ctx, span := tracer.Start(ctx, "pagecache:set")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "cache_key",
		Value: attribute.StringValue(key),
	})

	serialized := bytes.NewBuffer(nil)
	encoder := gob.NewEncoder(serialized)
	err := encoder.Encode(page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	tx := f.db.NewTransaction(true)
	defer tx.Commit()

	err = tx.Set([]byte(key), serialized.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}

	f.lru.Add(key, page)
	return nil
}

func (f *CachedFetcher) FetchPage(ctx context.Context, rawurl string) (Page, error) {
	ctx, span := tracer.Start(ctx, "pagecache:FetchPage")
	defer span.End()

	key, err := f.key(rawurl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return Page{}, err
	}

	cached, err := f.get(ctx, key)
	if err == nil {
		span.SetStatus(codes.Ok, "CACHE HIT")
		return Page{Body: cached.Body, FinalURL: cached.FinalURL}, nil
	}
	if err != errPageNotCached {
		span.RecordError(err)
		span.AddEvent("CACHE ERROR", trace.WithAttributes(attribute.KeyValue{
			Key:   "log.severity",
			Value: attribute.StringValue("WARN"),
		}))
	}

	page, err := f.inner.FetchPage(ctx, rawurl)
	if err != nil {
		return Page{}, err
	}

	now := time.Now()
	err = f.set(ctx, key, cachedPage{
		Body:      page.Body,
		FinalURL:  page.FinalURL,
		FetchedAt: now.Unix(),
		ExpiresAt: now.Add(f.lifetime).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to cache page")
	}

	return page, nil
}
