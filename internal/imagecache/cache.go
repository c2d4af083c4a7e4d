package imagecache

import (
	"context"
	"log/slog"
	"strings"

	"amazon-suisyou/internal/fetch"
	"amazon-suisyou/internal/rakuten"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("imagecache")

// Resolution is the answer for one key. An empty ImageURL means
// "checked, nothing there" — the caller cannot tell a network failure
// from a page without the image, and per the cache's contract it does
// not need to.
type Resolution struct {
	ImageURL string
	CacheHit bool
}

// Extractor pulls the image URL out of a fetched page body.
type Extractor func(body []byte, baseURL string) (string, bool)

type ResolverOptions struct {
	// storefront used to build item URLs, defaults to rakuten.DefaultShop
	Shop string
	// defaults to rakuten.ExtractImage
	Extract Extractor
}

// Resolver owns the in-memory mirror of a Store plus the fetch
// capability. Construct one per session and pass it around; methods
// are not safe for concurrent use.
type Resolver struct {
	store   Store
	fetcher fetch.PageFetcher
	shop    string
	extract Extractor
	mem     map[string]string
}

// NewResolver hydrates the whole store into memory. Resolutions after
// this never read the store again, they only write through to it.
func NewResolver(ctx context.Context, store Store, fetcher fetch.PageFetcher, opts ResolverOptions) (*Resolver, error) {
	mem, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		mem = map[string]string{}
	}

	shop := opts.Shop
	if shop == "" {
		shop = rakuten.DefaultShop
	}
	extract := opts.Extract
	if extract == nil {
		extract = rakuten.ExtractImage
	}

	return &Resolver{
		store:   store,
		fetcher: fetcher,
		shop:    shop,
		extract: extract,
		mem:     mem,
	}, nil
}

// ItemURL returns the item page URL a key resolves through.
func (r *Resolver) ItemURL(key string) string {
	return rakuten.ItemURL(r.shop, key)
}

// Resolve turns a 7-digit lookup key into an image URL. Keys already
// in the cache — including ones memoized as failures — return without
// any network traffic. A miss costs exactly one page fetch, and the
// outcome is written through to memory and the durable store before
// returning. A failed store write is logged, not fatal: the worst case
// is one re-fetch after a crash.
func (r *Resolver) Resolve(ctx context.Context, key string) Resolution {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()

	key = strings.TrimSpace(key)
	span.SetAttributes(attribute.KeyValue{
		Key:   "lookup_key",
		Value: attribute.StringValue(key),
	})
	if key == "" {
		return Resolution{}
	}

	if value, seen := r.mem[key]; seen {
		span.SetStatus(codes.Ok, "CACHE HIT")
		return Resolution{ImageURL: value, CacheHit: true}
	}

	value := r.fetchAndExtract(ctx, key)

	r.mem[key] = value
	err := r.store.Put(ctx, key, value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist resolution")
		slog.WarnContext(ctx, "failed to persist resolution", "key", key, "err", err)
	}

	return Resolution{ImageURL: value}
}

// fetchAndExtract performs the single allowed network attempt for a
// key. Every failure mode collapses to the "" sentinel.
func (r *Resolver) fetchAndExtract(ctx context.Context, key string) string {
	ctx, span := tracer.Start(ctx, "fetchAndExtract")
	defer span.End()

	itemUrl := rakuten.ItemURL(r.shop, key)
	slog.DebugContext(ctx, "resolving key over the network", "key", key, "url", itemUrl)

	page, err := r.fetcher.FetchPage(ctx, itemUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch item page")
		return ""
	}

	baseUrl := page.FinalURL
	if baseUrl == "" {
		baseUrl = itemUrl
	}
	imageUrl, ok := r.extract(page.Body, baseUrl)
	if !ok {
		span.SetStatus(codes.Ok, "no image on page")
		return ""
	}
	return imageUrl
}
