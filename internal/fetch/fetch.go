// Package fetch retrieves item pages. The resolution cache depends
// only on the PageFetcher capability, so the plain HTTP client, the
// badger-backed page cache and test fakes are all interchangeable.
package fetch

import "context"

// Page is a fetched document. FinalURL is the URL after redirects,
// which relative references inside Body resolve against.
type Page struct {
	Body     []byte
	FinalURL string
}

type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (Page, error)
}

// FetcherFunc adapts a function to the PageFetcher interface.
type FetcherFunc func(ctx context.Context, url string) (Page, error)

func (f FetcherFunc) FetchPage(ctx context.Context, url string) (Page, error) {
	return f(ctx, url)
}
