package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"time"

	"amazon-suisyou/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("fetch")

// the user agent the storefront has been serving full pages to for
// years; item pages render differently for unknown agents
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

const defaultTimeout = time.Second * 20

type ClientOptions struct {
	// overrides the pinned desktop user agent when non-empty
	UserAgent string
	// page-load timeout, defaults to 20s
	Timeout time.Duration
	// when MaxDelay > 0, every fetch waits a uniformly random
	// duration in [MinDelay, MaxDelay] before hitting the network
	MinDelay time.Duration
	MaxDelay time.Duration
	// when non-nil, request/response pairs are dumped here at debug
	// level
	InstrumentOutput restyutil.InstrumentOutput
}

// Client fetches pages over plain HTTP. It carries a cookie jar and
// the cloudflare bypass transport so consecutive item pages come from
// one browsing session.
type Client struct {
	http     *resty.Client
	minDelay time.Duration
	maxDelay time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client.SetTimeout(timeout)

	restyutil.InstrumentClient(client, tracer, opts.InstrumentOutput)

	return &Client{
		http:     client,
		minDelay: opts.MinDelay,
		maxDelay: opts.MaxDelay,
	}, nil
}

func (c *Client) FetchPage(ctx context.Context, url string) (Page, error) {
	if err := c.politenessDelay(ctx); err != nil {
		return Page{}, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return Page{}, err
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return Page{}, fmt.Errorf("fetch %s: status %d", url, res.StatusCode())
	}

	finalUrl := url
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}

	return Page{
		Body:     res.Body(),
		FinalURL: finalUrl,
	}, nil
}

func (c *Client) politenessDelay(ctx context.Context) error {
	if c.maxDelay <= 0 {
		return nil
	}

	minMs := int(c.minDelay / time.Millisecond)
	maxMs := int(c.maxDelay / time.Millisecond)
	if maxMs < minMs {
		maxMs = minMs
	}
	waitMs, err := random.IntRange(minMs, maxMs+1)
	if err != nil {
		slog.DebugContext(ctx, "politeness jitter failed, skipping delay", "err", err)
		return nil
	}

	select {
	case <-time.After(time.Duration(waitMs) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
