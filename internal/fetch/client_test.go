package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientFetchPage(t *testing.T) {
	var gotAgent string
	mux := http.NewServeMux()
	mux.HandleFunc("/hype/7987560/", func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<html>item</html>"))
	})
	mux.HandleFunc("/old/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hype/7987560/", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(ClientOptions{Timeout: time.Second * 5})
	require.NoError(t, err)

	ctx := context.Background()

	page, err := client.FetchPage(ctx, server.URL+"/old/")
	require.NoError(t, err)
	require.Equal(t, "<html>item</html>", string(page.Body))
	require.Equal(t, server.URL+"/hype/7987560/", page.FinalURL)
	require.Equal(t, defaultUserAgent, gotAgent)
}

func TestClientFetchPageNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{Timeout: time.Second * 5})
	require.NoError(t, err)

	_, err = client.FetchPage(context.Background(), server.URL+"/gone/")
	require.Error(t, err)
}

func TestClientPolitenessDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{
		Timeout:  time.Second * 5,
		MinDelay: time.Millisecond * 20,
		MaxDelay: time.Millisecond * 40,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), time.Millisecond*20)
}

func TestClientPolitenessDelayCancellation(t *testing.T) {
	client, err := NewClient(ClientOptions{
		MinDelay: time.Second * 30,
		MaxDelay: time.Second * 30,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.FetchPage(ctx, "http://127.0.0.1:0/unreachable")
	require.ErrorIs(t, err, context.Canceled)
}
