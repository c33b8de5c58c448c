package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lotview/lotview/app/cfg"
)

const maxRedirects = 5

// Fetcher downloads feed documents. Upstream dealer systems are often
// fronted by naive bot-blocking, so requests carry a browser-like header
// set. Retrying is a caller-level concern.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func NewFetcher() *Fetcher {
	c := cfg.Get()

	return &Fetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: c.UserAgent,
		timeout:   time.Duration(c.FetchTimeout) * time.Second,
	}
}

// Run issues a GET against the feed URL and returns the raw document.
// Any failure comes back as a *FetchError carrying its classification.
func (f *Fetcher) Run(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchTransport, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	defer resp.Body.Close()

	// Only an explicit 200 is processable. Everything else is surfaced
	// with its status code so the operator sees what upstream said.
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: FetchBadStatus, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyFetchError(err)
	}

	return data, nil
}
