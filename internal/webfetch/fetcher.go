package webfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultMaxResponseBytes caps response bodies at 1 MiB.
	DefaultMaxResponseBytes int64 = 1 << 20
	// DefaultMaxRedirects bounds the manually-followed redirect chain.
	DefaultMaxRedirects = 5
	// DefaultTimeout is the fixed per-request timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxLength is the extraction truncation applied when the caller
	// passes no limit.
	DefaultMaxLength = 5000

	userAgent = "Recollect/1.0"
)

// ExtractMode selects how the fetched body is returned.
type ExtractMode string

const (
	ModeText  ExtractMode = "text"
	ModeRaw   ExtractMode = "raw"
	ModeLinks ExtractMode = "links"
)

// Link is one anchor extracted in ModeLinks.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Result is the outcome of a successful fetch. Immutable once returned.
// ContentLength counts runes, the same unit maxLength truncates in.
type Result struct {
	FinalURL      string `json:"url"`
	Content       string `json:"content,omitempty"`
	Links         []Link `json:"links,omitempty"`
	LinkCount     int    `json:"link_count,omitempty"`
	ContentLength int    `json:"content_length"`
	StatusCode    int    `json:"status_code"`
	ContentType   string `json:"content_type,omitempty"`
}

// Fetcher performs SSRF-safe bounded fetches. It owns the redirect loop
// explicitly: transport-level auto-follow cannot re-validate each hop, so it
// is disabled and every Location target goes back through the Validator.
//
// A Fetcher is a pure function of its arguments plus the network; concurrent
// use from multiple goroutines is safe.
type Fetcher struct {
	MaxResponseBytes int64
	MaxRedirects     int
	Timeout          time.Duration
	Validator        *Validator
	Logger           *slog.Logger

	client *http.Client
}

// NewFetcher returns a Fetcher with the default caps. The underlying client
// never follows redirects on its own.
func NewFetcher() *Fetcher {
	return &Fetcher{
		MaxResponseBytes: DefaultMaxResponseBytes,
		MaxRedirects:     DefaultMaxRedirects,
		Timeout:          DefaultTimeout,
		Validator:        NewValidator(),
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// SetTransport replaces the HTTP transport. Tests use it to route fake
// hostnames at a local server.
func (f *Fetcher) SetTransport(rt http.RoundTripper) {
	f.client.Transport = rt
}

// FetchSync is the blocking convenience form of Fetch.
func (f *Fetcher) FetchSync(rawURL string, mode ExtractMode, maxLength int) (*Result, error) {
	return f.Fetch(context.Background(), rawURL, mode, maxLength)
}

// Fetch validates rawURL, follows redirects manually with per-hop
// re-validation, enforces the size cap, and extracts content per mode.
// If MaxRedirects requests all return redirects, the last response is
// treated as final rather than raising a separate error; its Location is
// still validated and an unsafe target is blocked.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, mode ExtractMode, maxLength int) (*Result, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	maxRedirects := f.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	maxBytes := f.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	if vr := f.Validator.Validate(rawURL); !vr.Safe {
		return nil, &ValidationError{URL: rawURL, Reason: vr.Err}
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	current := rawURL
	for hop := 0; hop < maxRedirects; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return nil, &TransportError{URL: current, Err: err}
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, &TransportError{URL: current, Err: err}
		}

		target := redirectTarget(resp)
		if target != "" {
			// Every Location goes through the validator, even when the chain
			// is exhausted and the response will only be returned, not
			// followed.
			if vr := f.Validator.Validate(target); !vr.Safe {
				drain(resp.Body)
				resp.Body.Close()
				return nil, &RedirectBlockedError{Target: target, Reason: vr.Err}
			}
			if hop < maxRedirects-1 {
				drain(resp.Body)
				resp.Body.Close()
				if f.Logger != nil {
					f.Logger.Debug("following redirect", "from", current, "to", target, "hop", hop+1)
				}
				current = target
				continue
			}
		}

		// Terminal response — or the chain is exhausted, in which case the
		// last redirect response stands in as final.
		body, err := readBounded(resp.Body, maxBytes)
		resp.Body.Close()
		if err != nil {
			if err == ErrResponseTooLarge {
				return nil, err
			}
			return nil, &TransportError{URL: current, Err: err}
		}

		if resp.StatusCode >= 400 {
			return nil, &TransportError{URL: current, Err: fmt.Errorf("unexpected status %s", resp.Status)}
		}

		return extract(current, resp, body, mode, maxLength)
	}

	// Unreachable: the loop always returns on its final iteration.
	return nil, &TransportError{URL: current, Err: fmt.Errorf("no response received")}
}

// redirectTarget returns the absolute redirect target of resp, or "" when
// resp is not a redirect or carries no usable Location.
func redirectTarget(resp *http.Response) string {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return ""
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return ""
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return ""
	}
	return resp.Request.URL.ResolveReference(ref).String()
}

// readBounded reads at most maxBytes from r, failing with
// ErrResponseTooLarge if more data is available. The over-limit content is
// not retained.
func readBounded(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

// drain discards a redirect hop's body so the connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 32*1024))
}
