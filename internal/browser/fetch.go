package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/simp-lee/storeadmin/internal/domain"
)

// maxBodyBytes bounds how much of a response body is decoded.
const maxBodyBytes = 8 << 20

// TokenProvider returns the bearer token for the current session. An empty
// token with a nil error means the request is sent unauthenticated.
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken returns a provider that always yields token.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// Client issues list and detail requests against the catalog API.
// It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenProvider
	editors []RequestEditor
	logger  *slog.Logger
}

// RequestEditor adjusts an outgoing request before it is sent, for example to
// propagate a request ID taken from ctx.
type RequestEditor func(ctx context.Context, req *http.Request)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenProvider sets the credential source used for the Authorization header.
func WithTokenProvider(p TokenProvider) ClientOption {
	return func(c *Client) {
		c.tokens = p
	}
}

// WithRequestEditor appends an editor applied to every request, in order.
func WithRequestEditor(e RequestEditor) ClientOption {
	return func(c *Client) {
		if e != nil {
			c.editors = append(c.editors, e)
		}
	}
}

// WithLogger sets the logger used for failed and discarded fetches.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client for the API rooted at baseURL, for example
// "http://127.0.0.1:8080/api/v1".
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: host is required", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// NewListRequest builds GET <base>/<kind>?page=..&per_page=..[&search=..][&filters..].
func (c *Client) NewListRequest(ctx context.Context, q QueryState) (*http.Request, error) {
	u := c.baseURL.JoinPath(q.Kind.String())
	u.RawQuery = q.Values().Encode()
	return c.newRequest(ctx, u)
}

// NewDetailRequest builds GET <base>/<kind>/<id>.
func (c *Client) NewDetailRequest(ctx context.Context, kind domain.EntityKind, id uint) (*http.Request, error) {
	u := c.baseURL.JoinPath(kind.String(), strconv.FormatUint(uint64(id), 10))
	return c.newRequest(ctx, u)
}

func (c *Client) newRequest(ctx context.Context, u *url.URL) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve credentials: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for _, edit := range c.editors {
		edit(ctx, req)
	}
	return req, nil
}

// Fetch runs one list request for q and folds every outcome into a
// FetchResult. No error escapes: transport and decode errors become network
// failures, non-2xx and status:false become rejections. There is no retry.
func Fetch[T any](ctx context.Context, c *Client, q QueryState) FetchResult[T] {
	env, err := do[T](c, func() (*http.Request, error) { return c.NewListRequest(ctx, q) })
	if err == nil {
		err = env.decodeItems()
		if err != nil {
			err = domain.NewAppError(domain.CodeNetwork, "decode response data", err)
		}
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "fetch failed",
			slog.String("kind", q.Kind.String()),
			slog.Int("page", q.CurrentPage),
			slog.Any("error", err),
		)
		return Failure[T](err)
	}
	return Success(env.items, env.RecordsTotal, env.RecordsFiltered, q.PageSize)
}

// FetchOne loads a single entity, typically for a detail panel.
// A successful envelope with null or missing data is treated as a rejection.
func FetchOne[T any](ctx context.Context, c *Client, kind domain.EntityKind, id uint) (T, error) {
	var item T
	env, err := do[T](c, func() (*http.Request, error) { return c.NewDetailRequest(ctx, kind, id) })
	if err != nil {
		return item, err
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return item, domain.NewAppError(domain.CodeRejected, FallbackMessage, errors.New("response carries no data"))
	}
	if err := json.Unmarshal(env.Data, &item); err != nil {
		return item, domain.NewAppError(domain.CodeNetwork, "decode response data", err)
	}
	return item, nil
}

func do[T any](c *Client, build func() (*http.Request, error)) (*envelope[T], error) {
	req, err := build()
	if err != nil {
		return nil, domain.NewAppError(domain.CodeNetwork, "build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeNetwork, "send request", err)
	}
	defer resp.Body.Close()

	var env envelope[T]
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The body of a rejection is best effort: use its message when it decodes.
		msg := ""
		if decodeErr == nil {
			msg = env.Message
		}
		if msg == "" {
			msg = FallbackMessage
		}
		return nil, domain.NewAppError(domain.CodeRejected, msg, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		if errors.Is(decodeErr, io.EOF) {
			decodeErr = io.ErrUnexpectedEOF
		}
		return nil, domain.NewAppError(domain.CodeNetwork, "decode response", decodeErr)
	}
	if !env.Status {
		msg := env.Message
		if msg == "" {
			msg = FallbackMessage
		}
		return nil, domain.NewAppError(domain.CodeRejected, msg, nil)
	}
	return &env, nil
}

// Fetcher loads one page of T for a query state.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, q QueryState) FetchResult[T]
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[T any] func(ctx context.Context, q QueryState) FetchResult[T]

// Fetch calls f(ctx, q).
func (f FetcherFunc[T]) Fetch(ctx context.Context, q QueryState) FetchResult[T] {
	return f(ctx, q)
}

// NewFetcher returns a Fetcher for T backed by c.
func NewFetcher[T any](c *Client) Fetcher[T] {
	return FetcherFunc[T](func(ctx context.Context, q QueryState) FetchResult[T] {
		return Fetch[T](ctx, c, q)
	})
}
