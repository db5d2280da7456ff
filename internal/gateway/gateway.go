// Package gateway issues news queries to the relay and normalizes the
// response envelope into a single Outcome.
//
// At most one request is outstanding per Client. A trigger that arrives
// while a request is pending is dropped, never queued, so an older response
// can never overwrite state produced by a newer one.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/news"
)

const defaultUserAgent = "newsmap/1.0 (GDELT news map; github.com/pders01/newsmap)"

// ErrInFlight is returned by Fetch while another request is outstanding.
var ErrInFlight = errors.New("fetch already in flight")

// Kind classifies a settled fetch.
type Kind int

const (
	KindSuccess Kind = iota
	KindEmpty
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmpty:
		return "empty"
	default:
		return "failure"
	}
}

// Outcome is exactly one of Success(Articles), Empty, or Failure(Message).
type Outcome struct {
	Kind         Kind
	Articles     []news.Article
	TotalResults int
	Message      string
	Query        news.Query
}

func Success(articles []news.Article) Outcome {
	return Outcome{Kind: KindSuccess, Articles: articles, TotalResults: len(articles)}
}

func Empty(message string) Outcome {
	return Outcome{Kind: KindEmpty, Message: message}
}

func Failure(message string) Outcome {
	return Outcome{Kind: KindFailure, Message: message}
}

// NoResults reports whether the outcome should clear the map and feed: an
// explicit Empty or a Success carrying zero articles.
func (o Outcome) NoResults() bool {
	return o.Kind == KindEmpty || (o.Kind == KindSuccess && len(o.Articles) == 0)
}

// Envelope is the relay's response body.
type Envelope struct {
	Status       string          `json:"status"`
	Data         json.RawMessage `json:"data,omitempty"`
	Error        string          `json:"error,omitempty"`
	Details      string          `json:"details,omitempty"`
	Message      string          `json:"message,omitempty"`
	TotalResults *int            `json:"totalResults,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

// Options configures a Client.
type Options struct {
	Endpoint  string
	UserAgent string
	// Timeout of 0 leaves the transport default in place.
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	busy      atomic.Bool
}

func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", opts.Endpoint)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{endpoint: opts.Endpoint, userAgent: ua, http: hc}, nil
}

// Ticket is a reserved fetch slot. Do must be called exactly once; the slot
// is released when it returns.
type Ticket struct {
	client *Client
	query  news.Query
	used   atomic.Bool
}

func (t *Ticket) Query() news.Query {
	return t.query
}

// Begin reserves the client's single fetch slot for q. It reports false,
// and returns no ticket, while another fetch is outstanding.
func (c *Client) Begin(q news.Query) (*Ticket, bool) {
	if !c.busy.CompareAndSwap(false, true) {
		debuglog.Debugf("gateway: dropping fetch for %q, one is in flight", q.Keyword)
		return nil, false
	}
	return &Ticket{client: c, query: q.Normalize()}, true
}

// Busy reports whether a fetch is outstanding.
func (c *Client) Busy() bool {
	return c.busy.Load()
}

// Do performs the reserved request and releases the slot on settle.
func (t *Ticket) Do(ctx context.Context) Outcome {
	if !t.used.CompareAndSwap(false, true) {
		return Failure("ticket already used")
	}
	defer t.client.busy.Store(false)

	out := t.client.do(ctx, t.query)
	out.Query = t.query
	return out
}

// Fetch is Begin followed by Do. It returns ErrInFlight when busy.
func (c *Client) Fetch(ctx context.Context, q news.Query) (Outcome, error) {
	t, ok := c.Begin(q)
	if !ok {
		return Outcome{}, ErrInFlight
	}
	return t.Do(ctx), nil
}

// RequestURL builds the relay URL for q. The timespan is normalized before
// it is put on the wire.
func (c *Client) RequestURL(q news.Query) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}
	q = q.Normalize()
	params := u.Query()
	params.Set("q", q.Keyword)
	params.Set("timespan", string(q.Timespan))
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, q news.Query) Outcome {
	target, err := c.RequestURL(q)
	if err != nil {
		return Failure(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Failure(fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		debuglog.Warnf("gateway: request failed: %v", err)
		return Failure(fmt.Sprintf("fetching news: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(fmt.Sprintf("reading response: %v", err))
	}
	debuglog.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}).Debugf("gateway: %s", target)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("HTTP error: %d", resp.StatusCode)
		var env Envelope
		if json.Unmarshal(body, &env) == nil && env.Error != "" {
			msg = fmt.Sprintf("%s (%s)", msg, env.Error)
		}
		return Failure(msg)
	}
	return Decode(body)
}

// Decode normalizes a 2xx response body. Anything that is not a well-formed
// envelope with a known status is a Failure.
func Decode(body []byte) Outcome {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Failure(fmt.Sprintf("invalid response: %v", err))
	}

	switch env.Status {
	case StatusSuccess:
		var articles []news.Article
		if len(env.Data) > 0 && string(env.Data) != "null" {
			if err := json.Unmarshal(env.Data, &articles); err != nil {
				return Failure(fmt.Sprintf("invalid response data: %v", err))
			}
		}
		out := Success(articles)
		if env.TotalResults != nil {
			out.TotalResults = *env.TotalResults
		}
		return out
	case StatusEmpty:
		return Empty(env.Message)
	case StatusError:
		msg := env.Error
		if msg == "" {
			msg = "server reported an error"
		}
		if env.Details != "" {
			msg += ": " + env.Details
		}
		return Failure(msg)
	default:
		return Failure(fmt.Sprintf("unexpected response status %q", env.Status))
	}
}
