// Package syncclient pushes and pulls the aggregate snapshot to and from the
// remote store endpoint.
//
// Every operation degrades to a nil/false result instead of returning an
// error: the remote may legitimately not exist, and local-only operation is
// a supported mode.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/snapshot"
)

// DefaultBaseURL is where the store endpoints live when served by the same
// origin as the site.
const DefaultBaseURL = "/api"

// maxResponseBytes bounds how much of a store response is read.
const maxResponseBytes = 32 << 20

type Options struct {
	// BaseURL is the prefix of the store endpoints, e.g. http://localhost:8787/api.
	BaseURL string

	// Token, when set, is sent as a bearer token on every request.
	Token string

	// HTTPClient overrides the default instrumented client.
	HTTPClient *http.Client

	Logger log.Logger

	// Now is used for cache-busting query values. Defaults to time.Now.
	Now func() time.Time
}

// Result reports the outcome of a push.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Client struct {
	base   string
	token  string
	http   *http.Client
	logger log.Logger
	now    func() time.Time
}

func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		base:   base,
		token:  opts.Token,
		http:   hc,
		logger: opts.Logger,
		now:    opts.Now,
	}
}

// FetchAll retrieves the remote snapshot, defeating intermediary caches. It
// returns nil on any transport, status or decode failure.
func (c *Client) FetchAll(ctx context.Context) *snapshot.Snapshot {
	req, err := c.newRequest(ctx, http.MethodGet, c.bust("/store"), nil)
	if err != nil {
		c.logger.Warn(ctx, "sync: build fetch request", "error", err.Error())
		return nil
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "sync: fetch failed", "error", err.Error())
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn(ctx, "sync: fetch rejected", "status", resp.StatusCode)
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn(ctx, "sync: read fetch body", "error", err.Error())
		return nil
	}
	snap, err := snapshot.Decode(body)
	if err != nil {
		c.logger.Warn(ctx, "sync: remote snapshot is malformed", "error", err.Error())
		return nil
	}
	return snap
}

// SaveAll pushes snap to the remote store. Failures are reported in the
// Result; there is no internal retry.
func (c *Client) SaveAll(ctx context.Context, snap *snapshot.Snapshot) Result {
	body, err := snapshot.Encode(snap)
	if err != nil {
		return Result{Error: err.Error()}
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.base+"/store", bytes.NewReader(body))
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "sync: push failed", "error", err.Error())
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode != http.StatusOK {
		msg := serverError(resp.StatusCode, raw)
		c.logger.Warn(ctx, "sync: push rejected", "status", resp.StatusCode, "error", msg)
		return Result{Error: msg}
	}
	return Result{Success: true}
}

// InitRemote resets the remote store to an empty object.
func (c *Client) InitRemote(ctx context.Context) bool {
	req, err := c.newRequest(ctx, http.MethodGet, c.bust("/init-db"), nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "sync: init remote failed", "error", err.Error())
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode == http.StatusOK
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// bust appends a cache-busting timestamp to path.
func (c *Client) bust(path string) string {
	return c.base + path + "?t=" + strconv.FormatInt(c.now().UnixMilli(), 10)
}

// serverError builds the message shown for a rejected push: the status,
// followed by the server's JSON error field or the start of its body.
func serverError(status int, body []byte) string {
	msg := fmt.Sprintf("Server error %d", status)
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Error != "" {
			return msg + ": " + parsed.Error
		}
		return msg
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return msg
	}
	return msg + ": " + truncate(text, 100)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
