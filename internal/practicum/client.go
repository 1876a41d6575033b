package practicum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	logx "hwbot/pkg/logx"
)

const (
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultTimeout  = 30 * time.Second

	// maxBodyBytes caps how much of a response we are willing to buffer.
	maxBodyBytes = 4 << 20
)

type Config struct {
	Endpoint string
	Token    string
	// Timeout bounds one request. 0 disables the client-side timeout.
	Timeout time.Duration
}

// Client queries the homework statuses endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(cfg Config, log logx.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("practicum token is empty")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("practicum endpoint: %w", err)
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Fetch returns the decoded response for statuses changed since from.
//
// Errors are one of *TransportError, *StatusError or *DecodeError.
func (c *Client) Fetch(ctx context.Context, from time.Time) (gjson.Result, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return gjson.Result{}, &TransportError{Err: err}
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(from.Unix(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return gjson.Result{}, &TransportError{Err: err}
	}
	req.Header.Set("Authorization", c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("requesting homework statuses", logx.Int64("from_date", from.Unix()))
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("homework statuses request failed", logx.Err(err))
		return gjson.Result{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.log.Error("homework statuses read failed", logx.Err(err))
		return gjson.Result{}, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("homework statuses unexpected status",
			logx.Int("status", resp.StatusCode),
			logx.String("body", truncate(string(body), 300)))
		return gjson.Result{}, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 300)}
	}

	if !gjson.ValidBytes(body) {
		c.log.Error("homework statuses body is not valid json", logx.Int("bytes", len(body)))
		return gjson.Result{}, &DecodeError{Body: truncate(string(body), 300)}
	}

	c.log.Debug("homework statuses received",
		logx.Int("bytes", len(body)),
		logx.Duration("took", time.Since(started)))
	return gjson.ParseBytes(body), nil
}

// truncate caps s at maxN bytes without splitting a UTF-8 sequence.
func truncate(s string, maxN int) string {
	if maxN <= 3 || len(s) <= maxN {
		return s
	}
	cut := maxN - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
