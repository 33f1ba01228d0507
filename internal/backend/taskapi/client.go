// Package taskapi implements the service.Service interface over the remote
// task API's JSON/HTTP endpoints.
package taskapi

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
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskbridge/internal/apierror"
	"taskbridge/internal/retry"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "taskbridge"

// Resource types carried in request contexts.
const (
	ResourceList     = "list"
	ResourceItem     = "item"
	ResourceTemplate = "recurring_template"
)

// ErrMissingToken is returned by New when no API token is configured.
var ErrMissingToken = errors.New("api token not configured (set TASKBRIDGE_API_TOKEN)")

// Config holds the remote API connection settings.
type Config struct {
	BaseURL   string
	Token     string
	UserAgent string
}

// Client implements service.Service using the remote task API.
type Client struct {
	basePath  string
	http      *http.Client
	exec      *retry.Executor
	userAgent string
	logger    *slog.Logger
}

// New creates a client that authenticates with a static bearer token.
func New(ctx context.Context, cfg Config, exec *retry.Executor, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(ctx, ts)

	return NewWithHTTPClient(cfg, httpClient, exec, logger)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The HTTP client is responsible for authentication.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, exec *retry.Executor, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}
	basePath := base.String()
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}

	if exec == nil {
		exec = retry.New(retry.DefaultConfig, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		basePath:  basePath,
		http:      httpClient,
		exec:      exec,
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

// call describes one logical request against the remote API.
type call struct {
	method string
	path   string            // URI template relative to the base URL
	params map[string]string // template expansions
	query  url.Values
	body   any
	rc     apierror.RequestContext
}

// do runs c through the executor and decodes a successful JSON body into out.
// Failures are returned as *apierror.RemoteError carrying c's request context.
func (cl *Client) do(ctx context.Context, c call, out any) error {
	var payload []byte
	if c.body != nil {
		var err error
		payload, err = json.Marshal(c.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	urls := googleapi.ResolveRelative(cl.basePath, c.path)
	if len(c.query) > 0 {
		urls += "?" + c.query.Encode()
	}

	start := time.Now()
	resp, err := cl.exec.Do(ctx, func(ctx context.Context) (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, c.method, urls, body)
		if err != nil {
			return nil, err
		}
		googleapi.Expand(req.URL, c.params)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", cl.userAgent)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return cl.http.Do(req)
	})
	if err != nil {
		cl.logger.DebugContext(ctx, "api request failed",
			slog.String("method", c.method),
			slog.String("path", c.path),
			slog.String("request_id", c.rc.RequestID),
			slog.Any("error", err),
		)
		return &apierror.RemoteError{
			Message: err.Error(),
			Context: c.rc,
			Err:     err,
		}
	}
	defer googleapi.CloseBody(resp)

	cl.logger.DebugContext(ctx, "api request",
		slog.String("method", c.method),
		slog.String("path", c.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", c.rc.RequestID),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, c.rc)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s response: %w", c.method, c.path, err)
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details []apierror.FieldDetail `json:"details"`
	} `json:"error"`
}

// decodeError turns a non-2xx response into a *apierror.RemoteError.
// Bodies that do not follow the error envelope keep their text as the message.
func decodeError(resp *http.Response, rc apierror.RequestContext) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	re := &apierror.RemoteError{
		Status:  resp.StatusCode,
		Context: rc,
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && (env.Error.Code != "" || env.Error.Message != "") {
		re.Code = env.Error.Code
		re.Message = env.Error.Message
		re.Details = env.Error.Details
	} else {
		re.Message = strings.TrimSpace(string(body))
	}
	if re.Message == "" {
		re.Message = http.StatusText(resp.StatusCode)
	}
	return re
}
