package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// TokenSource supplies the bearer token for each request. Empty = anonymous.
type TokenSource interface {
	AccessToken() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) AccessToken() string { return f() }

// Options client construction parameters
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Tokens    TokenSource
}

// Client typed HTTP client shared by every resource service.
// It is constructed explicitly and passed to the services that need it.
// No retries: failures are reported to the caller as-is.
type Client struct {
	http   *resty.Client
	tokens TokenSource
	logger *zap.Logger
}

// NewClient builds a client over resty.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	c := &Client{http: rc, tokens: opts.Tokens, logger: logger}
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		if c.tokens != nil {
			if tok := c.tokens.AccessToken(); tok != "" {
				r.SetAuthToken(tok)
			}
		}
		return nil
	})
	return c
}

// Upload multipart file part
type Upload struct {
	Field    string
	FileName string
	Reader   io.Reader
}

// Request one typed API operation.
type Request struct {
	Method     string
	Path       string            // may contain {placeholders}
	PathParams map[string]string // values for Path placeholders
	Query      map[string]string
	Body       any
	Upload     *Upload
	FormData   map[string]string // sent with Upload
}

// Get shorthand for a GET request.
func Get(path string) Request { return Request{Method: http.MethodGet, Path: path} }

// Post shorthand for a POST request with a JSON body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

// Put shorthand for a PUT request with a JSON body.
func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body}
}

// Delete shorthand for a DELETE request.
func Delete(path string) Request { return Request{Method: http.MethodDelete, Path: path} }

// With sets a path parameter.
func (r Request) With(name string, value any) Request {
	params := make(map[string]string, len(r.PathParams)+1)
	for k, v := range r.PathParams {
		params[k] = v
	}
	params[name] = fmt.Sprint(value)
	r.PathParams = params
	return r
}

// WithQuery sets a query parameter; empty values are skipped.
func (r Request) WithQuery(name, value string) Request {
	if value == "" {
		return r
	}
	q := make(map[string]string, len(r.Query)+1)
	for k, v := range r.Query {
		q[k] = v
	}
	q[name] = value
	r.Query = q
	return r
}

// raw executes the request and returns the body of a 2xx response.
func (c *Client) raw(ctx context.Context, req Request) ([]byte, int, error) {
	rr := c.http.R().SetContext(ctx)
	if len(req.PathParams) > 0 {
		rr.SetPathParams(req.PathParams)
	}
	if len(req.Query) > 0 {
		rr.SetQueryParams(req.Query)
	}
	if req.Upload != nil {
		rr.SetFileReader(req.Upload.Field, req.Upload.FileName, req.Upload.Reader)
		if len(req.FormData) > 0 {
			rr.SetFormData(req.FormData)
		}
	} else if req.Body != nil {
		rr.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	start := time.Now()
	resp, err := rr.Execute(req.Method, req.Path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		c.logger.Error("API call failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return nil, 0, fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.Path, err)
	}

	status := resp.StatusCode()
	if resp.IsError() || status < 200 || status >= 300 {
		apiErr := &APIError{
			StatusCode: status,
			Method:     req.Method,
			Path:       req.Path,
			Message:    errorMessage(resp.Body(), resp.Status()),
		}
		c.logger.Error("API returned error",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("status_code", status),
			zap.String("msg", apiErr.Message),
		)
		return nil, status, apiErr
	}

	c.logger.Debug("API call ok",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status_code", status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Body(), status, nil
}

// Do executes req and decodes a 2xx JSON body into T.
// An empty body (e.g. 204) yields the zero T.
func Do[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	body, _, err := c.raw(ctx, req)
	if err != nil {
		return out, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.Error("Failed to decode API response",
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return out, fmt.Errorf("%w: %s %s: %v", ErrDecode, req.Method, req.Path, err)
	}
	return out, nil
}

// DoEnvelope executes req against an endpoint that wraps its payload in
// {success, message, data}; success=false is reported as an APIError.
func DoEnvelope[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T
	env, err := Do[models.Envelope[T]](ctx, c, req)
	if err != nil {
		return zero, err
	}
	if !env.Success {
		return zero, &APIError{StatusCode: http.StatusOK, Method: req.Method, Path: req.Path, Message: env.Message}
	}
	return env.Data, nil
}

// Exec executes req and discards the body.
func (c *Client) Exec(ctx context.Context, req Request) error {
	_, _, err := c.raw(ctx, req)
	return err
}

// errorMessage extracts a human message from an error body.
func errorMessage(body []byte, status string) string {
	var obj map[string]any
	if json.Unmarshal(body, &obj) == nil {
		for _, key := range []string{"message", "mensaje", "error", "title", "detail"} {
			if v, ok := obj[key].(string); ok && v != "" {
				return v
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= 300 && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		return text
	}
	return status
}

// IsNotFound reports an HTTP 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
