package bokun

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// DateLayout is the format of the X-Bokun-Date header (one-second resolution)
const DateLayout = "2006-01-02 15:04:05"

// Header names used by the Bokun authentication scheme
const (
	HeaderDate      = "X-Bokun-Date"
	HeaderAccessKey = "X-Bokun-AccessKey"
	HeaderSignature = "X-Bokun-Signature"
)

// DefaultBaseURL is the production Bokun REST endpoint
const DefaultBaseURL = "https://api.bokun.is"

// Config holds configuration for the Bokun API client
type Config struct {
	BaseURL       string
	AccessKey     string
	SecretKey     string
	Timeout       time.Duration
	MaxGetRetries int              // Extra attempts for GET requests failing at transport level
	Now           func() time.Time // Optional: clock used for request signing (defaults to time.Now)
}

// Client sends signed requests to the Bokun REST API
type Client struct {
	baseURL       *url.URL
	accessKey     string
	secretKey     string
	maxGetRetries int
	now           func() time.Time
	client        *http.Client
	logger        *logrus.Logger
}

// Response is a successfully decoded Bokun response
type Response struct {
	StatusCode int
	Method     string
	URL        string
	Body       []byte
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", r.Method, r.URL, err)
	}
	return nil
}

// NewClient creates a new Bokun API client
func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bokun base URL: %w", err)
	}

	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("bokun access key and secret key are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:       baseURL,
		accessKey:     cfg.AccessKey,
		secretKey:     cfg.SecretKey,
		maxGetRetries: cfg.MaxGetRetries,
		now:           now,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Sign computes the base64 HMAC-SHA1 signature of date+accessKey+method+path
func Sign(date, accessKey, method, path, secretKey string) string {
	mac := hmac.New(sha1.New, []byte(secretKey))
	mac.Write([]byte(date + accessKey + method + path))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignedHeaders returns the authentication headers for a request.
// path must be exactly what is sent on the wire, query string included.
func (c *Client) SignedHeaders(method, path string) map[string]string {
	date := c.now().Format(DateLayout)

	return map[string]string{
		HeaderDate:      date,
		HeaderAccessKey: c.accessKey,
		HeaderSignature: Sign(date, c.accessKey, method, path, c.secretKey),
	}
}

// Get sends a signed GET request. Transport failures are retried up to
// MaxGetRetries times since reads have no remote side effects.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxGetRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}

			c.logger.WithFields(logrus.Fields{
				"path":    path,
				"attempt": attempt,
			}).Warn("Retrying Bokun GET request")
		}

		resp, err := c.do(ctx, http.MethodGet, path, query, nil)
		if err == nil {
			return resp, nil
		}

		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// GetOnce sends a signed GET request exactly once. Some cart endpoints
// (remove-activity, remove-extra) mutate state behind a GET.
func (c *Client) GetOnce(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post sends a signed POST request with a JSON body. A nil body is sent as {}.
// POST requests are never retried: the remote API has no idempotency keys.
func (c *Client) Post(ctx context.Context, path string, body interface{}, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, query, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*Response, error) {
	start := time.Now()

	signedPath := path
	if len(query) > 0 {
		signedPath = path + "?" + query.Encode()
	}

	ref, err := url.Parse(signedPath)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", signedPath, err)
	}
	target := c.baseURL.ResolveReference(ref).String()

	headers := c.SignedHeaders(method, signedPath)

	var reader io.Reader
	if method == http.MethodPost {
		payload, err := encodeBody(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
		headers["Content-Type"] = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	fields := logrus.Fields{
		"method":      method,
		"path":        signedPath,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}

	if !json.Valid(raw) {
		c.logger.WithFields(fields).Warn("Bokun returned a non-JSON response")
		return nil, &TransportError{Method: method, URL: target, Err: ErrNonJSONResponse}
	}

	if apiErr := detectAPIError(raw); apiErr != nil {
		apiErr.Method = method
		apiErr.URL = target
		apiErr.Query = query
		apiErr.Headers = headers
		apiErr.Body = body
		c.logger.WithFields(fields).WithField("remote_message", apiErr.Message).Warn("Bokun API error")
		return nil, apiErr
	}

	c.logger.WithFields(fields).Debug("Bokun request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Method:     method,
		URL:        target,
		Body:       raw,
	}, nil
}

// encodeBody marshals a POST body, normalising nil to an empty object
func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return []byte("{}"), nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	if string(payload) == "null" {
		return []byte("{}"), nil
	}

	return payload, nil
}
