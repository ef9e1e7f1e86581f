// Package api is the HTTP client for the translation service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/verte-zerg/tuilate/internal/model"
)

const (
	languagesPath   = "/languages"
	modelStatusPath = "/model_status"
	translatePath   = "/translate"

	// DefaultTimeout bounds every request that has no earlier deadline.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 4 << 20
)

// Client talks to the translation service.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithRateLimit caps outgoing requests; rps <= 0 disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Languages fetches the language-pair catalog.
func (c *Client) Languages(ctx context.Context) (model.Catalog, error) {
	var catalog model.Catalog
	if err := c.getJSON(ctx, languagesPath, &catalog); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = model.Catalog{}
	}
	return catalog, nil
}

// ModelStatus fetches the service's model and GPU status.
func (c *Client) ModelStatus(ctx context.Context) (model.ModelStatus, error) {
	var status model.ModelStatus
	if err := c.getJSON(ctx, modelStatusPath, &status); err != nil {
		return model.ModelStatus{}, err
	}
	return status, nil
}

// TranslateRequest is the body of a translation call.
type TranslateRequest struct {
	Text     string `json:"text"`
	LangPair string `json:"lang_pair"`
}

// TranslateResponse is a successful translation.
type TranslateResponse struct {
	TranslatedText  string  `json:"translated_text"`
	TranslationTime Seconds `json:"translation_time"`
	Error           string  `json:"error,omitempty"`
}

// Translate sends text for translation with the given pair key.
func (c *Client) Translate(ctx context.Context, text, langPair string) (TranslateResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(TranslateRequest{Text: text, LangPair: langPair}); err != nil {
		return TranslateResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+translatePath, &buf)
	if err != nil {
		return TranslateResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req, translatePath)
	if err != nil {
		return TranslateResponse{}, err
	}

	var resp TranslateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if status < 200 || status >= 300 {
			return TranslateResponse{}, &ServerError{Status: status}
		}
		return TranslateResponse{}, &NetworkError{Op: "decode " + translatePath, Err: err}
	}
	if resp.Error != "" {
		return TranslateResponse{}, &ServerError{Status: status, Message: resp.Error}
	}
	if status < 200 || status >= 300 {
		return TranslateResponse{}, &ServerError{Status: status}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	status, body, err := c.do(req, path)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &ServerError{Status: status, Message: errorField(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &NetworkError{Op: "decode " + path, Err: err}
	}
	return nil
}

func (c *Client) do(req *http.Request, path string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return 0, nil, &NetworkError{Op: req.Method + " " + path, Err: err}
		}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Op: req.Method + " " + path, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, &NetworkError{Op: "read " + path, Err: err}
	}
	return resp.StatusCode, body, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func errorField(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

// maxSeconds is the largest value a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// Seconds is a server-reported duration sent as a JSON string ("0.52") or number.
type Seconds struct {
	Value time.Duration
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Seconds) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*s = Seconds{}
		return nil
	}
	raw = strings.Trim(raw, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || f >= maxSeconds {
		// Unparseable values fall back to the client-side measurement.
		*s = Seconds{}
		return nil
	}
	*s = Seconds{Value: time.Duration(f * float64(time.Second)), Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Seconds) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(strconv.FormatFloat(s.Value.Seconds(), 'f', 2, 64))), nil
}
