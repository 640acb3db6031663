package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Remote defines the device API surface the editor consumes. It is
// implemented by *Client and by test doubles.
type Remote interface {
	FetchMeta(ctx context.Context) (Meta, error)
	FetchLayout(ctx context.Context) (Layout, error)
	SaveLayout(ctx context.Context, layout Layout) error
	FetchBank(ctx context.Context, bank int) (BankNames, error)
	SaveBank(ctx context.Context, names BankNames) error
	FetchButton(ctx context.Context, bank, btn int) (ButtonMap, error)
	SaveButton(ctx context.Context, m ButtonMap) error
	FetchLED(ctx context.Context) (LED, error)
	SaveLED(ctx context.Context, led LED) error
	FetchExpFS(ctx context.Context, port int) (ExpFSPort, error)
	SaveExpFS(ctx context.Context, cfg ExpFSPort) error
	Calibrate(ctx context.Context, port int, which string) (CalResult, error)
	FetchState(ctx context.Context) (LiveState, error)
	SetState(ctx context.Context, bank int) error
}

// Ensure Client implements Remote at compile time.
var _ Remote = (*Client)(nil)

// Client talks to the foot controller's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// Options tunes the transport. Zero values take defaults.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *slog.Logger
}

const (
	defaultAddress    = "192.168.4.1"
	defaultUserAgent  = "footctl/0.1"
	defaultTimeout    = 5 * time.Second
	defaultRatePerSec = 8
	defaultBurst      = 4

	// Calibration targets accepted by /api/expfs_cal.
	CalMin = "min"
	CalMax = "max"
)

// NewClient builds a Client for the given host[:port] or URL.
func NewClient(address string, opts Options) (*Client, error) {
	base, err := parseBaseURL(address)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRatePerSec
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		userAgent: defaultUserAgent,
		logger:    logger,
	}, nil
}

// BaseURL returns the normalized device address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchMeta retrieves the hardware limits.
func (c *Client) FetchMeta(ctx context.Context) (Meta, error) {
	var payload Meta
	if err := c.get(ctx, "/api/meta", nil, &payload); err != nil {
		return Meta{}, err
	}
	return payload, nil
}

// FetchLayout retrieves the bank layout.
func (c *Client) FetchLayout(ctx context.Context) (Layout, error) {
	var payload Layout
	if err := c.get(ctx, "/api/layout", nil, &payload); err != nil {
		return Layout{}, err
	}
	return payload, nil
}

// SaveLayout persists the bank layout.
func (c *Client) SaveLayout(ctx context.Context, layout Layout) error {
	return c.post(ctx, "/api/layout", nil, layout, nil)
}

// FetchBank retrieves the switch names of one bank.
func (c *Client) FetchBank(ctx context.Context, bank int) (BankNames, error) {
	var payload BankNames
	if err := c.get(ctx, "/api/bank", bankQuery(bank), &payload); err != nil {
		return BankNames{}, err
	}
	payload.Bank = bank
	return payload, nil
}

// SaveBank persists the switch names of names.Bank.
func (c *Client) SaveBank(ctx context.Context, names BankNames) error {
	return c.post(ctx, "/api/bank", bankQuery(names.Bank), names, nil)
}

// FetchButton retrieves the mapping of one switch.
func (c *Client) FetchButton(ctx context.Context, bank, btn int) (ButtonMap, error) {
	var payload ButtonMap
	if err := c.get(ctx, "/api/button", buttonQuery(bank, btn), &payload); err != nil {
		return ButtonMap{}, err
	}
	payload.Bank = bank
	payload.Btn = btn
	return payload, nil
}

// SaveButton persists the mapping for m.Bank/m.Btn.
func (c *Client) SaveButton(ctx context.Context, m ButtonMap) error {
	return c.post(ctx, "/api/button", buttonQuery(m.Bank, m.Btn), m, nil)
}

// FetchLED retrieves the global LED brightness.
func (c *Client) FetchLED(ctx context.Context) (LED, error) {
	var payload LED
	if err := c.get(ctx, "/api/led", nil, &payload); err != nil {
		return LED{}, err
	}
	return payload, nil
}

// SaveLED persists the global LED brightness.
func (c *Client) SaveLED(ctx context.Context, led LED) error {
	return c.post(ctx, "/api/led", nil, led, nil)
}

// FetchExpFS retrieves the configuration of one expression/footswitch port.
func (c *Client) FetchExpFS(ctx context.Context, port int) (ExpFSPort, error) {
	var payload ExpFSPort
	if err := c.get(ctx, "/api/expfs", portQuery(port), &payload); err != nil {
		return ExpFSPort{}, err
	}
	payload.Port = port
	return payload, nil
}

// SaveExpFS persists cfg for cfg.Port.
func (c *Client) SaveExpFS(ctx context.Context, cfg ExpFSPort) error {
	if cfg.Exp.Cmd == nil {
		cfg.Exp.Cmd = []Action{}
	}
	return c.post(ctx, "/api/expfs", portQuery(cfg.Port), cfg, nil)
}

// Calibrate stores the pedal's current raw reading as the min or max point.
func (c *Client) Calibrate(ctx context.Context, port int, which string) (CalResult, error) {
	if which != CalMin && which != CalMax {
		return CalResult{}, fmt.Errorf("calibration target %q must be min or max", which)
	}
	values := portQuery(port)
	values.Set("which", which)
	var payload CalResult
	if err := c.post(ctx, "/api/expfs_cal", values, struct{}{}, &payload); err != nil {
		return CalResult{}, err
	}
	return payload, nil
}

// FetchState retrieves the bank the hardware is currently on.
func (c *Client) FetchState(ctx context.Context) (LiveState, error) {
	var payload LiveState
	if err := c.get(ctx, "/api/state", nil, &payload); err != nil {
		return LiveState{}, err
	}
	return payload, nil
}

// SetState moves the hardware to bank.
func (c *Client) SetState(ctx context.Context, bank int) error {
	return c.post(ctx, "/api/state", nil, LiveState{Bank: bank}, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body, dest any) error {
	if dest == nil {
		var ack Ack
		return c.do(ctx, http.MethodPost, path, query, body, &ack)
	}
	return c.do(ctx, http.MethodPost, path, query, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Method: method, Path: rel.String(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("device request failed", "method", method, "path", rel.String(), "request_id", requestID, "error", err)
		return &TransportError{Method: method, Path: rel.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("device request",
		"method", method,
		"path", rel.String(),
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(started),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{
			Method: method,
			Path:   rel.String(),
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(text)),
		}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func bankQuery(bank int) url.Values {
	values := url.Values{}
	values.Set("bank", strconv.Itoa(bank))
	return values
}

func buttonQuery(bank, btn int) url.Values {
	values := bankQuery(bank)
	values.Set("btn", strconv.Itoa(btn))
	return values
}

func portQuery(port int) url.Values {
	values := url.Values{}
	values.Set("port", strconv.Itoa(port))
	return values
}

func parseBaseURL(address string) (*url.URL, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		trimmed = defaultAddress
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse device address %q: %w", address, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
