package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"aprScope/internal/model"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 15 * time.Second

const healthStatusPrefix = "Health check failed"

// Observer receives per-request outcomes.
type Observer interface {
	ObserveRequest(endpoint, outcome string, elapsed time.Duration)
}

// Client performs GET requests against the backend and decodes its JSON envelopes.
type Client struct {
	cfg      Config
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports request outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient builds a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		cfg:    Config{BaseURL: baseURL},
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client's URL configuration.
func (c *Client) Config() Config {
	return c.cfg
}

type envelope[T any, M any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Meta    *M     `json:"meta,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *envelope[T, M]) check() (string, bool) {
	return e.Message, e.Success
}

type checker interface {
	check() (string, bool)
}

// HistoryQuery selects historical snapshots of a pair. Empty fields are not sent.
type HistoryQuery struct {
	Address   string
	StartDate string
	EndDate   string
	Limit     int
}

// Health fetches the backend health document.
func (c *Client) Health(ctx context.Context) (*model.HealthStatus, error) {
	var status model.HealthStatus
	u := c.cfg.BuildURL(EndpointHealth, nil, nil)
	if err := c.getJSON(ctx, "health", u, healthStatusPrefix, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// LatestSnapshot fetches the most recent snapshot of a pair.
func (c *Client) LatestSnapshot(ctx context.Context, address string) (*model.PairSnapshot, error) {
	var env envelope[model.PairSnapshot, struct{}]
	u := c.cfg.BuildURL(EndpointPairLatest, map[string]string{"address": address}, nil)
	if err := c.getJSON(ctx, "pair_latest", u, "", &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// APRSeries fetches the APR series of a pair for a moving-average window.
func (c *Client) APRSeries(ctx context.Context, address string, window model.Window) ([]model.APRDataPoint, error) {
	var env envelope[[]model.APRDataPoint, struct{}]
	u := c.cfg.BuildURL(EndpointPairAPR, map[string]string{"address": address}, []QueryParam{
		{Key: "window", Value: window.String()},
	})
	if err := c.getJSON(ctx, "pair_apr", u, "", &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		env.Data = []model.APRDataPoint{}
	}
	return env.Data, nil
}

// History fetches historical snapshots of a pair with their paging meta.
func (c *Client) History(ctx context.Context, q HistoryQuery) ([]model.PairSnapshot, *model.HistoryMeta, error) {
	params := make([]QueryParam, 0, 3)
	if q.StartDate != "" {
		params = append(params, QueryParam{Key: "startDate", Value: q.StartDate})
	}
	if q.EndDate != "" {
		params = append(params, QueryParam{Key: "endDate", Value: q.EndDate})
	}
	if q.Limit > 0 {
		params = append(params, QueryParam{Key: "limit", Value: strconv.Itoa(q.Limit)})
	}

	var env envelope[[]model.PairSnapshot, model.HistoryMeta]
	u := c.cfg.BuildURL(EndpointPairByAddr, map[string]string{"address": q.Address}, params)
	if err := c.getJSON(ctx, "pair_history", u, "", &env); err != nil {
		return nil, nil, err
	}
	if env.Data == nil {
		env.Data = []model.PairSnapshot{}
	}
	return env.Data, env.Meta, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, u, statusPrefix string, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRequest(endpoint, Outcome(err), time.Since(start))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", zap.String("endpoint", endpoint), zap.String("url", u), zap.Error(err))
		return &TransportError{Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("backend returned error status", zap.String("endpoint", endpoint), zap.String("url", u), zap.Int("status", resp.StatusCode))
		return &StatusError{StatusCode: resp.StatusCode, Prefix: statusPrefix}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Err: err}
	}
	if env, ok := out.(checker); ok {
		if message, success := env.check(); !success {
			c.logger.Debug("backend reported failure", zap.String("endpoint", endpoint), zap.String("url", u), zap.String("message", message))
			return ErrUnsuccessful
		}
	}

	c.logger.Debug("backend request complete", zap.String("endpoint", endpoint), zap.Duration("elapsed", time.Since(start)))
	return nil
}
