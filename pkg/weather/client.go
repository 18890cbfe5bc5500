// Package weather fetches and formats the current conditions for the
// game's home city.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrBadStatus is returned when the provider answers with a non-200 status.
var ErrBadStatus = errors.New("weather: unexpected status")

// Config holds the provider settings.
type Config struct {
	BaseURL       string        `yaml:"base_url" env:"BASE_URL"`
	CityID        string        `yaml:"city_id" env:"CITY_ID"`
	APIKey        string        `yaml:"api_key" env:"API_KEY"`
	Timezone      string        `yaml:"timezone" env:"TIMEZONE"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	MaxTries      uint          `yaml:"max_tries" env:"MAX_TRIES"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"RETRY_INTERVAL"`
}

// DefaultConfig returns the stock provider settings. The API key must be
// supplied by configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://api.openweathermap.org",
		CityID:        "5391811",
		Timezone:      "America/Chicago",
		Timeout:       10 * time.Second,
		CacheTTL:      5 * time.Minute,
		MaxTries:      3,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Client fetches reports. It is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	loc    *time.Location
	logger *zap.Logger
	tracer trace.Tracer
	group  singleflight.Group

	mu      sync.Mutex
	cached  Report
	expires time.Time
	now     func() time.Time

	requests *prometheus.CounterVec
}

// NewClient validates cfg and builds a client. reg may be nil.
func NewClient(cfg Config, logger *zap.Logger, reg prometheus.Registerer) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.CityID == "" {
		cfg.CityID = def.CityID
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = def.MaxTries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("weather: timezone %q: %w", cfg.Timezone, err)
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rpkit_weather_requests_total",
		Help: "Weather provider requests by result.",
	}, []string{"result"})
	if reg != nil {
		if err := reg.Register(requests); err != nil {
			return nil, fmt.Errorf("weather: register metrics: %w", err)
		}
	}

	return &Client{
		cfg:      cfg,
		http:     &http.Client{},
		loc:      loc,
		logger:   logger.Named("weather"),
		tracer:   otel.Tracer("github.com/crystal-mush/rpkit/pkg/weather"),
		now:      time.Now,
		requests: requests,
	}, nil
}

// Location returns the zone reports are displayed in.
func (c *Client) Location() *time.Location { return c.loc }

// Close releases idle provider connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// URL returns the request URL for the configured city.
func (c *Client) URL() string {
	return fmt.Sprintf("%s/data/2.5/weather?id=%s&mode=xml&appid=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.QueryEscape(c.cfg.CityID),
		url.QueryEscape(c.cfg.APIKey))
}

// Current returns the latest report, from cache when it is fresh enough.
// Concurrent callers share one provider request.
func (c *Client) Current(ctx context.Context) (Report, error) {
	if r, ok := c.fromCache(); ok {
		c.requests.WithLabelValues("cached").Inc()
		return r, nil
	}
	v, err, shared := c.group.Do("current", func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return Report{}, err
	}
	if shared {
		c.logger.Debug("shared weather fetch")
	}
	return v.(Report), nil
}

// Message returns the formatted report, or FailureMessage.
func (c *Client) Message(ctx context.Context) string {
	r, err := c.Current(ctx)
	if err != nil {
		c.logger.Warn("weather fetch failed", zap.Error(err))
		return FailureMessage
	}
	return r.Format(c.loc)
}

func (c *Client) fromCache() (Report, bool) {
	if c.cfg.CacheTTL <= 0 {
		return Report{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expires.IsZero() || !c.now().Before(c.expires) {
		return Report{}, false
	}
	return c.cached, true
}

func (c *Client) store(r Report) {
	if c.cfg.CacheTTL <= 0 {
		return
	}
	c.mu.Lock()
	c.cached = r
	c.expires = c.now().Add(c.cfg.CacheTTL)
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	ctx, span := c.tracer.Start(ctx, "weather.fetch",
		trace.WithAttributes(attribute.String("weather.city_id", c.cfg.CityID)))
	defer span.End()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval

	attempt := 0
	r, err := backoff.Retry(ctx, func() (Report, error) {
		attempt++
		return c.get(ctx)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.cfg.MaxTries))
	span.SetAttributes(attribute.Int("weather.attempts", attempt))
	if err != nil {
		c.requests.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}
	c.requests.WithLabelValues("ok").Inc()
	c.store(r)
	c.logger.Debug("weather fetched", zap.Int("attempts", attempt), zap.Float64("kelvin", r.Kelvin))
	return r, nil
}

// get performs one request. Errors that retrying cannot fix are permanent.
func (c *Client) get(ctx context.Context) (Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), nil)
	if err != nil {
		return Report{}, backoff.Permanent(fmt.Errorf("weather: build request: %w", err))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return Report{}, err
		}
		return Report{}, backoff.Permanent(err)
	}
	r, err := ParseReport(resp.Body)
	if err != nil {
		return Report{}, backoff.Permanent(err)
	}
	return r, nil
}
