// Package store wraps the ClickHouse analytical store (C3): a pooled,
// rate-limited client over github.com/ClickHouse/clickhouse-go/v2 that
// exposes the fixed family of read queries the rest of the service needs —
// pair/token lookups, leaderboards, OHLCV series, the per-pool enrichment
// aggregate, and the dynamic pulse-table query assembled by pkg/filter.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config configures the ClickHouse connection and the client's own
// query-rate guard.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string

	// MaxOpenConns bounds the native connection pool (suggested 10-50).
	MaxOpenConns int
	// MaxIdleConns bounds idle connections kept warm in the pool.
	MaxIdleConns int
	// QueryTimeout bounds a single query's wall-clock time; must be >= 30s
	// per spec.md §5 so enrichment queries under load are never cut short.
	QueryTimeout time.Duration
	// MaxQueriesPerSecond bounds the outbound query rate (with a burst of the
	// same size) the way the teacher's sol.RateLimiter bounds RPC calls.
	MaxQueriesPerSecond int
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 20
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}
	if c.MaxQueriesPerSecond == 0 {
		c.MaxQueriesPerSecond = 50
	}
	return c
}

// Client is the analytical store client. It is safe for concurrent use.
type Client struct {
	conn    driver.Conn
	limiter *rate.Limiter
	timeout time.Duration
	log     *logrus.Entry
}

// NewClient dials ClickHouse over the native protocol with compression
// enabled and per-query settings tuned for the unbounded aggregation
// queries this service runs (unlimited memory/threads/execution time, left
// to the server's own resource governor rather than capped client-side).
func NewClient(cfg Config, log *logrus.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		Settings: clickhouse.Settings{
			"max_memory_usage":   0,
			"max_threads":        0,
			"max_execution_time": 0,
		},
		DialTimeout:  10 * time.Second,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, transportErr(fmt.Errorf("dial clickhouse: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, transportErr(fmt.Errorf("ping clickhouse: %w", err))
	}

	return &Client{
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxQueriesPerSecond), cfg.MaxQueriesPerSecond),
		timeout: cfg.QueryTimeout,
		log:     log.WithField("component", "store"),
	}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.conn.Close()
}

// query runs a rate-limited, timeout-wrapped query and returns the
// row iterator. Callers are responsible for closing the returned rows.
func (c *Client) query(ctx context.Context, sql string, args ...any) (driver.Rows, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportErr(err)
	}
	qctx, cancel := context.WithTimeout(ctx, c.timeout)
	rows, err := c.conn.Query(qctx, sql, args...)
	if err != nil {
		cancel()
		return nil, transportErr(err)
	}
	return &cancelingRows{Rows: rows, cancel: cancel}, nil
}

// queryRow runs a rate-limited, timeout-wrapped single-row query.
func (c *Client) queryRow(ctx context.Context, sql string, args ...any) (driver.Row, func(), error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, func() {}, transportErr(err)
	}
	qctx, cancel := context.WithTimeout(ctx, c.timeout)
	return c.conn.QueryRow(qctx, sql, args...), cancel, nil
}

// cancelingRows ties the query's context-cancel func to the row iterator's
// lifetime so a forgotten rows.Close() doesn't leak the timeout goroutine
// past its natural expiry, while Close still releases it immediately.
type cancelingRows struct {
	driver.Rows
	cancel context.CancelFunc
}

func (r *cancelingRows) Close() error {
	defer r.cancel()
	return r.Rows.Close()
}
