package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

// Option adjusts the connection options before the pool is opened.
type Option func(*ch.Options)

// WithAddress points the client at host:port.
func WithAddress(host string, port int) Option {
	return func(o *ch.Options) {
		if host == "" {
			o.Addr = nil
			return
		}
		o.Addr = []string{net.JoinHostPort(host, strconv.Itoa(port))}
	}
}

// WithAuth sets database and credentials.
func WithAuth(database, user, password string) Option {
	return func(o *ch.Options) {
		o.Auth = ch.Auth{Database: database, Username: user, Password: password}
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(enabled bool) Option {
	return func(o *ch.Options) {
		if enabled {
			o.Protocol = ch.HTTP
		} else {
			o.Protocol = ch.Native
		}
	}
}

func WithTimeouts(dial, read time.Duration) Option {
	return func(o *ch.Options) {
		o.DialTimeout = dial
		o.ReadTimeout = read
	}
}

// WithQueryLimit caps server-side execution time of each query.
func WithQueryLimit(d time.Duration) Option {
	return func(o *ch.Options) {
		if o.Settings == nil {
			o.Settings = ch.Settings{}
		}
		o.Settings["max_execution_time"] = int(d.Seconds())
	}
}

// BuildOptions applies opts over a small read-only pool.
func BuildOptions(opts ...Option) *ch.Options {
	o := &ch.Options{
		Protocol:        ch.Native,
		Auth:            ch.Auth{Database: "default", Username: "default"},
		DialTimeout:     5 * time.Second,
		ReadTimeout:     30 * time.Second,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Client owns the database/sql pool price history is read through.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and pings it within the dial timeout.
func NewClient(opts ...Option) (*Client, error) {
	o := BuildOptions(opts...)
	if len(o.Addr) == 0 {
		return nil, errors.New("clickhouse: host is required")
	}

	db := ch.OpenDB(o)
	ctx, cancel := context.WithTimeout(context.Background(), o.DialTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", o.Addr[0], err)
	}
	return &Client{db: db}, nil
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
