package api

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/tgbotsdk/internal/entity"
)

// Caller issues a Bot API method and maps its result into kind.
// It is the capability handlers receive for their outbound calls.
type Caller interface {
	Request(ctx context.Context, method string, params Params, kind entity.Kind) (any, error)
}

// Client is the Bot API client used by the dispatch core.
type Client struct {
	transport Transport
	logger    *slog.Logger
	offsets   OffsetStore

	async    bool
	group    errgroup.Group
	mu       sync.Mutex
	asyncErr error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAsync makes Request fire-and-forget: calls are sent in the
// background, at most limit at a time (limit <= 0 means unbounded), and
// Request returns immediately with a nil result. Wait collects failures.
func WithAsync(limit int) Option {
	return func(c *Client) {
		c.async = true
		if limit > 0 {
			c.group.SetLimit(limit)
		}
	}
}

// WithOffsetStore persists the confirmed update offset.
func WithOffsetStore(store OffsetStore) Option {
	return func(c *Client) {
		c.offsets = store
	}
}

// NewClient creates a client that sends every call through transport.
func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api_client")
	return c
}

// Call sends method synchronously and maps its result into kind,
// regardless of the async setting.
func (c *Client) Call(ctx context.Context, method string, params Params, kind entity.Kind) (any, error) {
	raw, err := c.transport.SendRequest(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return entity.Map(raw, kind)
}

// Request sends method and maps its result into kind. In async mode it
// returns (nil, nil) as soon as the call is queued.
func (c *Client) Request(ctx context.Context, method string, params Params, kind entity.Kind) (any, error) {
	if !c.async {
		return c.Call(ctx, method, params, kind)
	}

	// The queued call outlives the handler that issued it.
	bg := context.WithoutCancel(ctx)
	c.group.Go(func() error {
		if _, err := c.Call(bg, method, params, kind); err != nil {
			c.logger.WarnContext(bg, "Async request failed", "method", method, "error", err)
			c.mu.Lock()
			c.asyncErr = multierr.Append(c.asyncErr, err)
			c.mu.Unlock()
		}
		return nil
	})
	return nil, nil
}

// Wait blocks until every queued async call has finished and returns the
// failures collected since the previous Wait.
func (c *Client) Wait() error {
	_ = c.group.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.asyncErr
	c.asyncErr = nil
	return err
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*entity.User, error) {
	raw, err := c.transport.SendRequest(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}
	e, err := entity.MapEntity(raw, entity.KindUser)
	if err != nil {
		return nil, err
	}
	return entity.AsUser(e), nil
}
