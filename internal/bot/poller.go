package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/config"
	"github.com/edgard/tgbotsdk/internal/entity"
)

const defaultPollInterval = time.Second

// UpdateSource fetches updates by long polling.
type UpdateSource interface {
	GetUpdates(ctx context.Context, params api.GetUpdatesParams) ([]*entity.Update, error)
	LoadOffset(ctx context.Context) (int64, error)
}

// BatchProcessor processes a batch of updates and returns them in the
// order they were processed.
type BatchProcessor interface {
	ProcessUpdates(ctx context.Context, updates []*entity.Update) ([]*entity.Update, error)
}

// Poller feeds getUpdates batches to a BatchProcessor.
type Poller struct {
	source    UpdateSource
	processor BatchProcessor
	logger    *slog.Logger
	params    api.GetUpdatesParams
	interval  time.Duration
}

// NewPoller creates a poller using the long polling settings of cfg.
func NewPoller(source UpdateSource, processor BatchProcessor, cfg config.PollingConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		source:    source,
		processor: processor,
		logger:    logger.With("component", "poller"),
		params: api.GetUpdatesParams{
			Limit:          cfg.Limit,
			Timeout:        cfg.Timeout,
			AllowedUpdates: cfg.AllowedUpdates,
		},
		interval: interval,
	}
}

// Offset returns the offset of the next getUpdates call.
func (p *Poller) Offset() int64 {
	return p.params.Offset
}

// Run resumes from the stored offset and polls until ctx is done.
// Fetch and processing failures are logged and retried after the
// configured interval.
func (p *Poller) Run(ctx context.Context) error {
	offset, err := p.source.LoadOffset(ctx)
	if err != nil {
		return err
	}
	p.params.Offset = offset
	p.logger.InfoContext(ctx, "Starting long polling...", "offset", offset, "timeout", p.params.Timeout)

	for {
		n, err := p.PollOnce(ctx)
		if ctx.Err() != nil {
			break
		}
		switch {
		case err != nil && n == 0:
			p.logger.WarnContext(ctx, "Polling failed, retrying", "error", err, "retry_in", p.interval)
			p.sleep(ctx)
		case n == 0 && p.params.Timeout == 0:
			p.sleep(ctx)
		}
	}

	p.logger.InfoContext(ctx, "Long polling stopped", "offset", p.params.Offset)
	return nil
}

// PollOnce fetches one batch and hands it to the processor. It returns the
// number of processed updates. The offset advances past every processed
// update even when processing reported errors.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	updates, err := p.source.GetUpdates(ctx, p.params)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return 0, nil
		}
		return 0, err
	}
	if len(updates) == 0 {
		return 0, nil
	}

	processed, err := p.processor.ProcessUpdates(ctx, updates)
	if len(processed) > 0 {
		p.params.Offset = processed[len(processed)-1].ID() + 1
	}
	return len(processed), err
}

func (p *Poller) sleep(ctx context.Context) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
