package api

import (
	"context"
	"fmt"

	"github.com/edgard/tgbotsdk/internal/entity"
)

// OffsetStore persists the next update offset between restarts.
type OffsetStore interface {
	LoadOffset(ctx context.Context) (int64, error)
	SaveOffset(ctx context.Context, offset int64) error
}

// GetUpdatesParams are the long-polling parameters of getUpdates.
type GetUpdatesParams struct {
	Offset         int64
	Limit          int
	Timeout        int
	AllowedUpdates []string
}

func (p GetUpdatesParams) params() Params {
	params := Params{}
	if p.Offset != 0 {
		params["offset"] = p.Offset
	}
	if p.Limit > 0 {
		params["limit"] = p.Limit
	}
	if p.Timeout > 0 {
		params["timeout"] = p.Timeout
	}
	if len(p.AllowedUpdates) > 0 {
		params["allowed_updates"] = p.AllowedUpdates
	}
	return params
}

// GetUpdates fetches pending updates. It always runs synchronously.
func (c *Client) GetUpdates(ctx context.Context, p GetUpdatesParams) ([]*entity.Update, error) {
	raw, err := c.transport.SendRequest(ctx, "getUpdates", p.params())
	if err != nil {
		return nil, err
	}
	return entity.ParseUpdates(raw)
}

// ConfirmUpdate acknowledges every update up to and including highestID,
// so the Bot API stops redelivering them. The next offset is persisted
// when an OffsetStore is configured.
func (c *Client) ConfirmUpdate(ctx context.Context, highestID int64) error {
	next := highestID + 1
	params := GetUpdatesParams{Offset: next, Limit: 1}.params()
	if _, err := c.transport.SendRequest(ctx, "getUpdates", params); err != nil {
		return fmt.Errorf("confirm update %d: %w", highestID, err)
	}

	if c.offsets != nil {
		if err := c.offsets.SaveOffset(ctx, next); err != nil {
			return fmt.Errorf("save offset %d: %w", next, err)
		}
	}

	c.logger.DebugContext(ctx, "Confirmed updates", "highest_update_id", highestID)
	return nil
}

// LoadOffset returns the persisted next offset, or 0 without an OffsetStore.
func (c *Client) LoadOffset(ctx context.Context) (int64, error) {
	if c.offsets == nil {
		return 0, nil
	}
	return c.offsets.LoadOffset(ctx)
}
