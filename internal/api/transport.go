// Package api provides the Bot API request boundary: a Transport that
// performs HTTP round-trips and a Client that maps results into entities.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

// ErrInvalidParams is wrapped by errors for parameters that could not be
// encoded. Such requests are never sent.
var ErrInvalidParams = errors.New("invalid parameters")

// Params holds the parameters of one API call. Scalars are sent as their
// textual form; any other value (keyboards, entity lists, *entity.Entity)
// is JSON-encoded.
type Params map[string]any

// Clone returns a shallow copy of p. It never returns nil.
func (p Params) Clone() Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Transport sends one Bot API request and returns the decoded "result"
// field. A failed request (non-ok response, malformed body, network
// failure) is returned as an error.
type Transport interface {
	SendRequest(ctx context.Context, endpoint string, params Params) (json.RawMessage, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, endpoint string, params Params) (json.RawMessage, error)

func (f TransportFunc) SendRequest(ctx context.Context, endpoint string, params Params) (json.RawMessage, error) {
	return f(ctx, endpoint, params)
}

// BotAPITransport is a Transport backed by the telegram-bot-api client.
type BotAPITransport struct {
	api *tgbotapi.BotAPI
}

// NewBotAPITransport creates a transport for token. endpoint is a
// "https://host/bot%s/%s" style format; empty selects the public Bot API.
// A nil client selects http.DefaultClient.
func NewBotAPITransport(token, endpoint string, client *http.Client) *BotAPITransport {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}

	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: client,
		Buffer: 100,
	}
	api.SetAPIEndpoint(endpoint)

	return &BotAPITransport{api: api}
}

// SendRequest performs the request, bound to ctx.
func (t *BotAPITransport) SendRequest(ctx context.Context, endpoint string, params Params) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewAPIError(endpoint, 0, "request not sent", 0, err)
	}

	encoded, err := encodeParams(params)
	if err != nil {
		return nil, apperrors.NewAPIError(endpoint, 0, "invalid parameters", 0, fmt.Errorf("%w: %w", ErrInvalidParams, err))
	}

	// Per-call copy so the request carries ctx without touching shared state.
	api := *t.api
	api.Client = contextClient{ctx: ctx, base: t.api.Client}

	resp, err := api.MakeRequest(endpoint, encoded)
	if err != nil {
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) {
			return nil, apperrors.NewAPIError(endpoint, tgErr.Code, tgErr.Message, tgErr.RetryAfter, nil)
		}
		return nil, apperrors.NewAPIError(endpoint, 0, "request failed", 0, err)
	}

	return resp.Result, nil
}

type contextClient struct {
	ctx  context.Context
	base tgbotapi.HTTPClient
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.base.Do(req.WithContext(c.ctx))
}

func encodeParams(params Params) (tgbotapi.Params, error) {
	out := make(tgbotapi.Params, len(params))
	for key, value := range params {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out[key] = v
		case json.Number:
			out[key] = v.String()
		case bool:
			out[key] = strconv.FormatBool(v)
		case int:
			out[key] = strconv.Itoa(v)
		case int32:
			out[key] = strconv.FormatInt(int64(v), 10)
		case int64:
			out[key] = strconv.FormatInt(v, 10)
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			if err := out.AddInterface(key, v); err != nil {
				return nil, fmt.Errorf("encode %s: %w", key, err)
			}
		}
	}
	return out, nil
}
