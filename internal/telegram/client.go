// Package telegram wraps the Bot API client with the calls ncwatchdog
// needs, per-call contexts and token redaction.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mackeh/ncwatchdog/internal/security/redactor"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// ErrNoToken is returned by New when the token is empty.
var ErrNoToken = errors.New("telegram: no api token configured")

// Client calls the Bot API with one token.
type Client struct {
	baseURL  string
	http     *http.Client
	api      *tgbotapi.BotAPI
	redactor *redactor.Redactor
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for token. It does not contact the API.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	c := &Client{
		baseURL:  DefaultAPIURL,
		http:     &http.Client{Timeout: 10 * time.Second},
		redactor: redactor.New(token),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.api = &tgbotapi.BotAPI{Token: token, Buffer: 100}
	c.api.SetAPIEndpoint(c.baseURL + "/bot%s/%s")
	return c, nil
}

// contextClient binds outgoing requests to ctx.
type contextClient struct {
	ctx  context.Context
	http *http.Client
}

func (cc contextClient) Do(req *http.Request) (*http.Response, error) {
	return cc.http.Do(req.WithContext(cc.ctx))
}

// bot returns a copy of the API handle whose requests carry ctx.
func (c *Client) bot(ctx context.Context) *tgbotapi.BotAPI {
	api := *c.api
	api.Client = contextClient{ctx: ctx, http: c.http}
	return &api
}

// wrap annotates err with the method. Transport errors carry the request
// URL and therefore the token, so they are scrubbed; API errors only carry
// Telegram's description and keep their type for errors.As.
func (c *Client) wrap(method string, err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("telegram: %s failed (%d): %w", method, apiErr.Code, err)
	}
	return errors.New(c.redactor.Redact(fmt.Sprintf("telegram: %s failed: %v", method, err)))
}

// SendMessage posts text with its entities to chatID, which is either a
// numeric chat id or an @channel username.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, entities []tgbotapi.MessageEntity) (*tgbotapi.Message, error) {
	var cfg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		cfg = tgbotapi.NewMessage(id, text)
	} else {
		cfg = tgbotapi.NewMessageToChannel(chatID, text)
	}
	cfg.Entities = entities

	sent, err := c.bot(ctx).Send(cfg)
	if err != nil {
		return nil, c.wrap("sendMessage", err)
	}
	return &sent, nil
}

// GetUpdates returns pending updates for the bot.
func (c *Client) GetUpdates(ctx context.Context) ([]tgbotapi.Update, error) {
	updates, err := c.bot(ctx).GetUpdates(tgbotapi.NewUpdate(0))
	if err != nil {
		return nil, c.wrap("getUpdates", err)
	}
	return updates, nil
}

// GetMe returns the bot's own user, which verifies the token.
func (c *Client) GetMe(ctx context.Context) (*tgbotapi.User, error) {
	me, err := c.bot(ctx).GetMe()
	if err != nil {
		return nil, c.wrap("getMe", err)
	}
	return &me, nil
}

// UpdateMessage returns whichever message u carries, or nil.
func UpdateMessage(u tgbotapi.Update) *tgbotapi.Message {
	switch {
	case u.Message != nil:
		return u.Message
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedMessage != nil:
		return u.EditedMessage
	default:
		return u.EditedChannelPost
	}
}
