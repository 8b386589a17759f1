package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoToken is returned by every call when the bot token is unset.
var ErrNoToken = errors.New("telegram: BOT_TOKEN is not set")

// APIError is a Bot API reply with ok=false.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Bot is a minimal Bot API client.
type Bot struct {
	client *resty.Client
	token  string
}

func NewBot(baseURL, token string, timeout time.Duration) *Bot {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Bot{client: client, token: token}
}

func call[T any](ctx context.Context, b *Bot, method string, body any) (T, error) {
	var zero T
	if b.token == "" {
		return zero, ErrNoToken
	}
	var out apiResponse[T]
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/bot" + b.token + "/" + method)
	if err != nil {
		return zero, fmt.Errorf("telegram %s: %w", method, err)
	}
	if !out.OK {
		code := out.ErrorCode
		if code == 0 {
			code = resp.StatusCode()
		}
		desc := out.Description
		if desc == "" {
			desc = resp.String()
		}
		return zero, &APIError{Code: code, Description: desc}
	}
	return out.Result, nil
}

// SendMessage sends an HTML formatted message to chatID.
func (b *Bot) SendMessage(ctx context.Context, chatID, text string) error {
	_, err := call[map[string]any](ctx, b, "sendMessage", map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	return err
}

type LabeledPrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// Invoice is a Telegram Stars invoice.
type Invoice struct {
	Title       string
	Description string
	Payload     string
	Prices      []LabeledPrice
}

// CreateInvoiceLink returns a payment link for a Stars (XTR) invoice.
func (b *Bot) CreateInvoiceLink(ctx context.Context, inv Invoice) (string, error) {
	return call[string](ctx, b, "createInvoiceLink", map[string]any{
		"title":          inv.Title,
		"description":    inv.Description,
		"payload":        inv.Payload,
		"provider_token": "",
		"currency":       "XTR",
		"prices":         inv.Prices,
	})
}
