package tgdispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const maxResponseBytes = 10 << 20

// ErrBadResponse marks a 2xx response whose body is not a Bot API envelope.
var ErrBadResponse = errors.New("malformed response")

// Client is a thin HTTP wrapper around the Telegram Bot API. One Client is
// meant to be shared by the whole process; it is safe for concurrent use.
type Client struct {
	token       string
	baseURL     string
	pollTimeout int
	http        *http.Client
	retry       RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the Config timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRetryPolicy replaces the retry policy derived from Config.MaxAttempts.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// NewClient creates a Bot API client from cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.RequestTimeout,
		ExpectContinueTimeout: time.Second,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}

	policy := DefaultRetryPolicy()
	policy.MaxAttempts = cfg.MaxAttempts

	c := &Client{
		token:       cfg.Token,
		baseURL:     cfg.APIURL,
		pollTimeout: cfg.PollTimeout,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReadTimeout,
		},
		retry: policy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the pooled idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// FilePathURL returns the download URL for a file_path returned by getFile.
func (c *Client) FilePathURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
}

// call issues one Bot API request under policy and decodes the result.
func call[T any](ctx context.Context, c *Client, policy RetryPolicy, httpMethod, method string, query url.Values, payload any) (*T, error) {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", method, err)
		}
		body = data
	}

	return retry(ctx, policy, func() (*T, error) {
		return roundTrip[T](ctx, c, httpMethod, method, query, body)
	})
}

func roundTrip[T any](ctx context.Context, c *Client, httpMethod, method string, query url.Values, body []byte) (*T, error) {
	endpoint := c.methodURL(method)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, c.redact(method, err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, c.redact(method, err))
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, resp.StatusCode, respBody)
	}

	var env APIResponse[T]
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", method, ErrBadResponse, err)
	}
	if !env.OK {
		apiErr := newAPIError(method, resp.StatusCode, respBody)
		return nil, apiErr
	}
	return &env.Result, nil
}

// redact swaps the token-bearing URL of a *url.Error for one without the
// token. The wrapped cause is kept so errors.As still finds it.
func (c *Client) redact(method string, err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{
		Op:  urlErr.Op,
		URL: fmt.Sprintf("%s/bot<redacted>/%s", c.baseURL, method),
		Err: urlErr.Err,
	}
}

// FetchUpdates long-polls for updates after offset and reports every
// failure, HTTP status failures included.
func (c *Client) FetchUpdates(ctx context.Context, offset int64) ([]models.Update, error) {
	query := url.Values{}
	query.Set("offset", strconv.FormatInt(offset, 10))
	query.Set("timeout", strconv.Itoa(c.pollTimeout))

	updates, err := call[[]models.Update](ctx, c, c.retry, http.MethodGet, "getUpdates", query, nil)
	if err != nil {
		return nil, err
	}
	return *updates, nil
}

// GetUpdates is FetchUpdates with HTTP status failures logged and reported
// as no data.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]models.Update, error) {
	updates, err := c.FetchUpdates(ctx, offset)
	if err != nil {
		if isDegraded(err) {
			ErrorLogger.Printf("HTTP error: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return updates, nil
}

// isDegraded reports whether err came with an HTTP response: a status
// failure, ok=false or a body that is not a Bot API envelope.
func isDegraded(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) || errors.Is(err, ErrBadResponse)
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	return call[models.Message](ctx, c, c.retry, http.MethodPost, "sendMessage", nil, params)
}

// EditMessageText replaces the text of a message sent by the bot.
func (c *Client) EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	raw, err := call[json.RawMessage](ctx, c, c.retry, http.MethodPost, "editMessageText", nil, params)
	if err != nil {
		return nil, err
	}
	// Inline messages answer with a bare true instead of the message.
	if bytes.Equal(bytes.TrimSpace(*raw), []byte("true")) {
		return &models.Message{}, nil
	}
	msg := &models.Message{}
	if err := json.Unmarshal(*raw, msg); err != nil {
		return nil, fmt.Errorf("editMessageText: %w: %v", ErrBadResponse, err)
	}
	return msg, nil
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error) {
	ok, err := call[bool](ctx, c, c.retry, http.MethodPost, "deleteMessage", nil, params)
	if err != nil {
		return false, err
	}
	return *ok, nil
}

// SendChatAction broadcasts a chat action such as typing. Any transport
// failure is retried.
func (c *Client) SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error) {
	ok, err := call[bool](ctx, c, c.retry.Transport(), http.MethodPost, "sendChatAction", nil, params)
	if err != nil {
		return false, err
	}
	return *ok, nil
}

// SendTyping shows the typing indicator in chatID.
func (c *Client) SendTyping(ctx context.Context, chatID any) error {
	_, err := c.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})
	return err
}

// GetFile resolves a file_id to a downloadable file_path.
func (c *Client) GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error) {
	return call[models.File](ctx, c, c.retry, http.MethodPost, "getFile", nil, params)
}

// FileURL resolves fileID to its download URL.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	file, err := c.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", err
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("getFile: %w: no file_path for %s", ErrBadResponse, fileID)
	}
	return c.FilePathURL(file.FilePath), nil
}

// SendMediaGroup sends an album. Any transport failure is retried.
func (c *Client) SendMediaGroup(ctx context.Context, params *SendMediaGroupParams) ([]models.Message, error) {
	msgs, err := call[[]models.Message](ctx, c, c.retry.Transport(), http.MethodPost, "sendMediaGroup", nil, params)
	if err != nil {
		return nil, err
	}
	return *msgs, nil
}

// SendPhotos sends photos to chatID as one album.
func (c *Client) SendPhotos(ctx context.Context, chatID any, photos []InputMediaPhoto) ([]models.Message, error) {
	media := make([]InputMediaPhoto, len(photos))
	for i, p := range photos {
		if p.Type == "" {
			p.Type = "photo"
		}
		media[i] = p
	}
	return c.SendMediaGroup(ctx, &SendMediaGroupParams{ChatID: chatID, Media: media})
}
