package tgdispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot/models"
)

// ErrEmptyText is returned when a message has no text left after sanitizing.
var ErrEmptyText = errors.New("message text is empty after sanitizing")

// OutboundMessage is one text message to deliver. MessageID selects the
// operation: zero sends a new message, anything else edits that message.
type OutboundMessage struct {
	ChatID      any // int64 or "@channelusername"
	Text        string
	MessageID   int
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
	ReplyTo     *models.ReplyParameters
	// LinkPreview overrides the default, which disables link previews.
	LinkPreview *models.LinkPreviewOptions
}

// Receipt records one delivered segment.
type Receipt struct {
	Index     int
	MessageID int
	SentAt    time.Time
}

// DeliveryError reports the segment a dispatch stopped at. Segments before
// Index were delivered and stay visible in the chat.
type DeliveryError struct {
	Index     int
	Total     int
	Delivered []Receipt
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver segment %d/%d (%d delivered): %v", e.Index+1, e.Total, len(e.Delivered), e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// InputMediaPhoto is a photo entry of a sendMediaGroup request.
type InputMediaPhoto struct {
	Type      string           `json:"type"`
	Media     string           `json:"media"`
	Caption   string           `json:"caption,omitempty"`
	ParseMode models.ParseMode `json:"parse_mode,omitempty"`
}

// SendMediaGroupParams is the request body of sendMediaGroup.
type SendMediaGroupParams struct {
	ChatID              any                     `json:"chat_id"`
	Media               []InputMediaPhoto       `json:"media"`
	DisableNotification bool                    `json:"disable_notification,omitempty"`
	ReplyParameters     *models.ReplyParameters `json:"reply_parameters,omitempty"`
}

// APIResponse is the envelope every Bot API method answers with.
type APIResponse[T any] struct {
	OK          bool                `json:"ok"`
	Result      T                   `json:"result"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters explains why a request was unsuccessful.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// APIError is a failure reported after an HTTP response was received.
type APIError struct {
	Method      string
	StatusCode  int
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: http %d: %d %s (retry after %ds)", e.Method, e.StatusCode, e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("%s: http %d: %d %s", e.Method, e.StatusCode, e.Code, e.Description)
}

// newAPIError builds an APIError from a raw response body, falling back to
// the HTTP status when the body is not a Bot API envelope.
func newAPIError(method string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, StatusCode: status, Code: status}
	var env APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		apiErr.Description = truncate(string(body), 200)
		return apiErr
	}
	if env.ErrorCode != 0 {
		apiErr.Code = env.ErrorCode
	}
	apiErr.Description = env.Description
	if env.Parameters != nil {
		apiErr.RetryAfter = env.Parameters.RetryAfter
	}
	return apiErr
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
