// Package tgdispatch is a small client for the Telegram Bot API.
//
// Client wraps the HTTP endpoints a chat bot needs (getUpdates,
// sendMessage, editMessageText, deleteMessage, sendMediaGroup, getFile,
// sendChatAction) and retries connection timeouts through a RetryPolicy.
// Dispatcher turns free-form text into Telegram messages: it strips
// unsupported markup, splits long text at line boundaries and sends the
// pieces in order. Poller runs the long-poll loop.
//
// Request and response types come from github.com/go-telegram/bot.
package tgdispatch
