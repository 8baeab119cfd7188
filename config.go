package tgdispatch

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults used when a Config field is left zero.
const (
	DefaultAPIURL           = "https://api.telegram.org"
	DefaultConnectTimeout   = 2 * time.Second
	DefaultRequestTimeout   = 5 * time.Second
	DefaultReadTimeout      = 120 * time.Second
	DefaultPollTimeout      = 50
	DefaultMaxSegmentLength = 4000
	DefaultMaxAttempts      = 10
)

// ErrNoToken is returned when no bot token is configured.
var ErrNoToken = errors.New("bot token not configured")

// Config holds the client settings. The token is the only required field.
type Config struct {
	Token             string        `json:"token"`
	APIURL            string        `json:"api_url"`
	ConnectTimeout    time.Duration `json:"connect_timeout"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	PollTimeout       int           `json:"poll_timeout"`
	MaxSegmentLength  int           `json:"max_segment_length"`
	MaxAttempts       uint          `json:"max_attempts"`
	MessagesPerSecond float64       `json:"messages_per_second"`
}

// ConfigFromEnv builds a Config from the process environment.
// BOT_TOKEN is required; BOT_API_URL, BOT_MAX_ATTEMPTS and
// BOT_MESSAGES_PER_SECOND are optional.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Token:  getEnv("BOT_TOKEN", ""),
		APIURL: getEnv("BOT_API_URL", ""),
	}
	if cfg.Token == "" {
		return cfg, fmt.Errorf("%w: set BOT_TOKEN in environment", ErrNoToken)
	}

	if raw := getEnv("BOT_MAX_ATTEMPTS", ""); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return cfg, fmt.Errorf("invalid BOT_MAX_ATTEMPTS %q: %w", raw, err)
		}
		cfg.MaxAttempts = uint(n)
	}
	if raw := getEnv("BOT_MESSAGES_PER_SECOND", ""); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid BOT_MESSAGES_PER_SECOND %q: %w", raw, err)
		}
		cfg.MessagesPerSecond = f
	}

	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// defaults applies default values to unset fields.
func (c *Config) defaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.MaxSegmentLength == 0 {
		c.MaxSegmentLength = DefaultMaxSegmentLength
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
}

// validate checks field constraints after defaults have been applied.
func (c *Config) validate() error {
	if c.Token == "" {
		return ErrNoToken
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api_url must be a valid http/https URL, got %q", c.APIURL)
	}
	if c.PollTimeout < 0 || c.PollTimeout > 50 {
		return fmt.Errorf("poll_timeout must be 0-50, got %d", c.PollTimeout)
	}
	if c.MaxSegmentLength < 1 || c.MaxSegmentLength > 4096 {
		return fmt.Errorf("max_segment_length must be 1-4096, got %d", c.MaxSegmentLength)
	}
	if c.MessagesPerSecond < 0 {
		return fmt.Errorf("messages_per_second must not be negative, got %v", c.MessagesPerSecond)
	}
	return nil
}

func getEnv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
