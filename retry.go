package tgdispatch

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy decides how often and on which failures a network call is
// resubmitted. The zero value makes a single attempt.
type RetryPolicy struct {
	// MaxAttempts is the ceiling on attempts, the first one included.
	MaxAttempts uint
	// Retryable classifies a failed attempt. A nil func retries nothing.
	Retryable func(error) bool
	// BackOff builds the delay schedule for one call. Nil means
	// exponential backoff starting at 500ms.
	BackOff func() backoff.BackOff
}

// DefaultRetryPolicy retries connection timeouts up to DefaultMaxAttempts times.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Retryable:   IsConnectTimeout,
	}
}

// Transport returns a copy of p that retries every transport failure,
// not only connection timeouts. HTTP status failures are still final.
func (p RetryPolicy) Transport() RetryPolicy {
	p.Retryable = IsTransportError
	return p
}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.BackOff != nil {
		return p.BackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}

// retry runs op under policy p. Failures the policy does not classify as
// retryable end the loop immediately.
func retry[T any](ctx context.Context, p RetryPolicy, op func() (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	res, err := backoff.Retry(ctx, func() (T, error) {
		res, err := op()
		if err == nil {
			return res, nil
		}
		// A failure caused by the caller's own context is final, whatever
		// it looks like on the wire.
		if ctx.Err() != nil || p.Retryable == nil || !p.Retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(attempts),
		backoff.WithMaxElapsedTime(0),
	)

	// backoff.Retry returns a *PermanentError as-is when the last allowed
	// attempt fails permanently.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return res, err
}

// IsConnectTimeout reports whether err is a failure to establish a
// connection within the dial timeout.
func IsConnectTimeout(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" && opErr.Timeout()
	}
	return false
}

// IsTransportError reports whether err happened before a complete HTTP
// response was received, timeouts included. API errors and cancellation are
// not transport errors; an http.Client.Timeout deadline is one. retry checks
// the caller's context itself before classifying.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
