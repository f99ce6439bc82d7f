// Copyright (c) 2021-2026 Rustam Gilyazov and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package network provides the retry and rate limiting primitives for API
// calls.
package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rusq/discordmcp/internal/discord"
)

// defNumAttempts is the default number of retry attempts.
const defNumAttempts = 3

// maxAllowedWaitTime is the maximum time to wait for a transient error.  The
// wait time for a transient error depends on the current retry attempt number
// and is calculated as: (attempt+2)^3 seconds, capped at maxAllowedWaitTime.
var maxAllowedWaitTime = 5 * time.Minute

// waitFn returns the amount of time to wait before retrying depending on the
// current attempt.  These variables exist to reduce the test time.
var (
	waitFn    = cubicWait
	netWaitFn = expWait
	sleepFn   = sleepCtx
)

// ErrRetryFailed is returned if the number of retry attempts is exceeded and
// the callback wasn't able to complete without errors.
var ErrRetryFailed = errors.New("callback was unable to complete without errors within the allowed number of retries")

// WithRetry runs the callback fn.  If fn returns a rate-limit error, it
// sleeps for the provider-suggested duration and calls it again, up to
// maxAttempts times.  Transient server and network errors are retried with a
// growing backoff.  Authorization and client errors are not retried and are
// returned to the caller immediately.
func WithRetry(ctx context.Context, lim *rate.Limiter, maxAttempts int, fn func() error) error {
	if maxAttempts == 0 {
		maxAttempts = defNumAttempts
	}
	var ok bool
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return err
		}

		cbErr := fn()
		if cbErr == nil {
			ok = true
			break
		}
		slog.DebugContext(ctx, "WithRetry: callback error", "error", cbErr, "attempt", attempt+1)

		var (
			rle *discord.RateLimitedError
			se  *discord.StatusError
			ne  *net.OpError
		)
		switch {
		case errors.As(cbErr, &rle):
			slog.DebugContext(ctx, "got rate limited", "retry_after", rle.RetryAfter)
			if err := sleepFn(ctx, rle.RetryAfter); err != nil {
				return err
			}
			continue
		case errors.As(cbErr, &se):
			if isRecoverable(se.Code) {
				delay := waitFn(attempt)
				slog.DebugContext(ctx, "got server error", "code", se.Code, "delay", delay)
				if err := sleepFn(ctx, delay); err != nil {
					return err
				}
				continue
			}
		case errors.As(cbErr, &ne):
			if ne.Op == "read" || ne.Op == "write" {
				delay := netWaitFn(attempt)
				slog.DebugContext(ctx, "got network error", "op", ne.Op, "delay", delay)
				if err := sleepFn(ctx, delay); err != nil {
					return err
				}
				continue
			}
		}

		return fmt.Errorf("callback error: %w", cbErr)
	}
	if !ok {
		return ErrRetryFailed
	}
	return nil
}

// isRecoverable returns true if the status code is a recoverable server
// error.
func isRecoverable(statusCode int) bool {
	return (statusCode >= http.StatusInternalServerError && statusCode <= 599 && statusCode != 501) || statusCode == http.StatusRequestTimeout
}

// cubicWait is the wait time function.  Time is calculated as (x+2)^3
// seconds, where x is the current attempt number.
func cubicWait(attempt int) time.Duration {
	x := attempt + 2 // ensures that we sleep at least 8 seconds.
	delay := time.Duration(x*x*x) * time.Second
	if delay > maxAllowedWaitTime {
		return maxAllowedWaitTime
	}
	return delay
}

func expWait(attempt int) time.Duration {
	delay := time.Duration(2<<uint(attempt)) * time.Second
	if delay > maxAllowedWaitTime {
		return maxAllowedWaitTime
	}
	return delay
}

// sleepCtx sleeps for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SetMaxAllowedWaitTime sets the maximum time to wait for a transient error.
func SetMaxAllowedWaitTime(d time.Duration) {
	maxAllowedWaitTime = d
}
