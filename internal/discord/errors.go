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

package discord

// In this file: API error types and their classification helpers.

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrAuthExpired indicates that the API rejected the bearer token.  The
// session layer reacts to it by invalidating the cached token and retrying
// the operation once with a freshly extracted one.
var ErrAuthExpired = errors.New("authorization expired or token invalid")

// StatusError is returned when the API responds with an unexpected HTTP
// status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord API error: status %d: %s", e.Code, e.Body)
}

// Is makes a 401 StatusError match ErrAuthExpired.
func (e *StatusError) Is(target error) bool {
	return target == ErrAuthExpired && e.Code == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API (unknown channel,
// server or conversation id).
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// RateLimitedError is returned when the API signals throttling (HTTP 429).
// RetryAfter carries the provider-suggested backoff.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by discord, retry after %s", e.RetryAfter)
}
