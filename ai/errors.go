// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrRateLimited indicates the model service rejected the call with a
	// rate-limit signal. Retryable after a long backoff.
	ErrRateLimited = errors.New("model service rate limited")

	// ErrTimeout indicates the model service did not answer in time.
	// Retryable after a short backoff.
	ErrTimeout = errors.New("model service timeout")
)

// IsRateLimited reports whether err is a rate-limit signal.
// Besides the local sentinel, HTTP 429 responses surfaced as message text
// by the underlying client are recognized.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit")
}

// IsTimeout reports whether err is a timeout signal.
// Recognizes the local sentinel, context deadlines, and HTTP 504 responses
// surfaced as message text.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "504") || strings.Contains(strings.ToLower(msg), "timeout")
}
