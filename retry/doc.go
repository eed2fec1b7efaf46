// Package retry factors the retry-with-sleep loops that would otherwise be
// duplicated at every fallible external call site.
//
// Two shapes are provided: Backoff, an exponential-backoff loop for
// operations where every failure is worth retrying, and Policy, a
// classified retrier that distinguishes rate-limit signals (long fixed
// wait) from timeouts (short fixed wait) and treats everything else as
// fatal.
package retry
