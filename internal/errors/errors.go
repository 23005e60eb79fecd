// Package errors collects the sentinel errors shared across the offset
// tracker so callers can match on them with errors.Is instead of string
// comparison.
package errors

import "errors"

// ErrInvalidConfig is wrapped by config validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrUnknownHostResolverBackend is returned when hostResolver.backend
// names anything other than "memory" or "redis".
var ErrUnknownHostResolverBackend = errors.New("unknown host resolver backend")

// ErrNoBrokers is returned when kafka.brokers is empty.
var ErrNoBrokers = errors.New("no kafka brokers configured")
