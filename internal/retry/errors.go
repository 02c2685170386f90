package retry

import "errors"

// ErrCancelled wraps the last observed error when Do stops early
// because ctx was cancelled, either during a backoff sleep or between
// attempts.
var ErrCancelled = errors.New("retry: cancelled")
