package report

import "errors"

// ErrPersistence wraps any failure writing a day file to disk.
var ErrPersistence = errors.New("report: persistence error")
