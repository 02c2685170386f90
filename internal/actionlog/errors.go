package actionlog

import "errors"

// PersistenceError is returned (wrapped) when a write to the log file
// fails.
var PersistenceError = errors.New("actionlog: persistence error")
