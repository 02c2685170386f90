package database

import "errors"

// ErrPersistence is the sentinel that SQLite failures inside this
// package (Open, Migrate, MigrateDown and the DB wrapper methods) wrap,
// so callers can classify them as PersistenceError via errors.Is
// without depending on the sqlite3 driver's own error types. Queries
// that other packages run on the embedded *sql.DB do not wrap it.
var ErrPersistence = errors.New("database: persistence error")
