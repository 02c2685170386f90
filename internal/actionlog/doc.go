// Package actionlog implements the Action Log Sink: an
// append-only, date-rotated, newline-delimited JSON record stream that
// both the Device Manager and the Monitor write to, plus the query/
// export paths behind GET /logs and GET /logs/export.
package actionlog
