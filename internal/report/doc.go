// Package report implements the Report Store: a durable per-calendar-day
// summary file holding scheduled ExecutionReports, a monitoring-cycle
// sample time series, and fleet alert events, written with an
// append-then-rename-atomic strategy so a reader never observes a
// half-written file. A disposable SQLite mirror, rebuilt from the day
// files at startup, serves history queries cheaply.
package report
