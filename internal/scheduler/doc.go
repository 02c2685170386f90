// Package scheduler implements the Scheduler: persistent cron-like
// jobs that invoke Device Manager callbacks at configured
// local times. See scheduler.go for the fire loop and cron.go for the
// hand-rolled five-field cron evaluator.
package scheduler
