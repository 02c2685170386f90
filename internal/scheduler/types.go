package scheduler

import (
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
)

// ScheduledJob is a persistent cron-like job, keyed by ID.
type ScheduledJob struct {
	ID          string           `json:"id"`
	CronExpr    string           `json:"cron_expr"`
	Action      devicemgr.Action `json:"action"`
	Target      string           `json:"target"`
	Enabled     bool             `json:"enabled"`
	NextRunTime time.Time        `json:"next_run_time"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (j *ScheduledJob) clone() *ScheduledJob {
	if j == nil {
		return nil
	}
	cp := *j
	return &cp
}
