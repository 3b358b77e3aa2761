package scheduler

import (
	"context"
	"time"
)

// Job is one scheduled unit of work.
type Job interface {
	// Name returns the job name.
	Name() string

	// Run executes the job.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds field included.
	Schedule() string
}

// JobResult records one job execution.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the recent execution results for one job.
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, keeping the last 100.
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > 100 {
		h.Results = h.Results[len(h.Results)-100:]
	}
}

// SuccessRate returns the fraction of successful runs, 0..1.
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}

	succeeded := 0
	for _, result := range h.Results {
		if result.Success {
			succeeded++
		}
	}

	return float64(succeeded) / float64(len(h.Results))
}
