package dto

import "time"

// JobStatus describes one scheduled cleanup job
type JobStatus struct {
	Name        string     `json:"name"`
	Spec        string     `json:"spec"`
	Scheduled   bool       `json:"scheduled"`
	Running     bool       `json:"running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastDeleted int64      `json:"last_deleted"`
	LastError   string     `json:"last_error,omitempty"`
	Runs        int64      `json:"runs"`
	Failures    int64      `json:"failures"`
}

// SchedulerStatus is the response of GET /activities/scheduler/status
type SchedulerStatus struct {
	Running  bool        `json:"running"`
	Timezone string      `json:"timezone"`
	Jobs     []JobStatus `json:"jobs"`
}
