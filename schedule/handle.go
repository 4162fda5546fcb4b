package schedule

import "sync"

// Status tracks the lifecycle of a scheduled job.
type Status int

const (
	StatusScheduled Status = iota
	StatusRunning
	StatusIdle
	StatusFailed
	StatusCanceled
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusRunning:
		return "running"
	case StatusIdle:
		return "idle"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Handle identifies a scheduled job and exposes its status.
type Handle struct {
	scheduler *Scheduler
	job       Job
	entryID   int

	mu     sync.Mutex
	status Status
}

// Job returns the job this handle tracks.
func (h *Handle) Job() Job { return h.job }

// Status returns the current job status.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Cancel unschedules the job.
func (h *Handle) Cancel() {
	if h == nil || h.scheduler == nil {
		return
	}
	h.scheduler.Remove(h)
}

func (h *Handle) setStatus(status Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == StatusCanceled || h.status == StatusStopped {
		return
	}
	h.status = status
}
