package schemas

import "encoding/json"

// -- Job Schemas --

// JobStatus is the client-side view of a job's place in its life cycle.
type JobStatus string

const (
	StatusSubmitted  JobStatus = "submitted"  // Accepted by the service, not yet observed processing.
	StatusProcessing JobStatus = "processing" // At least one poll reported the job still running.
	StatusCompleted  JobStatus = "completed"  // Terminal: the service produced a result payload.
	StatusFailed     JobStatus = "failed"     // Terminal: the service reported a failure.
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseJobStatus maps a raw wire status onto a JobStatus. The service reports
// "pending" for freshly accepted jobs; anything unrecognized is treated as
// non-terminal so a newer service version cannot strand the poll loop in a
// phantom terminal state.
func ParseJobStatus(wire string) JobStatus {
	switch wire {
	case "pending", "submitted":
		return StatusSubmitted
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	default:
		return StatusProcessing
	}
}

// JobSnapshot is the service's view of one job at a single point in time, as
// returned by both the submission endpoints and GET /jobs/{id}. Result is kept
// raw: the payload shape varies by analysis path and is only interpreted by
// the normalizer.
type JobSnapshot struct {
	JobID        string          `json:"job_id"`
	Status       string          `json:"status"`
	Source       string          `json:"source,omitempty"`
	Filename     string          `json:"filename,omitempty"`
	TextLength   int             `json:"text_length,omitempty"`
	CreatedAt    float64         `json:"created_at,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
}

// Input is one submission: either raw text or a document file. Exactly one of
// Text or FilePath should be set.
type Input struct {
	Text     string
	Filename string
	FilePath string
}

// IsFile reports whether the input refers to a document on disk.
func (in Input) IsFile() bool { return in.FilePath != "" }

// Rule describes one entry of the service's rule catalog (GET /rules).
type Rule struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	MatchType   string   `json:"match_type"`
	Patterns    []string `json:"patterns"`
	Severity    Severity `json:"severity"`
	Advice      string   `json:"advice"`
}
