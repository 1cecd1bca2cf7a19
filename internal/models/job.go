package models

// Job status values reported by the upstream document-analysis service.
const (
	JobStatusPending   = "PENDING"
	JobStatusSucceeded = "SUCCEEDED"
	JobStatusFailed    = "FAILED"
)

// ProcessingJob identifies one unit of work handed over by the orchestrator.
// It is read-only to the pipeline and carries no retained state.
type ProcessingJob struct {
	JobID      string `json:"jobId"`
	ResultsKey string `json:"resultsKey,omitempty"`
	JobStatus  string `json:"jobStatus"`
	MessageID  string `json:"messageId"`
}

// IsProcessable reports whether the upstream analysis succeeded and left a
// results reference to read.
func (j ProcessingJob) IsProcessable() bool {
	return j.JobStatus == JobStatusSucceeded && j.ResultsKey != ""
}
