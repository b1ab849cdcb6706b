package models

import "time"

// BatchJob is the queue payload for an async batch request. Files are staged
// to the uploads dir before publishing; items reference the staged paths.
type BatchJob struct {
	ID          string    `json:"id"`
	Model       string    `json:"model"`
	Enhancement float64   `json:"enhancement"`
	Items       []JobItem `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
}

type JobItem struct {
	OriginalFilename string `json:"original_filename"`
	UploadPath       string `json:"upload_path"`
	ContentType      string `json:"content_type"`
}

// JobStatus is the progress record kept in redis while workers drain a job.
type JobStatus struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Total     int         `json:"total"`
	Completed int         `json:"completed"`
	Current   string      `json:"current,omitempty"`
	Results   []BatchItem `json:"results,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type EnqueueResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}
