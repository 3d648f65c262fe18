package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a content generation job.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// IsTerminal returns true if the status represents a final state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsValid checks if the status is a known lifecycle state.
func (s JobStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Capability identifies the kind of artifact a job produces.
type Capability string

const (
	CapabilityIllustration Capability = "illustration"
	CapabilityAudio        Capability = "audio"
	CapabilityVideo        Capability = "video"
)

// IsValid checks if the capability is supported.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityIllustration, CapabilityAudio, CapabilityVideo:
		return true
	}
	return false
}

// FileExtension returns the artifact file extension for the capability.
func (c Capability) FileExtension() string {
	switch c {
	case CapabilityIllustration:
		return ".png"
	case CapabilityAudio:
		return ".mp3"
	case CapabilityVideo:
		return ".mp4"
	}
	return ""
}

// ArtifactCategory returns the storage subdirectory for the capability.
func (c Capability) ArtifactCategory() string {
	switch c {
	case CapabilityIllustration:
		return "illustrations"
	case CapabilityAudio:
		return "audio"
	case CapabilityVideo:
		return "videos"
	}
	return ""
}

// JobResult holds the outcome of a completed generation job.
type JobResult struct {
	FilePath     string  `json:"file_path"`
	FileSize     int64   `json:"file_size"`
	Duration     float64 `json:"duration,omitempty"`
	Backend      string  `json:"backend"`
	PromptUsed   string  `json:"prompt_used,omitempty"`
	ProcessingMS int64   `json:"processing_ms"`
}

// ContentJob represents a content generation job throughout its lifecycle.
//
// Epoch is a dispatch generation counter: every reset bumps it, and every
// state-advancing write is conditional on it, so a run superseded by a reset
// cannot overwrite the newer run's state.
type ContentJob struct {
	ID          uuid.UUID      `json:"job_id"`
	NovelID     uuid.UUID      `json:"novel_id"`
	ChapterID   *uuid.UUID     `json:"chapter_id,omitempty"`
	Capability  Capability     `json:"capability"`
	Prompt      string         `json:"prompt,omitempty"`
	Params      map[string]any `json:"parameters,omitempty"`
	Status      JobStatus      `json:"status"`
	Epoch       int            `json:"epoch"`
	Result      *JobResult     `json:"result,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// JobStatusSnapshot is the ephemeral status view kept in the cache.
type JobStatusSnapshot struct {
	Status    JobStatus  `json:"status"`
	Result    *JobResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Snapshot builds a status snapshot from the current job state.
func (j *ContentJob) Snapshot() *JobStatusSnapshot {
	return &JobStatusSnapshot{
		Status:    j.Status,
		Result:    j.Result,
		Error:     j.ErrorDetail,
		Timestamp: time.Now().UTC(),
	}
}

// JobFilter narrows job listings.
type JobFilter struct {
	NovelID    *uuid.UUID
	Capability *Capability
	Status     *JobStatus
	Limit      int
	Offset     int
}

// CreateJobRequest represents an incoming generation request from the API.
type CreateJobRequest struct {
	NovelID    uuid.UUID      `json:"novel_id" binding:"required"`
	ChapterID  *uuid.UUID     `json:"chapter_id,omitempty"`
	Capability Capability     `json:"capability" binding:"required"`
	Prompt     string         `json:"prompt,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// CreateJobResponse is returned after a job is accepted.
type CreateJobResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status JobStatus `json:"status"`
}

// BatchCreateRequest requests generation across chapters and capabilities.
type BatchCreateRequest struct {
	NovelID      uuid.UUID    `json:"novel_id" binding:"required"`
	Capabilities []Capability `json:"capabilities" binding:"required"`
	ChapterIDs   []uuid.UUID  `json:"chapter_ids,omitempty"`
}

// BatchItem reports the outcome of one job creation within a batch.
type BatchItem struct {
	JobID      uuid.UUID  `json:"job_id,omitempty"`
	ChapterID  uuid.UUID  `json:"chapter_id"`
	Capability Capability `json:"capability"`
	Error      string     `json:"error,omitempty"`
}

// BatchCreateResponse is returned after a batch submission.
type BatchCreateResponse struct {
	Jobs    []BatchItem `json:"jobs"`
	Created int         `json:"created"`
}
