package dto

import (
	"github.com/google/uuid"
	"meet-recording-sync/constant"
	"time"
)

type SyncMeetingMessage struct {
	JobId     uuid.UUID `json:"jobId"`
	MeetingId uuid.UUID `json:"meetingId"`
}

type SyncAllMessage struct {
	JobId uuid.UUID `json:"jobId"`
	Limit *int      `json:"limit,omitempty"`
}

// SyncStats aggregates one batch run.
type SyncStats struct {
	Processed int `json:"processed"`
	Found     int `json:"found"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

// MeetingSyncResult is the payload stored on a finished single-meeting job.
type MeetingSyncResult struct {
	Success         bool       `json:"success"`
	MeetingId       uuid.UUID  `json:"meeting_id"`
	RecordingFound  bool       `json:"recording_found"`
	RecordingId     *uuid.UUID `json:"recording_id,omitempty"`
	ArtifactId      *string    `json:"artifact_id,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Strategy        string     `json:"strategy,omitempty"`
	Created         bool       `json:"created"`
	Error           *string    `json:"error,omitempty"`
}

// BatchSyncResult is the payload stored on a finished batch job.
type BatchSyncResult struct {
	Success bool `json:"success"`
	SyncStats
	Error *string `json:"error,omitempty"`
}

type SyncAllRequest struct {
	Limit *int `json:"limit"`
}

type TaskResponse struct {
	TaskId    uuid.UUID          `json:"task_id"`
	JobType   constant.JobType   `json:"job_type"`
	Status    constant.JobStatus `json:"status"`
	MeetingId *uuid.UUID         `json:"meeting_id,omitempty"`
	Limit     *int               `json:"limit,omitempty"`
	Attempt   int                `json:"attempt"`
	LastError *string            `json:"last_error,omitempty"`
	Result    any                `json:"result,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type RecordingResponse struct {
	Id                 uuid.UUID                `json:"id"`
	MeetingId          uuid.UUID                `json:"meeting_id"`
	ArtifactId         string                   `json:"artifact_id"`
	ArtifactUrl        *string                  `json:"artifact_url"`
	DurationSeconds    *int                     `json:"duration_seconds"`
	DurationFormatted  string                   `json:"duration_formatted"`
	State              *constant.RecordingState `json:"state"`
	IsReady            bool                     `json:"is_ready"`
	RecordingStartTime *time.Time               `json:"recording_start_time"`
	RecordingEndTime   *time.Time               `json:"recording_end_time"`
	AvailableSince     *time.Time               `json:"available_since"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
