package entities

import (
	"fmt"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"meet-recording-sync/constant"
	"time"
)

type Recording struct {
	ID                 uuid.UUID                `json:"id" gorm:"type:uuid;primaryKey"`
	MeetingId          uuid.UUID                `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex:unique_recordings_meeting_id"`
	ArtifactId         string                   `json:"artifact_id" gorm:"type:varchar(255);not null"`
	ArtifactUrl        *string                  `json:"artifact_url" gorm:"type:varchar(1000)"`
	DurationSeconds    *int                     `json:"duration_seconds" gorm:"type:integer"`
	State              *constant.RecordingState `json:"state" gorm:"type:varchar(20)"`
	RecordingStartTime *time.Time               `json:"recording_start_time"`
	RecordingEndTime   *time.Time               `json:"recording_end_time"`
	AvailableSince     *time.Time               `json:"available_since"`
	CreatedAt          time.Time                `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time                `json:"updated_at" gorm:"not null"`
}

func (Recording) TableName() string {
	return "recordings"
}

func (r *Recording) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsReady reports whether the artifact is final and playable.
func (r *Recording) IsReady() bool {
	return r.State != nil && *r.State == constant.RecordingStateFileGenerated
}

// DurationFormatted renders the duration as HH:MM:SS, or N/A when unknown.
func (r *Recording) DurationFormatted() string {
	if r.DurationSeconds == nil || *r.DurationSeconds <= 0 {
		return "N/A"
	}
	d := *r.DurationSeconds
	return fmt.Sprintf("%02d:%02d:%02d", d/3600, (d%3600)/60, d%60)
}
