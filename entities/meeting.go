package entities

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"meet-recording-sync/constant"
	"time"
)

type Meeting struct {
	ID                 uuid.UUID              `json:"id" gorm:"type:uuid;primaryKey"`
	ExternalEventId    *string                `json:"external_event_id" gorm:"type:varchar(255);index:idx_meetings_external_event_id"`
	ConferenceRecordId *string                `json:"conference_record_id" gorm:"type:varchar(255);index:idx_meetings_conference_record_id"`
	JoinLink           *string                `json:"join_link" gorm:"type:varchar(500)"`
	ScheduledStart     *time.Time             `json:"scheduled_start"`
	ScheduledEnd       *time.Time             `json:"scheduled_end"`
	Status             constant.MeetingStatus `json:"status" gorm:"type:varchar(20);not null;default:'CREATED';index:idx_meetings_status"`
	CreatedAt          time.Time              `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time              `json:"updated_at" gorm:"not null"`

	Recording *Recording `json:"recording,omitempty" gorm:"foreignKey:MeetingId"`
}

func (Meeting) TableName() string {
	return "meetings"
}

func (m *Meeting) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// HasConferenceRecord reports whether the authoritative source can be queried.
func (m *Meeting) HasConferenceRecord() bool {
	return m.ConferenceRecordId != nil && *m.ConferenceRecordId != ""
}

func (m *Meeting) HasJoinLink() bool {
	return m.JoinLink != nil && *m.JoinLink != ""
}

func (m *Meeting) HasExternalEvent() bool {
	return m.ExternalEventId != nil && *m.ExternalEventId != ""
}
