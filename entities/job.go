package entities

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"meet-recording-sync/constant"
	"time"
)

type Job struct {
	ID         uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	EntityId   *uuid.UUID         `json:"entity_id" gorm:"type:uuid"`
	EntityType string             `json:"entity_type" gorm:"type:varchar(50)"`
	Status     constant.JobStatus `json:"status" gorm:"type:varchar(20);not null;index:idx_jobs_status"`
	JobType    constant.JobType   `json:"job_type" gorm:"type:varchar(50);not null"`
	Attempt    int                `json:"attempt" gorm:"not null;default:0"`
	Limit      *int               `json:"limit" gorm:"column:batch_limit"`
	LastError  *string            `json:"last_error" gorm:"type:text"`
	Result     []byte             `json:"result" gorm:"type:jsonb"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
