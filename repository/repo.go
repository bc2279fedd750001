package repository

import (
	"context"
	"database/sql"
	"errors"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"meet-recording-sync/constant"
	"meet-recording-sync/entities"
	"time"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB
	AutoMigrate() error

	FindMeetingById(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
	ListMeetingsWithoutRecording(ctx context.Context, limit *int) ([]*entities.Meeting, error)
	FindRecordingByMeetingId(ctx context.Context, meetingId uuid.UUID) (*entities.Recording, error)
	UpsertRecording(ctx context.Context, recording *entities.Recording) (created bool, err error)

	CreateJob(ctx context.Context, job *entities.Job) error
	FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status constant.JobStatus, attempt int, lastError *string) error
	CompleteJob(ctx context.Context, id uuid.UUID, status constant.JobStatus, result []byte, lastError *string) error
}

type repo struct {
	db *gorm.DB
}

type txKey struct{}

func NewRepo(db *sql.DB) (Repository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	if err != nil {
		return nil, err
	}
	return NewGormRepo(gormDB), nil
}

func NewGormRepo(db *gorm.DB) Repository {
	return &repo{
		db: db,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) AutoMigrate() error {
	return r.db.AutoMigrate(&entities.Meeting{}, &entities.Recording{}, &entities.Job{})
}

// conn returns the transaction bound to ctx, if any.
func (r *repo) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return callback(ctx)
	}
	return r.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := callback(context.WithValue(ctx, txKey{}, tx))
		if err != nil {
			return err
		}
		return nil
	}, opts...)
}

func (r *repo) FindMeetingById(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	meeting := &entities.Meeting{}
	err := r.conn(ctx).Preload("Recording").First(meeting, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return meeting, nil
}

// ListMeetingsWithoutRecording returns meetings eligible for reconciliation, highest
// priority first: conference record known, then most recent scheduled start, then
// meetings without a scheduled start by most recent creation. limit truncates the
// ordered selection.
func (r *repo) ListMeetingsWithoutRecording(ctx context.Context, limit *int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	query := r.conn(ctx).Model(&entities.Meeting{}).
		Where("NOT EXISTS (SELECT 1 FROM recordings WHERE recordings.meeting_id = meetings.id)").
		Where("meetings.join_link IS NOT NULL AND meetings.join_link <> ''").
		Order("CASE WHEN meetings.conference_record_id IS NULL OR meetings.conference_record_id = '' THEN 1 ELSE 0 END").
		Order("CASE WHEN meetings.scheduled_start IS NULL THEN 1 ELSE 0 END").
		Order("meetings.scheduled_start DESC").
		Order("meetings.created_at DESC")
	if limit != nil {
		query = query.Limit(*limit)
	}

	if err := query.Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *repo) FindRecordingByMeetingId(ctx context.Context, meetingId uuid.UUID) (*entities.Recording, error) {
	recording := &entities.Recording{}
	err := r.conn(ctx).Where("meeting_id = ?", meetingId).Take(recording).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return recording, nil
}

var recordingUpsertColumns = []string{
	"artifact_id",
	"artifact_url",
	"duration_seconds",
	"state",
	"recording_start_time",
	"recording_end_time",
	"available_since",
	"updated_at",
}

// UpsertRecording writes the recording keyed by meeting identity inside a single
// transaction. The existing row is superseded in place; a concurrent insert for the
// same meeting collapses into an update through the unique meeting_id index. On
// return recording holds the persisted row.
func (r *repo) UpsertRecording(ctx context.Context, recording *entities.Recording) (bool, error) {
	created := false
	err := r.Transaction(ctx, func(ctx context.Context) error {
		db := r.conn(ctx)
		existing := &entities.Recording{}
		insertedId := uuid.Nil
		err := db.Where("meeting_id = ?", recording.MeetingId).Take(existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// a concurrent insert wins the conflict and keeps its own id
			insertedId = uuid.New()
			recording.ID = insertedId
			err = db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "meeting_id"}},
				DoUpdates: clause.AssignmentColumns(recordingUpsertColumns),
			}).Create(recording).Error
			if err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			updates := map[string]interface{}{
				"artifact_id":          recording.ArtifactId,
				"artifact_url":         recording.ArtifactUrl,
				"duration_seconds":     recording.DurationSeconds,
				"state":                recording.State,
				"recording_start_time": recording.RecordingStartTime,
				"recording_end_time":   recording.RecordingEndTime,
				"available_since":      recording.AvailableSince,
				"updated_at":           time.Now().UTC(),
			}
			err = db.Model(&entities.Recording{}).Where("id = ?", existing.ID).Updates(updates).Error
			if err != nil {
				return err
			}
		}

		stored := &entities.Recording{}
		if err := db.Where("meeting_id = ?", recording.MeetingId).Take(stored).Error; err != nil {
			return err
		}
		created = insertedId != uuid.Nil && stored.ID == insertedId
		*recording = *stored
		return nil
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

func (r *repo) CreateJob(ctx context.Context, job *entities.Job) error {
	return r.conn(ctx).Create(job).Error
}

func (r *repo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	job := &entities.Job{}
	err := r.conn(ctx).First(job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return job, nil
}

func (r *repo) UpdateJobStatus(ctx context.Context, id uuid.UUID, status constant.JobStatus, attempt int, lastError *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"attempt":    attempt,
		"last_error": lastError,
	}
	return r.conn(ctx).Model(&entities.Job{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) CompleteJob(ctx context.Context, id uuid.UUID, status constant.JobStatus, result []byte, lastError *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"result":     result,
		"last_error": lastError,
	}
	return r.conn(ctx).Model(&entities.Job{}).Where("id = ?", id).Updates(updates).Error
}
