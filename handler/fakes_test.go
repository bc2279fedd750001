package handler

import (
	"context"
	"github.com/google/uuid"
	"meet-recording-sync/dto"
	"meet-recording-sync/entities"
)

type fakeSyncService struct {
	job       *entities.Job
	recording *entities.Recording
	err       error

	enqueuedMeeting uuid.UUID
	enqueuedLimit   *int
	syncJobId       *uuid.UUID
	syncMeetingId   uuid.UUID
	syncLimit       *int
	meetingResult   *dto.MeetingSyncResult
	batchResult     *dto.BatchSyncResult
}

func (f *fakeSyncService) EnqueueMeetingSync(_ context.Context, meetingId uuid.UUID) (*entities.Job, error) {
	f.enqueuedMeeting = meetingId
	return f.job, f.err
}

func (f *fakeSyncService) EnqueueBatchSync(_ context.Context, limit *int) (*entities.Job, error) {
	f.enqueuedLimit = limit
	return f.job, f.err
}

func (f *fakeSyncService) GetTask(_ context.Context, _ uuid.UUID) (*entities.Job, error) {
	return f.job, f.err
}

func (f *fakeSyncService) GetRecording(_ context.Context, _ uuid.UUID) (*entities.Recording, error) {
	return f.recording, f.err
}

func (f *fakeSyncService) SyncMeetingRecording(_ context.Context, jobId *uuid.UUID, meetingId uuid.UUID) (*dto.MeetingSyncResult, error) {
	f.syncJobId = jobId
	f.syncMeetingId = meetingId
	return f.meetingResult, f.err
}

func (f *fakeSyncService) SyncAllRecordings(_ context.Context, jobId *uuid.UUID, limit *int) (*dto.BatchSyncResult, error) {
	f.syncJobId = jobId
	f.syncLimit = limit
	return f.batchResult, f.err
}
