package constant

type JobStatus string

const (
	JobStatusPending  JobStatus = "PENDING"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusRetrying JobStatus = "RETRYING"
	JobStatusSuccess  JobStatus = "SUCCESS"
	JobStatusFailed   JobStatus = "FAILED"
)

// Terminal reports whether no further transition can happen.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

type JobType string

const (
	JobTypeSyncMeeting JobType = "sync_meeting_recording"
	JobTypeSyncAll     JobType = "sync_all_recordings"
)

type MeetingStatus string

const (
	MeetingStatusCreated   MeetingStatus = "CREATED"
	MeetingStatusScheduled MeetingStatus = "SCHEDULED"
	MeetingStatusFinished  MeetingStatus = "FINISHED"
	MeetingStatusCancelled MeetingStatus = "CANCELLED"
)

type RecordingState string

const (
	RecordingStateStarted       RecordingState = "STARTED"
	RecordingStateEnded         RecordingState = "ENDED"
	RecordingStateFileGenerated RecordingState = "FILE_GENERATED"
)

type HeuristicSource string

const (
	HeuristicSourceDrive HeuristicSource = "drive"
	HeuristicSourceMinIO HeuristicSource = "minio"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
