package handler

import (
	"encoding/json"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"io"
	"meet-recording-sync/dto"
	"meet-recording-sync/entities"
	"meet-recording-sync/service"
	"net/http"
)

type HttpHandler struct {
	syncService service.SyncService
}

func NewHttpHandler(syncService service.SyncService) *HttpHandler {
	return &HttpHandler{syncService: syncService}
}

func (h *HttpHandler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.POST("/meetings/:id/sync-recording", h.SyncMeetingRecording)
	v1.GET("/meetings/:id/recording", h.GetRecording)
	v1.POST("/recordings/sync-all", h.SyncAllRecordings)
	v1.GET("/tasks/:id", h.GetTask)
}

func (h *HttpHandler) SyncMeetingRecording(c *gin.Context) {
	meetingId, ok := pathId(c)
	if !ok {
		return
	}

	job, err := h.syncService.EnqueueMeetingSync(c.Request.Context(), meetingId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, taskResponse(job))
}

func (h *HttpHandler) SyncAllRecordings(c *gin.Context) {
	var req dto.SyncAllRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	job, err := h.syncService.EnqueueBatchSync(c.Request.Context(), req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, taskResponse(job))
}

func (h *HttpHandler) GetTask(c *gin.Context) {
	taskId, ok := pathId(c)
	if !ok {
		return
	}

	job, err := h.syncService.GetTask(c.Request.Context(), taskId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskResponse(job))
}

func (h *HttpHandler) GetRecording(c *gin.Context) {
	meetingId, ok := pathId(c)
	if !ok {
		return
	}

	recording, err := h.syncService.GetRecording(c.Request.Context(), meetingId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordingResponse(recording))
}

func pathId(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrMeetingNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrRecordingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrPermanentInput), errors.Is(err, service.ErrInvalidLimit):
		status = http.StatusBadRequest
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

func taskResponse(job *entities.Job) dto.TaskResponse {
	resp := dto.TaskResponse{
		TaskId:    job.ID,
		JobType:   job.JobType,
		Status:    job.Status,
		Limit:     job.Limit,
		Attempt:   job.Attempt,
		LastError: job.LastError,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.EntityType == service.EntityTypeMeeting {
		resp.MeetingId = job.EntityId
	}
	if len(job.Result) > 0 {
		resp.Result = json.RawMessage(job.Result)
	}
	return resp
}

func recordingResponse(r *entities.Recording) dto.RecordingResponse {
	return dto.RecordingResponse{
		Id:                 r.ID,
		MeetingId:          r.MeetingId,
		ArtifactId:         r.ArtifactId,
		ArtifactUrl:        r.ArtifactUrl,
		DurationSeconds:    r.DurationSeconds,
		DurationFormatted:  r.DurationFormatted(),
		State:              r.State,
		IsReady:            r.IsReady(),
		RecordingStartTime: r.RecordingStartTime,
		RecordingEndTime:   r.RecordingEndTime,
		AvailableSince:     r.AvailableSince,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
