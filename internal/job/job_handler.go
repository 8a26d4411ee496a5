package job

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dataqueue/dataqueue/common"
	"github.com/dataqueue/dataqueue/internal/config"
	"github.com/dataqueue/dataqueue/internal/dto"
	"github.com/dataqueue/dataqueue/internal/telemetry"
	"github.com/dataqueue/dataqueue/middleware"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(s JobServiceInterface) *JobHandler {
	return &JobHandler{service: s}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// Create enqueues a new job and returns its id with HTTP 201.
func (h *JobHandler) Create(c *gin.Context) {
	var req dto.JobCreateDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	id, err := h.service.AddJob(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	telemetry.JobsEnqueued.Inc()
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Get fetches a single job. A missing job maps to HTTP 404.
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, common.APIError{Message: "job not found"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// List returns jobs filtered by ?status=, or a paginated scan over all jobs
// when no status is given (?limit= and ?offset=).
func (h *JobHandler) List(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		jobs, err := h.service.GetJobsByStatus(c.Request.Context(), config.JobStatus(status))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, jobs)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.service.GetAllJobs(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// Events returns the audit trail for a job, oldest first.
func (h *JobHandler) Events(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	events, err := h.service.GetJobEvents(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// NextBatch claims up to max_count jobs for the given worker. Exposed for
// workers polling over HTTP rather than embedding the engine.
func (h *JobHandler) NextBatch(c *gin.Context) {
	var body struct {
		WorkerID string `json:"worker_id" validate:"required"`
		MaxCount int    `json:"max_count" validate:"gte=1,lte=100"`
	}
	if !middleware.Bind(c, &body) {
		return
	}

	jobs, err := h.service.GetNextBatch(c.Request.Context(), body.WorkerID, body.MaxCount)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// Complete marks a job completed.
func (h *JobHandler) Complete(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	if err := h.service.CompleteJob(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Fail records a failure for a job with the supplied message.
func (h *JobHandler) Fail(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	var body struct {
		Message string `json:"message" validate:"required"`
	}
	if !middleware.Bind(c, &body) {
		return
	}

	if err := h.service.FailJob(c.Request.Context(), id, body.Message); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Retry moves a failed job back to pending.
func (h *JobHandler) Retry(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	if err := h.service.RetryJob(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Cancel cancels a pending or failed job.
func (h *JobHandler) Cancel(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	if err := h.service.CancelJob(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CancelUpcoming cancels every pending job and reports the count.
func (h *JobHandler) CancelUpcoming(c *gin.Context) {
	count, err := h.service.CancelAllUpcomingJobs(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": count})
}

// Reclaim reverts stale processing jobs to pending. Threshold comes from
// ?threshold_minutes= and defaults to 10.
func (h *JobHandler) Reclaim(c *gin.Context) {
	minutes, err := strconv.Atoi(c.DefaultQuery("threshold_minutes", "10"))
	if err != nil || minutes < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid threshold_minutes"))
		return
	}

	count, err := h.service.ReclaimStuckJobs(c.Request.Context(), time.Duration(minutes)*time.Minute)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reclaimed": count})
}

// Cleanup deletes old completed jobs. Age comes from ?older_than_days= and
// defaults to 30.
func (h *JobHandler) Cleanup(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("older_than_days", "30"))
	if err != nil || days < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid older_than_days"))
		return
	}

	count, err := h.service.CleanupOldJobs(c.Request.Context(), days)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func jobID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "invalid job id"})
		return 0, false
	}
	return uint(id), true
}
