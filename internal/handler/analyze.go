package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"crypto-pulse/internal/repository"
)

// RunAnalysis godoc
// @Summary      Trigger an analysis pipeline run
// @Description  Creates a new analysis job and runs the pipeline in the background
// @Tags         analysis
// @Produce      json
// @Success      202  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /run [post]
func (h *Handler) RunAnalysis(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-analysis")
	defer span.End()

	job, err := h.pipeline.Begin(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	span.SetAttributes(attribute.Int64("job_id", job.ID))

	// The run outlives the request; detach it from the request context.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		if err := h.pipeline.Execute(runCtx, job); err != nil {
			log.Printf("triggered analysis run %d failed: %v", job.ID, err)
		}
	}()

	respond(c, http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

// GetJob godoc
// @Summary      Get analysis job status
// @Description  Returns the status, current step and progress of an analysis job
// @Tags         analysis
// @Produce      json
// @Param        id  path  int  true  "Job id"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-job")
	defer span.End()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid job id: "+c.Param("id"))
		return
	}
	span.SetAttributes(attribute.Int64("job_id", id))

	job, err := h.jobs.GetJob(ctx, id)
	if errors.Is(err, repository.ErrJobNotFound) {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	respond(c, http.StatusOK, job)
}
