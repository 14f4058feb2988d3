package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/collections/internal/database/transfers"
	"github.com/mrlokans/collections/internal/progress"
	"github.com/mrlokans/collections/internal/tasks"
	"github.com/mrlokans/collections/internal/transfer"
)

// TransferRequest is the body of POST /collections/transfer.
type TransferRequest struct {
	SourceCollectionID uuid.UUID `json:"sourceCollectionId" binding:"required"`
	TargetCollectionID uuid.UUID `json:"targetCollectionId" binding:"required"`
	CompanyIDs         []int     `json:"companyIds" binding:"required"`
}

type TransfersController struct {
	engine   TransferEngine
	records  TransferRecordReader
	progress ProgressReader
	queue    TaskQueue
	logger   *log.Logger
}

// NewTransfersController creates the controller. With a nil queue transfers
// run inside the request.
func NewTransfersController(engine TransferEngine, records TransferRecordReader, progress ProgressReader, queue TaskQueue, logger *log.Logger) *TransfersController {
	return &TransfersController{
		engine:   engine,
		records:  records,
		progress: progress,
		queue:    queue,
		logger:   logger,
	}
}

// StartTransfer handles POST /collections/transfer
// Returns 202 with the initial progress when the transfer is queued, or 200
// with the final state when it ran inline.
func (tc *TransfersController) StartTransfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	handle, err := tc.engine.Start(c.Request.Context(), transfer.Request{
		SourceCollectionID: req.SourceCollectionID,
		TargetCollectionID: req.TargetCollectionID,
		CompanyIDs:         req.CompanyIDs,
	})
	switch {
	case errors.Is(err, transfer.ErrValidation):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, transfer.ErrNotFound):
		respondNotFound(c, "source or target collection")
		return
	case err != nil:
		respondInternalError(c, tc.logger, err, "start transfer")
		return
	}

	if tc.queue == nil {
		// The transfer outlives a disconnecting client.
		result, err := tc.engine.Process(context.WithoutCancel(c.Request.Context()), handle.Job)
		if err != nil {
			respondInternalError(c, tc.logger, err, "run transfer")
			return
		}
		c.JSON(http.StatusOK, result.Entry())
		return
	}

	ids, err := tc.queue.Add(tasks.TransferCompaniesTask{Job: handle.Job}).Save()
	if err != nil {
		tc.engine.Abort(handle.Job, err)
		respondInternalError(c, tc.logger, err, "enqueue transfer")
		return
	}
	if len(ids) > 0 {
		c.Header("X-Task-ID", ids[0])
	}

	c.JSON(http.StatusAccepted, handle.Progress)
}

// GetProgress handles GET /collections/transfer/:transferId
// Falls back to the durable record once the in-memory entry has expired.
func (tc *TransfersController) GetProgress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("transferId"))
	if err != nil {
		respondNotFound(c, "transfer")
		return
	}

	entry, err := tc.progress.Get(id)
	if err == nil {
		c.JSON(http.StatusOK, entry)
		return
	}
	if !errors.Is(err, progress.ErrNotFound) {
		respondInternalError(c, tc.logger, err, "get transfer progress")
		return
	}

	if tc.records == nil {
		respondNotFound(c, "transfer")
		return
	}

	record, err := tc.records.GetByID(id)
	if errors.Is(err, transfers.ErrNotFound) {
		respondNotFound(c, "transfer")
		return
	}
	if err != nil {
		respondInternalError(c, tc.logger, err, "get transfer record")
		return
	}

	c.JSON(http.StatusOK, progress.Entry{
		Status:     record.Status,
		Completed:  record.CompletedCompanies,
		Total:      record.TotalCompanies,
		TransferID: record.ID,
	})
}
