package http

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

type AuditController struct {
	audit  AuditReader
	logger *log.Logger
}

func NewAuditController(audit AuditReader, logger *log.Logger) *AuditController {
	return &AuditController{
		audit:  audit,
		logger: logger,
	}
}

// GetTransferEvents returns paginated transfer audit events as JSON
// GET /audit/transfers
func (ac *AuditController) GetTransferEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	offset := (page - 1) * limit

	events, total, err := ac.audit.GetTransferEvents(limit, offset)
	if err != nil {
		respondInternalError(c, ac.logger, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}
