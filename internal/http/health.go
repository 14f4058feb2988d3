package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/collections/internal/database"
	"github.com/mrlokans/collections/internal/entities"
)

const (
	healthOK        = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// ReservedCollectionFinder looks up the collections transfers depend on.
type ReservedCollectionFinder interface {
	FindCollectionByName(name string) (*entities.Collection, error)
}

// ProgressCounter reports how many transfers are being tracked.
type ProgressCounter interface {
	Len() int
}

// HealthController reports whether transfers can run: the database answers,
// the reserved collections exist and the progress tracker is wired.
type HealthController struct {
	db       *database.Database
	finder   ReservedCollectionFinder
	reserved []string
	progress ProgressCounter
	version  string
}

func NewHealthController(db *database.Database, finder ReservedCollectionFinder, reserved []string, progress ProgressCounter, version string) *HealthController {
	return &HealthController{
		db:       db,
		finder:   finder,
		reserved: reserved,
		progress: progress,
		version:  version,
	}
}

// Status answers 503 when the database or a collection lookup fails. Missing
// reserved collections only degrade the service: transfers still run, but
// role behavior for the missing names is lost.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := healthOK

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = healthUnhealthy
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	if status == healthOK {
		checks["collections"], status = h.checkCollections()
	}

	if h.progress != nil {
		checks["progress"] = strconv.Itoa(h.progress.Len()) + " tracked"
	} else {
		checks["progress"] = "not configured"
	}

	statusCode := http.StatusOK
	if status == healthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	})
}

func (h *HealthController) checkCollections() (string, string) {
	if h.finder == nil || len(h.reserved) == 0 {
		return "not configured", healthOK
	}

	var missing []string
	for _, name := range h.reserved {
		collection, err := h.finder.FindCollectionByName(name)
		if err != nil {
			return "error: " + err.Error(), healthUnhealthy
		}
		if collection == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "missing: " + strings.Join(missing, ", "), healthDegraded
	}
	return "ok", healthOK
}
