package audit

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mrlokans/collections/internal/database/audit"
	"github.com/mrlokans/collections/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger *log.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *log.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			s.logger.Error("failed to log audit event", "action", event.Action, "err", err)
		}
	}()
}

// Wait blocks until all pending asynchronous events are written.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogTransfer records the outcome of a finished transfer.
func (s *Service) LogTransfer(transferID uuid.UUID, description string, counts map[string]int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventTransfer,
		Action:      "transfer_companies",
		Description: truncate(description, 500),
		EntityType:  "transfer",
		EntityID:    transferID.String(),
		Status:      entities.AuditStatusSuccess,
	}

	if mdBytes, e := json.Marshal(counts); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// GetTransferEvents retrieves paginated transfer audit events.
func (s *Service) GetTransferEvents(limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(entities.AuditEventTransfer, limit, offset)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
