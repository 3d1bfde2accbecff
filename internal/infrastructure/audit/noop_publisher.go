package audit

import (
	"context"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/service"
)

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops all events. Used when
// the audit stream is disabled in configuration.
func NewNoopPublisher() service.AuditPublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, models.AuditEvent) error { return nil }
