package contract

import (
	"context"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/repository/specification"
)

type TurnAuditRepository interface {
	Create(ctx context.Context, audit *entity.TurnAudit) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnAudit, error)
}
