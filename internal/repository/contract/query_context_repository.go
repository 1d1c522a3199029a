package contract

import (
	"context"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/repository/specification"
)

type QueryContextRepository interface {
	Create(ctx context.Context, qc *entity.QueryContext) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueryContext, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryContext, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
