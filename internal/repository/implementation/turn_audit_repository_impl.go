package implementation

import (
	"context"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/mapper"
	"fusion-agent-be/internal/model"
	"fusion-agent-be/internal/repository/contract"
	"fusion-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TurnAuditRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TurnAuditMapper
}

func NewTurnAuditRepository(db *gorm.DB) contract.TurnAuditRepository {
	return &TurnAuditRepositoryImpl{
		db:     db,
		mapper: mapper.NewTurnAuditMapper(),
	}
}

func (r *TurnAuditRepositoryImpl) Create(ctx context.Context, audit *entity.TurnAudit) error {
	if audit.Id == uuid.Nil {
		audit.Id = uuid.New()
	}
	m := r.mapper.ToModel(audit)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*audit = *r.mapper.ToEntity(m)
	return nil
}

func (r *TurnAuditRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnAudit, error) {
	var models []*model.TurnAudit
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TurnAudit, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
