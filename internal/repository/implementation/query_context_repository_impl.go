package implementation

import (
	"context"
	"errors"
	"strings"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/mapper"
	"fusion-agent-be/internal/model"
	"fusion-agent-be/internal/repository/contract"
	"fusion-agent-be/internal/repository/specification"

	"gorm.io/gorm"
)

type QueryContextRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QueryContextMapper
}

func NewQueryContextRepository(db *gorm.DB) contract.QueryContextRepository {
	return &QueryContextRepositoryImpl{
		db:     db,
		mapper: mapper.NewQueryContextMapper(),
	}
}

func (r *QueryContextRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QueryContextRepositoryImpl) Create(ctx context.Context, qc *entity.QueryContext) error {
	qc.DomainStream = strings.ToLower(strings.TrimSpace(qc.DomainStream))
	m := r.mapper.ToModel(qc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*qc = *r.mapper.ToEntity(m)
	return nil
}

func (r *QueryContextRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueryContext, error) {
	var m model.QueryContext
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QueryContextRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryContext, error) {
	var models []*model.QueryContext
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.QueryContext, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *QueryContextRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QueryContext{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
