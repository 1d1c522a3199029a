package mapper

import (
	"time"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/model"
)

type QueryContextMapper struct{}

func NewQueryContextMapper() *QueryContextMapper {
	return &QueryContextMapper{}
}

func (m *QueryContextMapper) ToEntity(q *model.QueryContext) *entity.QueryContext {
	if q == nil {
		return nil
	}

	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}

	return &entity.QueryContext{
		Id:           q.Id,
		DomainStream: q.DomainStream,
		Description:  q.Description,
		Query:        q.Query,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *QueryContextMapper) ToModel(q *entity.QueryContext) *model.QueryContext {
	if q == nil {
		return nil
	}

	var updatedAt time.Time
	if q.UpdatedAt != nil {
		updatedAt = *q.UpdatedAt
	}

	return &model.QueryContext{
		Id:           q.Id,
		DomainStream: q.DomainStream,
		Description:  q.Description,
		Query:        q.Query,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}
