package mapper

import (
	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/model"

	"gorm.io/datatypes"
)

type TurnAuditMapper struct{}

func NewTurnAuditMapper() *TurnAuditMapper {
	return &TurnAuditMapper{}
}

func (m *TurnAuditMapper) ToEntity(a *model.TurnAudit) *entity.TurnAudit {
	if a == nil {
		return nil
	}
	return &entity.TurnAudit{
		Id:               a.Id,
		ThreadId:         a.ThreadId,
		DomainStream:     a.DomainStream,
		QuestionType:     a.QuestionType,
		FormatPreference: a.FormatPreference,
		Succeeded:        a.Succeeded,
		ErrorKind:        a.ErrorKind,
		RowCount:         a.RowCount,
		HasAttachment:    a.HasAttachment,
		DurationMs:       a.DurationMs,
		Details:          map[string]interface{}(a.Details),
		CreatedAt:        a.CreatedAt,
	}
}

func (m *TurnAuditMapper) ToModel(a *entity.TurnAudit) *model.TurnAudit {
	if a == nil {
		return nil
	}
	return &model.TurnAudit{
		Id:               a.Id,
		ThreadId:         a.ThreadId,
		DomainStream:     a.DomainStream,
		QuestionType:     a.QuestionType,
		FormatPreference: a.FormatPreference,
		Succeeded:        a.Succeeded,
		ErrorKind:        a.ErrorKind,
		RowCount:         a.RowCount,
		HasAttachment:    a.HasAttachment,
		DurationMs:       a.DurationMs,
		Details:          datatypes.JSONMap(a.Details),
		CreatedAt:        a.CreatedAt,
	}
}
