package implementation

import (
	"context"
	"errors"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/mapper"
	"fusion-agent-be/internal/model"
	"fusion-agent-be/internal/repository/contract"
	"fusion-agent-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ConversationAttachmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationAttachmentRepository(db *gorm.DB) contract.ConversationAttachmentRepository {
	return &ConversationAttachmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationAttachmentRepositoryImpl) Create(ctx context.Context, attachment *entity.ConversationAttachment) error {
	m := r.mapper.AttachmentToModel(attachment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*attachment = *r.mapper.AttachmentToEntity(m)
	return nil
}

func (r *ConversationAttachmentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationAttachment, error) {
	var m model.ConversationAttachment
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AttachmentToEntity(&m), nil
}
