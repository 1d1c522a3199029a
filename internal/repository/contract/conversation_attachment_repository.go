package contract

import (
	"context"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/repository/specification"
)

type ConversationAttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.ConversationAttachment) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationAttachment, error)
}
