package unitofwork

import (
	"context"

	"fusion-agent-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationMessageRepository() contract.ConversationMessageRepository
	ConversationAttachmentRepository() contract.ConversationAttachmentRepository
	QueryContextRepository() contract.QueryContextRepository
	TurnAuditRepository() contract.TurnAuditRepository
}
