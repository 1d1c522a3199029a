package service

import (
	"context"
	"fmt"
	"strings"

	"fusion-agent-be/internal/constant"
	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/internal/repository/specification"
	"fusion-agent-be/internal/repository/unitofwork"
	"fusion-agent-be/pkg/agent"
)

const storeModule = "CONVERSATION_STORE"

// ConversationStore persists agent turns through short-lived units of work.
type ConversationStore struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConversationStore(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *ConversationStore {
	return &ConversationStore{
		uowFactory: uowFactory,
		logger:     log,
	}
}

var _ agent.ConversationStore = (*ConversationStore)(nil)

func senderRole(role agent.Role) string {
	if role == agent.RoleAssistant {
		return constant.SenderRoleAI
	}
	return constant.SenderRoleUser
}

func agentRole(sender string) agent.Role {
	if strings.EqualFold(sender, constant.SenderRoleAI) {
		return agent.RoleAssistant
	}
	return agent.RoleUser
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func (s *ConversationStore) AppendMessage(ctx context.Context, threadID string, role agent.Role, content, stream string) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	msg := &entity.ConversationMessage{
		ThreadId:     threadID,
		DomainStream: normalizeStream(stream),
		SenderRole:   senderRole(role),
		Content:      content,
	}
	if err := uow.ConversationMessageRepository().Create(ctx, msg); err != nil {
		return 0, fmt.Errorf("save %s message: %w", role, err)
	}

	s.logger.Debug(storeModule, "Message saved", map[string]interface{}{
		"thread_id":  threadID,
		"message_id": msg.Id,
		"role":       msg.SenderRole,
	})
	return msg.Id, nil
}

// LoadRecent returns the newest limit messages of the thread in chronological order.
func (s *ConversationStore) LoadRecent(ctx context.Context, threadID, stream string, limit int) ([]agent.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)

	rows, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadID},
		specification.ByDomainStream{Stream: stream},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]agent.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		messages = append(messages, agent.Message{
			Role:    agentRole(rows[i].SenderRole),
			Content: rows[i].Content,
		})
	}
	return messages, nil
}

func (s *ConversationStore) UpdateMessageContent(ctx context.Context, messageID int64, content string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationMessageRepository().UpdateContent(ctx, messageID, content); err != nil {
		return fmt.Errorf("update message %d: %w", messageID, err)
	}
	return nil
}

// SaveAttachment stores the file and returns its id. The message row must already exist.
func (s *ConversationStore) SaveAttachment(ctx context.Context, messageID int64, filename, mimeType string, data []byte) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			uow.Rollback()
			panic(r)
		}
	}()

	msg, err := uow.ConversationMessageRepository().FindOne(ctx, specification.ByID{ID: messageID})
	if err != nil {
		uow.Rollback()
		return 0, err
	}
	if msg == nil {
		uow.Rollback()
		return 0, fmt.Errorf("message %d not found", messageID)
	}

	att := &entity.ConversationAttachment{
		MessageId: messageID,
		Filename:  filename,
		MimeType:  mimeType,
		Content:   data,
	}
	if err := uow.ConversationAttachmentRepository().Create(ctx, att); err != nil {
		uow.Rollback()
		return 0, fmt.Errorf("save attachment: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	s.logger.Info(storeModule, "Attachment saved", map[string]interface{}{
		"message_id":    messageID,
		"attachment_id": att.Id,
		"filename":      filename,
		"size":          len(data),
	})
	return att.Id, nil
}

// GetAttachment returns nil, nil when the id is unknown.
func (s *ConversationStore) GetAttachment(ctx context.Context, id int64) (*entity.ConversationAttachment, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationAttachmentRepository().FindOne(ctx, specification.ByID{ID: id})
}

// ListThread returns every persisted message of a thread, oldest first.
func (s *ConversationStore) ListThread(ctx context.Context, threadID, stream string) ([]*entity.ConversationMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadID},
		specification.ByDomainStream{Stream: stream},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "id"},
	)
}
