package mapper

import (
	"time"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/model"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) MessageToEntity(msg *model.ConversationMessage) *entity.ConversationMessage {
	if msg == nil {
		return nil
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	return &entity.ConversationMessage{
		Id:           msg.Id,
		ThreadId:     msg.ThreadId,
		DomainStream: msg.DomainStream,
		SenderRole:   msg.SenderRole,
		Content:      msg.Content,
		CreatedAt:    msg.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(msg *entity.ConversationMessage) *model.ConversationMessage {
	if msg == nil {
		return nil
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	return &model.ConversationMessage{
		Id:           msg.Id,
		ThreadId:     msg.ThreadId,
		DomainStream: msg.DomainStream,
		SenderRole:   msg.SenderRole,
		Content:      msg.Content,
		CreatedAt:    msg.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ConversationMapper) AttachmentToEntity(a *model.ConversationAttachment) *entity.ConversationAttachment {
	if a == nil {
		return nil
	}
	return &entity.ConversationAttachment{
		Id:        a.Id,
		MessageId: a.MessageId,
		Filename:  a.Filename,
		MimeType:  a.MimeType,
		Content:   a.Content,
		CreatedAt: a.CreatedAt,
	}
}

func (m *ConversationMapper) AttachmentToModel(a *entity.ConversationAttachment) *model.ConversationAttachment {
	if a == nil {
		return nil
	}
	return &model.ConversationAttachment{
		Id:        a.Id,
		MessageId: a.MessageId,
		Filename:  a.Filename,
		MimeType:  a.MimeType,
		Content:   a.Content,
		CreatedAt: a.CreatedAt,
	}
}
