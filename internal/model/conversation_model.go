package model

import (
	"time"
)

type ConversationMessage struct {
	Id           int64     `gorm:"primaryKey;autoIncrement"`
	ThreadId     string    `gorm:"type:varchar(64);not null;index:idx_conversation_thread_stream,priority:1"`
	DomainStream string    `gorm:"type:varchar(32);not null;index:idx_conversation_thread_stream,priority:2"`
	SenderRole   string    `gorm:"type:varchar(10);not null"`
	Content      string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Attachments []ConversationAttachment `gorm:"foreignKey:MessageId;constraint:OnDelete:CASCADE"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

type ConversationAttachment struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	MessageId int64     `gorm:"not null;index"`
	Filename  string    `gorm:"type:varchar(255);not null"`
	MimeType  string    `gorm:"type:varchar(255);not null"`
	Content   []byte    `gorm:"type:bytea;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ConversationAttachment) TableName() string {
	return "conversation_attachments"
}
