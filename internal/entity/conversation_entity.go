package entity

import (
	"time"
)

type ConversationMessage struct {
	Id           int64
	ThreadId     string
	DomainStream string
	SenderRole   string // "USER" or "AI"
	Content      string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

type ConversationAttachment struct {
	Id        int64
	MessageId int64
	Filename  string
	MimeType  string
	Content   []byte
	CreatedAt time.Time
}
