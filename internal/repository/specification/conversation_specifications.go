package specification

import (
	"strings"

	"gorm.io/gorm"
)

type ByThreadID struct {
	ThreadID string
}

func (s ByThreadID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_id = ?", s.ThreadID)
}

// ByDomainStream matches the stream case-insensitively; streams are stored lower-case.
type ByDomainStream struct {
	Stream string
}

func (s ByDomainStream) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("domain_stream = ?", strings.ToLower(strings.TrimSpace(s.Stream)))
}

type ByMessageID struct {
	MessageID int64
}

func (s ByMessageID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id = ?", s.MessageID)
}
