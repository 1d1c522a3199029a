package entity

import (
	"time"

	"github.com/google/uuid"
)

type TurnAudit struct {
	Id               uuid.UUID
	ThreadId         string
	DomainStream     string
	QuestionType     string
	FormatPreference string
	Succeeded        bool
	ErrorKind        string
	RowCount         int
	HasAttachment    bool
	DurationMs       int64
	Details          map[string]interface{}
	CreatedAt        time.Time
}
