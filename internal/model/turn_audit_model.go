package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TurnAudit struct {
	Id               uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThreadId         string            `gorm:"type:varchar(64);not null;index"`
	DomainStream     string            `gorm:"type:varchar(32);not null;index"`
	QuestionType     string            `gorm:"type:varchar(20);not null"`
	FormatPreference string            `gorm:"type:varchar(20);not null"`
	Succeeded        bool              `gorm:"not null"`
	ErrorKind        string            `gorm:"type:varchar(32)"`
	RowCount         int               `gorm:"not null;default:0"`
	HasAttachment    bool              `gorm:"not null;default:false"`
	DurationMs       int64             `gorm:"not null;default:0"`
	Details          datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time         `gorm:"autoCreateTime;index"`
}

func (TurnAudit) TableName() string {
	return "agent_turn_audits"
}
