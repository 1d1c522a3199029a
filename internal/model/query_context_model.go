package model

import "time"

type QueryContext struct {
	Id           int64     `gorm:"primaryKey;autoIncrement"`
	DomainStream string    `gorm:"type:varchar(32);not null;index"`
	Description  string    `gorm:"type:text;not null"`
	Query        string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (QueryContext) TableName() string {
	return "query_contexts"
}
