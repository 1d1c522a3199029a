package entity

import "time"

// QueryContext pairs a routing description with a stored query template.
type QueryContext struct {
	Id           int64
	DomainStream string
	Description  string
	Query        string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
