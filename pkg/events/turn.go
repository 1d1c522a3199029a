package events

import "time"

const TurnCompletedType = "agent.turn_completed"

// Event is anything the consumer can forward to a broker.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// TurnCompleted is emitted once per agent turn, successful or not.
type TurnCompleted struct {
	EventID          string    `json:"event_id"`
	ThreadID         string    `json:"thread_id"`
	DomainStream     string    `json:"domain_stream"`
	QuestionType     string    `json:"question_type"`
	FormatPreference string    `json:"format_preference"`
	Succeeded        bool      `json:"succeeded"`
	ErrorKind        string    `json:"error_kind,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	RowCount         int       `json:"row_count"`
	HasAttachment    bool      `json:"has_attachment"`
	DurationMs       int64     `json:"duration_ms"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func (e TurnCompleted) EventType() string {
	return TurnCompletedType
}

func (e TurnCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"event_id":          e.EventID,
		"thread_id":         e.ThreadID,
		"domain_stream":     e.DomainStream,
		"question_type":     e.QuestionType,
		"format_preference": e.FormatPreference,
		"succeeded":         e.Succeeded,
		"error_kind":        e.ErrorKind,
		"error_message":     e.ErrorMessage,
		"row_count":         e.RowCount,
		"has_attachment":    e.HasAttachment,
		"duration_ms":       e.DurationMs,
		"occurred_at":       e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e TurnCompleted) Timestamp() time.Time {
	return e.OccurredAt
}
