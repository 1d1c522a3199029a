package dto

import "time"

type AskRequest struct {
	Question         string `json:"question" validate:"required,max=4000"`
	ThreadId         string `json:"thread_id" validate:"omitempty,max=64"`
	FormatPreference string `json:"format_preference" validate:"omitempty,oneof=natural_language table"`
}

type TurnErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type AskResponse struct {
	ThreadId         string             `json:"thread_id"`
	Response         string             `json:"response"`
	Query            *string            `json:"query,omitempty"`
	QuestionType     string             `json:"question_type"`
	FormatPreference string             `json:"format_preference"`
	DomainStream     string             `json:"domain_stream"`
	AttachmentId     *int64             `json:"attachment_id,omitempty"`
	RowCount         int                `json:"row_count"`
	Error            *TurnErrorResponse `json:"error,omitempty"`
}

type MessageResponse struct {
	Id        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type StreamResponse struct {
	Stream string `json:"stream"`
	Title  string `json:"title"`
}

type AttachmentDownload struct {
	Filename string
	MimeType string
	Content  []byte
}
