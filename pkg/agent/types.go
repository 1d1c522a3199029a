package agent

import (
	"fmt"
	"strings"
)

const (
	// HistoryLimit is the rolling context window loaded per turn.
	HistoryLimit = 20
	// InlineRowLimit is the largest result rendered without an attachment.
	InlineRowLimit = 10

	DownloadPlaceholder    = "[DOWNLOAD_LINK_PLACEHOLDER]"
	DownloadUnavailable    = "(Download is currently unavailable due to a system error.)"
	SpreadsheetMimeType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	AttachmentDownloadPath = "/api/agent/v1/attachments/"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type QuestionType string

const (
	QuestionTypeNonGeneral QuestionType = "non-general"
	QuestionTypeGeneral    QuestionType = "general"
	QuestionTypeUnknown    QuestionType = "unknown"
)

type FormatPreference string

const (
	FormatNaturalLanguage FormatPreference = "natural_language"
	FormatTable           FormatPreference = "table"
)

// ParseFormatPreference maps "" to natural_language and rejects anything unknown.
func ParseFormatPreference(s string) (FormatPreference, error) {
	switch FormatPreference(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatNaturalLanguage:
		return FormatNaturalLanguage, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format preference %q", s)
	}
}

// Attachment is a generated file waiting to be persisted.
type Attachment struct {
	Filename   string
	Base64Data string
}

type ContextDescriptor struct {
	ID          int64
	Description string
}

type ErrorKind string

const (
	ErrorKindClassification    ErrorKind = "classification"
	ErrorKindContextResolution ErrorKind = "context_resolution"
	ErrorKindAdaptation        ErrorKind = "adaptation"
	ErrorKindExecution         ErrorKind = "execution"
	ErrorKindFormatting        ErrorKind = "formatting"
	ErrorKindInput             ErrorKind = "input"
	ErrorKindInternal          ErrorKind = "internal"
)

// StageError is the failure outcome of one pipeline stage. Message is user visible.
type StageError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	return e.Message
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

func newStageError(kind ErrorKind, cause error, format string, args ...interface{}) *StageError {
	return &StageError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// TurnState is owned by a single Run.
type TurnState struct {
	Messages         []Message
	QuestionType     QuestionType
	SelectedQuery    *string
	Query            *string
	CSVData          string
	RowCount         int
	FormatPreference FormatPreference
	Attachment       *Attachment
	DomainStream     string
	Err              *StageError
}

// LatestUtterance returns the content of the last message.
func (s *TurnState) LatestUtterance() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Content
}

// HistoryText renders the conversation as "role: content" lines.
func (s *TurnState) HistoryText() string {
	var sb strings.Builder
	for i, m := range s.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}

type RunInput struct {
	Question         string
	ThreadID         string
	FormatPreference FormatPreference
	DomainStream     string
}

type RunResult struct {
	Response         string
	Query            *string
	Error            *StageError
	ThreadID         string
	QuestionType     QuestionType
	FormatPreference FormatPreference
	DomainStream     string
	AttachmentID     *int64
	RowCount         int
}

// Succeeded reports whether the turn finished without a stage error.
func (r *RunResult) Succeeded() bool {
	return r.Error == nil
}
