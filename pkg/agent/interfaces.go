package agent

import (
	"context"

	"fusion-agent-be/pkg/agent/domain"
)

// ContextCatalog is the keyed store of context descriptors and their templates.
type ContextCatalog interface {
	ListContexts(ctx context.Context, stream string) ([]ContextDescriptor, error)
	// GetTemplateByID reports false when no context has the id.
	GetTemplateByID(ctx context.Context, id int64) (string, bool, error)
}

// ReportExecutor turns a finalized query into delimited tabular text.
type ReportExecutor interface {
	Execute(ctx context.Context, query string) (string, error)
}

// ConversationStore persists turns and attachments per thread.
type ConversationStore interface {
	AppendMessage(ctx context.Context, threadID string, role Role, content, stream string) (int64, error)
	// LoadRecent returns at most limit messages, oldest first.
	LoadRecent(ctx context.Context, threadID, stream string, limit int) ([]Message, error)
	UpdateMessageContent(ctx context.Context, messageID int64, content string) error
	SaveAttachment(ctx context.Context, messageID int64, filename, mimeType string, data []byte) (int64, error)
}

// Resolution is a matched context and its stored template.
type Resolution struct {
	ContextID int64
	Template  string
}

type ContextResolver interface {
	Resolve(ctx context.Context, question, stream string) (*Resolution, error)
}

type QueryGenerator interface {
	GenerateQuery(ctx context.Context, history, templateQuery string, profile *domain.Profile) (string, error)
}

type FormatInput struct {
	Question         string
	FormatPreference FormatPreference
	Err              *StageError
	CSVData          string
}

type FormatOutput struct {
	Content    string
	Attachment *Attachment
	CSVData    string
	RowCount   int
}

type ResponseFormatter interface {
	Format(ctx context.Context, in FormatInput) (*FormatOutput, error)
}

// ProfileSource resolves a domain stream to its profile.
type ProfileSource interface {
	Lookup(stream string) (*domain.Profile, bool)
}

// ThreadLocker serialises turns on one thread.
type ThreadLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
