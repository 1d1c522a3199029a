package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"fusion-agent-be/internal/dto"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent"
	"fusion-agent-be/pkg/agent/domain"
	"fusion-agent-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	result *agent.RunResult
	got    agent.RunInput
}

func (r *fakeRunner) Run(ctx context.Context, in agent.RunInput) *agent.RunResult {
	r.got = in
	return r.result
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return p.err
}

func builtinProfiles(t *testing.T) *domain.Registry {
	t.Helper()
	reg, err := domain.Builtin()
	require.NoError(t, err)
	return reg
}

func TestAgentServiceAsk(t *testing.T) {
	query := "SELECT 1 FROM dual"
	attID := int64(7)
	runner := &fakeRunner{result: &agent.RunResult{
		Response:         "| a |\n|---|\n| 1 |",
		Query:            &query,
		ThreadID:         "thread-1",
		QuestionType:     agent.QuestionTypeNonGeneral,
		FormatPreference: agent.FormatTable,
		DomainStream:     "scm",
		AttachmentID:     &attID,
		RowCount:         12,
	}}
	pub := &recordingPublisher{}
	db := newMemDB()
	svc := NewAgentService(runner, NewConversationStore(fakeFactory{db: db}, logger.NewNop()), builtinProfiles(t), pub, logger.NewNop())

	res, err := svc.Ask(context.Background(), "scm", &dto.AskRequest{
		Question:         "Show receipts",
		ThreadId:         "thread-1",
		FormatPreference: "table",
	})
	require.NoError(t, err)

	assert.Equal(t, agent.RunInput{
		Question:         "Show receipts",
		ThreadID:         "thread-1",
		FormatPreference: agent.FormatTable,
		DomainStream:     "scm",
	}, runner.got)
	assert.Equal(t, "thread-1", res.ThreadId)
	assert.Equal(t, &attID, res.AttachmentId)
	assert.Equal(t, 12, res.RowCount)
	assert.Nil(t, res.Error)

	require.Len(t, pub.payloads, 1)
	var event events.TurnCompleted
	require.NoError(t, json.Unmarshal(pub.payloads[0], &event))
	assert.True(t, event.Succeeded)
	assert.True(t, event.HasAttachment)
	assert.Equal(t, "non-general", event.QuestionType)
	assert.NotEmpty(t, event.EventID)
}

func TestAgentServiceAskStageErrorIsReturnedInBody(t *testing.T) {
	runner := &fakeRunner{result: &agent.RunResult{
		Response:         "I couldn't identify the query type. Please clarify your question.",
		ThreadID:         "t",
		QuestionType:     agent.QuestionTypeNonGeneral,
		FormatPreference: agent.FormatNaturalLanguage,
		DomainStream:     "hcm",
		Error: &agent.StageError{
			Kind:    agent.ErrorKindContextResolution,
			Message: "I couldn't identify the query type. Please clarify your question.",
		},
	}}
	pub := &recordingPublisher{err: errors.New("bus closed")}
	svc := NewAgentService(runner, nil, builtinProfiles(t), pub, logger.NewNop())

	res, err := svc.Ask(context.Background(), "hcm", &dto.AskRequest{Question: "??"})
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, "context_resolution", res.Error.Kind)
	assert.Equal(t, agent.FormatNaturalLanguage, runner.got.FormatPreference)
}

func TestAgentServiceAskInputErrors(t *testing.T) {
	runner := &fakeRunner{result: &agent.RunResult{
		Response: "Error: Agent stream is required.",
		Error:    &agent.StageError{Kind: agent.ErrorKindInput, Message: "Error: Agent stream is required."},
	}}
	svc := NewAgentService(runner, nil, builtinProfiles(t), nil, logger.NewNop())

	_, err := svc.Ask(context.Background(), "", &dto.AskRequest{Question: "q"})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)

	_, err = svc.Ask(context.Background(), "scm", &dto.AskRequest{Question: "q", FormatPreference: "pdf"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
}

func TestAgentServiceHistoryAndDownload(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	store := NewConversationStore(fakeFactory{db: db}, logger.NewNop())
	svc := NewAgentService(&fakeRunner{}, store, builtinProfiles(t), nil, logger.NewNop())

	_, err := store.AppendMessage(ctx, "t1", agent.RoleUser, "q", "scm")
	require.NoError(t, err)
	msgID, err := store.AppendMessage(ctx, "t1", agent.RoleAssistant, "a", "scm")
	require.NoError(t, err)
	attID, err := store.SaveAttachment(ctx, msgID, "Data.xlsx", agent.SpreadsheetMimeType, []byte("PK"))
	require.NoError(t, err)

	history, err := svc.History(ctx, "SCM", "t1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)

	_, err = svc.History(ctx, "finance", "t1")
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusNotFound, fe.Code)

	file, err := svc.DownloadAttachment(ctx, attID)
	require.NoError(t, err)
	assert.Equal(t, "Data.xlsx", file.Filename)

	_, err = svc.DownloadAttachment(ctx, attID+1)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusNotFound, fe.Code)
}

func TestAgentServiceStreams(t *testing.T) {
	svc := NewAgentService(&fakeRunner{}, nil, builtinProfiles(t), nil, logger.NewNop())
	streams := svc.Streams(context.Background())

	var names []string
	for _, s := range streams {
		names = append(names, s.Stream)
		assert.NotEmpty(t, s.Title)
	}
	assert.Equal(t, []string{"hcm", "scm"}, names)
}
