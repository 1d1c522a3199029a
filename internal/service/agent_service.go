package service

import (
	"context"
	"encoding/json"
	"time"

	"fusion-agent-be/internal/dto"
	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent"
	"fusion-agent-be/pkg/agent/domain"
	"fusion-agent-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const agentServiceModule = "AGENT_SERVICE"

type IAgentService interface {
	Ask(ctx context.Context, stream string, request *dto.AskRequest) (*dto.AskResponse, error)
	History(ctx context.Context, stream, threadId string) ([]*dto.MessageResponse, error)
	DownloadAttachment(ctx context.Context, id int64) (*dto.AttachmentDownload, error)
	Streams(ctx context.Context) []*dto.StreamResponse
}

// TurnRunner executes a single agent turn.
type TurnRunner interface {
	Run(ctx context.Context, in agent.RunInput) *agent.RunResult
}

// ConversationReader is the read side of the conversation store used by the HTTP surface.
type ConversationReader interface {
	GetAttachment(ctx context.Context, id int64) (*entity.ConversationAttachment, error)
	ListThread(ctx context.Context, threadID, stream string) ([]*entity.ConversationMessage, error)
}

type ProfileLister interface {
	Lookup(stream string) (*domain.Profile, bool)
	Profiles() []*domain.Profile
}

type agentService struct {
	runner    TurnRunner
	reader    ConversationReader
	profiles  ProfileLister
	publisher IPublisherService
	logger    logger.ILogger
	now       func() time.Time
}

// NewAgentService wires the turn runner to the HTTP surface. publisher may be nil.
func NewAgentService(
	runner TurnRunner,
	reader ConversationReader,
	profiles ProfileLister,
	publisher IPublisherService,
	log logger.ILogger,
) IAgentService {
	return &agentService{
		runner:    runner,
		reader:    reader,
		profiles:  profiles,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func (s *agentService) Ask(ctx context.Context, stream string, request *dto.AskRequest) (*dto.AskResponse, error) {
	format, err := agent.ParseFormatPreference(request.FormatPreference)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	started := s.now()
	result := s.runner.Run(ctx, agent.RunInput{
		Question:         request.Question,
		ThreadID:         request.ThreadId,
		FormatPreference: format,
		DomainStream:     stream,
	})
	elapsed := s.now().Sub(started)

	s.publishTurn(ctx, result, elapsed)

	if result.Error != nil && result.Error.Kind == agent.ErrorKindInput {
		return nil, fiber.NewError(fiber.StatusBadRequest, result.Error.Message)
	}

	res := &dto.AskResponse{
		ThreadId:         result.ThreadID,
		Response:         result.Response,
		Query:            result.Query,
		QuestionType:     string(result.QuestionType),
		FormatPreference: string(result.FormatPreference),
		DomainStream:     result.DomainStream,
		AttachmentId:     result.AttachmentID,
		RowCount:         result.RowCount,
	}
	if result.Error != nil {
		res.Error = &dto.TurnErrorResponse{
			Kind:    string(result.Error.Kind),
			Message: result.Error.Message,
		}
	}
	return res, nil
}

func (s *agentService) publishTurn(ctx context.Context, result *agent.RunResult, elapsed time.Duration) {
	if s.publisher == nil {
		return
	}

	event := events.TurnCompleted{
		EventID:          uuid.NewString(),
		ThreadID:         result.ThreadID,
		DomainStream:     result.DomainStream,
		QuestionType:     string(result.QuestionType),
		FormatPreference: string(result.FormatPreference),
		Succeeded:        result.Succeeded(),
		RowCount:         result.RowCount,
		HasAttachment:    result.AttachmentID != nil,
		DurationMs:       elapsed.Milliseconds(),
		OccurredAt:       s.now().UTC(),
	}
	if result.Error != nil {
		event.ErrorKind = string(result.Error.Kind)
		event.ErrorMessage = result.Error.Message
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error(agentServiceModule, "Failed to marshal turn event", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Warn(agentServiceModule, "Failed to publish turn event", map[string]interface{}{
			"thread_id": result.ThreadID,
			"error":     err.Error(),
		})
	}
}

func (s *agentService) History(ctx context.Context, stream, threadId string) ([]*dto.MessageResponse, error) {
	if _, ok := s.profiles.Lookup(stream); !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "Unknown agent stream")
	}

	messages, err := s.reader.ListThread(ctx, threadId, stream)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, &dto.MessageResponse{
			Id:        m.Id,
			Role:      string(agentRole(m.SenderRole)),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

func (s *agentService) DownloadAttachment(ctx context.Context, id int64) (*dto.AttachmentDownload, error) {
	att, err := s.reader.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Attachment not found")
	}
	return &dto.AttachmentDownload{
		Filename: att.Filename,
		MimeType: att.MimeType,
		Content:  att.Content,
	}, nil
}

func (s *agentService) Streams(ctx context.Context) []*dto.StreamResponse {
	profiles := s.profiles.Profiles()
	res := make([]*dto.StreamResponse, 0, len(profiles))
	for _, p := range profiles {
		res = append(res, &dto.StreamResponse{Stream: p.Stream, Title: p.Title})
	}
	return res
}
