// Package agent runs one conversational turn: classify, match a context,
// adapt its query, execute it and format the answer.
package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent/domain"
	"fusion-agent-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "AGENT"

type stage int

const (
	stageClassify stage = iota
	stageMatchContext
	stageProcessQuery
	stageExecuteQuery
	stageFormatResponse
	stageAnswerGeneral
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageClassify:
		return "classify"
	case stageMatchContext:
		return "match_context"
	case stageProcessQuery:
		return "process_query"
	case stageExecuteQuery:
		return "execute_query"
	case stageFormatResponse:
		return "format_response"
	case stageAnswerGeneral:
		return "answer_general"
	case stageDone:
		return "done"
	default:
		return "stage(" + strconv.Itoa(int(s)) + ")"
	}
}

type Dependencies struct {
	Oracle    llm.Completer
	Profiles  ProfileSource
	Resolver  ContextResolver
	Adapter   QueryGenerator
	Executor  ReportExecutor
	Formatter ResponseFormatter
	Store     ConversationStore
	// Locker is optional. Nil leaves concurrent turns on a thread unserialised.
	Locker ThreadLocker
	Logger logger.ILogger
	// BaseURL prefixes attachment download links.
	BaseURL string
}

type Pipeline struct {
	oracle    llm.Completer
	profiles  ProfileSource
	resolver  ContextResolver
	adapter   QueryGenerator
	executor  ReportExecutor
	formatter ResponseFormatter
	store     ConversationStore
	locker    ThreadLocker
	logger    logger.ILogger
	baseURL   string
	tracer    trace.Tracer
}

func NewPipeline(deps Dependencies) *Pipeline {
	return &Pipeline{
		oracle:    deps.Oracle,
		profiles:  deps.Profiles,
		resolver:  deps.Resolver,
		adapter:   deps.Adapter,
		executor:  deps.Executor,
		formatter: deps.Formatter,
		store:     deps.Store,
		locker:    deps.Locker,
		logger:    deps.Logger,
		baseURL:   strings.TrimRight(deps.BaseURL, "/"),
		tracer:    otel.Tracer("fusion-agent/agent"),
	}
}

// Run executes one turn. It never returns nil and never panics.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (result *RunResult) {
	format := in.FormatPreference
	if format == "" {
		format = FormatNaturalLanguage
	}
	threadID := in.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
		p.logger.Debug(logModule, "Generated new thread id", map[string]interface{}{"thread_id": threadID})
	}
	stream := strings.ToLower(strings.TrimSpace(in.DomainStream))

	base := RunResult{
		ThreadID:         threadID,
		FormatPreference: format,
		DomainStream:     stream,
	}

	if stream == "" {
		p.logger.Error(logModule, "Agent stream not provided", map[string]interface{}{"thread_id": threadID})
		return failedResult(base, ErrorKindInput, msgStreamRequired, nil)
	}
	profile, ok := p.profiles.Lookup(stream)
	if !ok {
		p.logger.Error(logModule, "Unknown agent stream", map[string]interface{}{"thread_id": threadID, "stream": stream})
		return failedResult(base, ErrorKindInput, fmt.Sprintf(msgUnknownStream, stream), nil)
	}

	ctx, span := p.tracer.Start(ctx, "agent.Run", trace.WithAttributes(
		attribute.String("agent.thread_id", threadID),
		attribute.String("agent.stream", stream),
		attribute.String("agent.format", string(format)),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(logModule, "Unhandled error in agent run", map[string]interface{}{
				"thread_id": threadID,
				"panic":     fmt.Sprint(r),
			})
			span.SetStatus(codes.Error, "panic")
			result = failedResult(base, ErrorKindInternal, fmt.Sprintf(msgUnexpected, r), fmt.Errorf("panic: %v", r))
		}
	}()

	if p.locker != nil {
		unlock, err := p.locker.Lock(ctx, threadID)
		if err != nil {
			p.logger.Error(logModule, "Failed to acquire thread lock", map[string]interface{}{"thread_id": threadID, "error": err.Error()})
			span.SetStatus(codes.Error, "lock")
			return failedResult(base, ErrorKindInternal, fmt.Sprintf(msgUnexpected, err), err)
		}
		defer unlock()
	}

	history, err := p.store.LoadRecent(ctx, threadID, stream, HistoryLimit)
	if err != nil {
		p.logger.Error(logModule, "Failed to load history, continuing without it", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
		history = nil
	}

	state := &TurnState{
		Messages:         append(history, Message{Role: RoleUser, Content: in.Question}),
		FormatPreference: format,
		DomainStream:     stream,
	}

	p.logger.Info(logModule, "Starting turn", map[string]interface{}{
		"thread_id": threadID,
		"stream":    stream,
		"history":   len(history),
	})

	for st := stageClassify; st != stageDone; {
		st = p.step(ctx, st, state, profile)
	}

	result = &base
	result.Response = lastAssistantContent(state)
	result.Query = state.Query
	result.Error = state.Err
	result.QuestionType = state.QuestionType
	result.RowCount = state.RowCount

	if state.Err != nil {
		span.SetStatus(codes.Error, string(state.Err.Kind))
		p.logger.Warn(logModule, "Turn ended in error, skipping persistence", map[string]interface{}{
			"thread_id": threadID,
			"kind":      string(state.Err.Kind),
			"error":     state.Err.Message,
		})
		return result
	}

	p.persist(ctx, threadID, in.Question, state, result)
	return result
}

func (p *Pipeline) step(ctx context.Context, st stage, state *TurnState, profile *domain.Profile) stage {
	ctx, span := p.tracer.Start(ctx, "agent."+st.String())
	defer span.End()

	next := p.transition(ctx, st, state, profile)
	if state.Err != nil {
		span.SetStatus(codes.Error, string(state.Err.Kind))
	}
	return next
}

func (p *Pipeline) transition(ctx context.Context, st stage, state *TurnState, profile *domain.Profile) stage {
	switch st {
	case stageClassify:
		p.classify(ctx, state, profile)
		if state.Err != nil {
			return stageFormatResponse
		}
		switch state.QuestionType {
		case QuestionTypeGeneral:
			return stageAnswerGeneral
		case QuestionTypeNonGeneral, QuestionTypeUnknown:
			return stageMatchContext
		}
		return stageMatchContext
	case stageMatchContext:
		p.matchContext(ctx, state)
		if state.Err != nil {
			return stageFormatResponse
		}
		return stageProcessQuery
	case stageProcessQuery:
		p.processQuery(ctx, state, profile)
		if state.Err != nil {
			return stageFormatResponse
		}
		return stageExecuteQuery
	case stageExecuteQuery:
		p.executeQuery(ctx, state)
		return stageFormatResponse
	case stageFormatResponse:
		p.formatResponse(ctx, state)
		return stageDone
	case stageAnswerGeneral:
		p.answerGeneral(state, profile)
		return stageDone
	case stageDone:
		return stageDone
	}
	panic(fmt.Sprintf("agent: no transition from %s", st))
}

func (p *Pipeline) classify(ctx context.Context, state *TurnState, profile *domain.Profile) {
	question := state.LatestUtterance()
	state.QuestionType = QuestionTypeNonGeneral

	prompt, err := profile.RenderClassification(question)
	if err != nil {
		state.Err = newStageError(ErrorKindClassification, err, "Error classifying question: %v", err)
		return
	}

	reply, err := p.oracle.Generate(ctx, prompt)
	if err != nil {
		p.logger.Error(logModule, "Error classifying question", map[string]interface{}{"error": err.Error()})
		state.Err = newStageError(ErrorKindClassification, err, "Error classifying question: %v", err)
		return
	}

	switch qt := normalizeLabel(reply); qt {
	case QuestionTypeGeneral, QuestionTypeNonGeneral:
		state.QuestionType = qt
	default:
		p.logger.Warn(logModule, "Invalid question type, defaulting to non-general", map[string]interface{}{"reply": reply})
	}
	p.logger.Info(logModule, "Question classified", map[string]interface{}{"question_type": string(state.QuestionType)})
}

func normalizeLabel(reply string) QuestionType {
	s := strings.ToLower(strings.TrimSpace(reply))
	s = strings.Trim(s, "\"'`.")
	return QuestionType(strings.TrimSpace(s))
}

func (p *Pipeline) matchContext(ctx context.Context, state *TurnState) {
	res, err := p.resolver.Resolve(ctx, state.LatestUtterance(), state.DomainStream)
	if err != nil {
		p.logger.Warn(logModule, "Context resolution failed", map[string]interface{}{
			"stream": state.DomainStream,
			"error":  err.Error(),
		})
		state.Err = &StageError{Kind: ErrorKindContextResolution, Message: resolutionMessage(err), Cause: err}
		return
	}
	p.logger.Info(logModule, "Context matched", map[string]interface{}{"context_id": res.ContextID})
	tpl := res.Template
	state.SelectedQuery = &tpl
}

func (p *Pipeline) processQuery(ctx context.Context, state *TurnState, profile *domain.Profile) {
	if state.SelectedQuery == nil {
		state.Err = &StageError{Kind: ErrorKindAdaptation, Message: msgNoSelectedQuery}
		return
	}
	query, err := p.adapter.GenerateQuery(ctx, state.HistoryText(), *state.SelectedQuery, profile)
	if err != nil {
		p.logger.Error(logModule, "Error processing query", map[string]interface{}{"error": err.Error()})
		state.Err = newStageError(ErrorKindAdaptation, err, "Error processing query: %v", err)
		return
	}
	state.Query = &query
}

func (p *Pipeline) executeQuery(ctx context.Context, state *TurnState) {
	if state.Err != nil || state.Query == nil || *state.Query == "" {
		p.logger.Warn(logModule, "Skipping query execution due to error or missing query", nil)
		return
	}
	csvData, err := p.executor.Execute(ctx, *state.Query)
	if err != nil {
		p.logger.Error(logModule, "Error executing query", map[string]interface{}{"error": err.Error()})
		state.Err = newStageError(ErrorKindExecution, err, "Error executing query: %v", err)
		return
	}
	state.CSVData = csvData
}

func (p *Pipeline) formatResponse(ctx context.Context, state *TurnState) {
	out, err := p.formatter.Format(ctx, FormatInput{
		Question:         state.LatestUtterance(),
		FormatPreference: state.FormatPreference,
		Err:              state.Err,
		CSVData:          state.CSVData,
	})
	if err != nil {
		p.logger.Error(logModule, "Error formatting response", map[string]interface{}{"error": err.Error()})
		state.Err = newStageError(ErrorKindFormatting, err, "Error formatting response: %v", err)
		state.Messages = append(state.Messages, Message{Role: RoleAssistant, Content: bullet(state.FormatPreference, state.Err.Message)})
		return
	}

	state.Messages = append(state.Messages, Message{Role: RoleAssistant, Content: out.Content})
	state.Attachment = out.Attachment
	state.CSVData = out.CSVData
	state.RowCount = out.RowCount
}

func (p *Pipeline) answerGeneral(state *TurnState, profile *domain.Profile) {
	state.Messages = append(state.Messages, Message{Role: RoleAssistant, Content: profile.GeneralResponse})
}

// persist stores the user and assistant turns and links any attachment.
// Failures are logged; the returned response is downgraded instead.
func (p *Pipeline) persist(ctx context.Context, threadID, question string, state *TurnState, result *RunResult) {
	// Part of the turn may already be stored; keep the answer.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(logModule, "Panic while persisting turn", map[string]interface{}{
				"thread_id": threadID,
				"panic":     fmt.Sprint(r),
			})
			result.Response = strings.Replace(result.Response, DownloadPlaceholder, DownloadUnavailable, 1)
		}
	}()

	if _, err := p.store.AppendMessage(ctx, threadID, RoleUser, question, state.DomainStream); err != nil {
		p.logger.Error(logModule, "Failed to save user message", map[string]interface{}{"thread_id": threadID, "error": err.Error()})
	}

	content := result.Response
	messageID, err := p.store.AppendMessage(ctx, threadID, RoleAssistant, content, state.DomainStream)
	if err != nil {
		p.logger.Error(logModule, "Failed to save assistant message", map[string]interface{}{"thread_id": threadID, "error": err.Error()})
		if state.Attachment != nil {
			result.Response = strings.Replace(content, DownloadPlaceholder, DownloadUnavailable, 1)
		}
		return
	}

	if state.Attachment == nil {
		return
	}

	final := strings.Replace(content, DownloadPlaceholder, DownloadUnavailable, 1)
	attachmentID, err := p.saveAttachment(ctx, messageID, state.Attachment)
	if err != nil {
		p.logger.Error(logModule, "Failed to save attachment, download link will not be available", map[string]interface{}{
			"message_id": messageID,
			"error":      err.Error(),
		})
	} else {
		link := fmt.Sprintf("[%s](%s)", linkText(state.FormatPreference, state.RowCount), p.downloadURL(attachmentID))
		final = strings.Replace(content, DownloadPlaceholder, link, 1)
		result.AttachmentID = &attachmentID
		p.logger.Info(logModule, "Replaced placeholder with download link", map[string]interface{}{
			"message_id":    messageID,
			"attachment_id": attachmentID,
		})
	}

	result.Response = final
	if err := p.store.UpdateMessageContent(ctx, messageID, final); err != nil {
		p.logger.Error(logModule, "Failed to update assistant message", map[string]interface{}{"message_id": messageID, "error": err.Error()})
	}
}

func (p *Pipeline) saveAttachment(ctx context.Context, messageID int64, att *Attachment) (int64, error) {
	data, err := base64.StdEncoding.DecodeString(att.Base64Data)
	if err != nil {
		return 0, fmt.Errorf("decode attachment: %w", err)
	}
	return p.store.SaveAttachment(ctx, messageID, att.Filename, SpreadsheetMimeType, data)
}

func (p *Pipeline) downloadURL(attachmentID int64) string {
	return p.baseURL + AttachmentDownloadPath + strconv.FormatInt(attachmentID, 10)
}

func linkText(format FormatPreference, rows int) string {
	switch format {
	case FormatTable:
		return fmt.Sprintf("Download the full Excel file (%d records)", rows)
	case FormatNaturalLanguage:
		return fmt.Sprintf("Download the full dataset (%d records)", rows)
	}
	return fmt.Sprintf("Download the full dataset (%d records)", rows)
}

// bullet prefixes natural-language messages with a Markdown list marker.
func bullet(format FormatPreference, msg string) string {
	if format == FormatNaturalLanguage {
		return "* " + msg
	}
	return msg
}

func lastAssistantContent(state *TurnState) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == RoleAssistant {
			return state.Messages[i].Content
		}
	}
	return "No response generated."
}

func failedResult(base RunResult, kind ErrorKind, msg string, cause error) *RunResult {
	r := base
	r.Response = msg
	r.Error = &StageError{Kind: kind, Message: msg, Cause: cause}
	r.QuestionType = QuestionTypeUnknown
	return &r
}
