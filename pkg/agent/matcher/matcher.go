// Package matcher resolves an utterance to one stored query template by asking
// the model to pick among the stream's enumerated contexts.
package matcher

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent"
	"fusion-agent-be/pkg/llm"
)

const (
	logModule    = "CONTEXT_MATCHER"
	noneSentinel = "none"
)

var idPattern = regexp.MustCompile(`\d+`)

type Matcher struct {
	catalog agent.ContextCatalog
	oracle  llm.Completer
	logger  logger.ILogger
}

var _ agent.ContextResolver = (*Matcher)(nil)

func New(catalog agent.ContextCatalog, oracle llm.Completer, log logger.ILogger) *Matcher {
	return &Matcher{catalog: catalog, oracle: oracle, logger: log}
}

// GetContexts returns the stream's contexts, or none when the catalog fails.
func (m *Matcher) GetContexts(ctx context.Context, stream string) []agent.ContextDescriptor {
	contexts, err := m.catalog.ListContexts(ctx, stream)
	if err != nil {
		m.logger.Error(logModule, "Error fetching contexts", map[string]interface{}{
			"stream": stream,
			"error":  err.Error(),
		})
		return nil
	}
	m.logger.Debug(logModule, "Fetched contexts", map[string]interface{}{"stream": stream, "count": len(contexts)})
	return contexts
}

// MatchContext asks the model for the best context id and validates it against
// the fetched set.
func (m *Matcher) MatchContext(ctx context.Context, question, stream string) (int64, bool) {
	contexts := m.GetContexts(ctx, stream)
	if len(contexts) == 0 {
		m.logger.Warn(logModule, "No contexts found", map[string]interface{}{"stream": stream})
		return 0, false
	}
	return m.pick(ctx, question, contexts)
}

func (m *Matcher) pick(ctx context.Context, question string, contexts []agent.ContextDescriptor) (int64, bool) {
	reply, err := m.oracle.Generate(ctx, BuildPrompt(question, contexts))
	if err != nil {
		m.logger.Error(logModule, "Error matching context", map[string]interface{}{"error": err.Error()})
		return 0, false
	}

	id, ok := ParseReply(reply)
	if !ok {
		m.logger.Info(logModule, "No context selected", map[string]interface{}{"reply": reply})
		return 0, false
	}

	for _, c := range contexts {
		if c.ID == id {
			m.logger.Info(logModule, "Selected context", map[string]interface{}{"context_id": id})
			return id, true
		}
	}

	m.logger.Warn(logModule, "Model returned an id outside the candidate set", map[string]interface{}{
		"context_id": id,
		"candidates": ids(contexts),
	})
	return 0, false
}

// GetQueryByID returns the template, absent on not-found or catalog failure.
func (m *Matcher) GetQueryByID(ctx context.Context, id int64) (string, bool) {
	tpl, ok, err := m.catalog.GetTemplateByID(ctx, id)
	if err != nil {
		m.logger.Error(logModule, "Error fetching query", map[string]interface{}{"context_id": id, "error": err.Error()})
		return "", false
	}
	if !ok {
		m.logger.Warn(logModule, "No query found for context", map[string]interface{}{"context_id": id})
		return "", false
	}
	return tpl, true
}

// Resolve runs the full lookup and reports why it failed.
func (m *Matcher) Resolve(ctx context.Context, question, stream string) (*agent.Resolution, error) {
	contexts := m.GetContexts(ctx, stream)
	if len(contexts) == 0 {
		return nil, fmt.Errorf("stream %q: %w", stream, agent.ErrNoContexts)
	}

	id, ok := m.pick(ctx, question, contexts)
	if !ok {
		return nil, agent.ErrNoMatch
	}

	tpl, ok := m.GetQueryByID(ctx, id)
	if !ok {
		return nil, fmt.Errorf("context %d: %w", id, agent.ErrTemplateNotFound)
	}
	return &agent.Resolution{ContextID: id, Template: tpl}, nil
}

// BuildPrompt lists each candidate as "Item i: (Database ID: id) description".
func BuildPrompt(question string, contexts []agent.ContextDescriptor) string {
	var list strings.Builder
	for i, c := range contexts {
		if i > 0 {
			list.WriteString("\n")
		}
		fmt.Fprintf(&list, "Item %d: (Database ID: %d) %s", i+1, c.ID, c.Description)
	}

	return fmt.Sprintf(`You are an expert at matching user questions to predefined query contexts. Given the user's question and a list of contexts, select the context that best matches the question based on keywords and intent.

User Question: %s

Available Contexts:
%s

Instructions:
- Each context is listed with an "Item" number and its unique "Database ID".
- Compare the question's keywords and intent to the contexts provided.
- Return only the 'Database ID' of the best-matching context.
- For example, if the best matching context is 'Item 1: (Database ID: 3) ...', you MUST return "3".
- If no context matches the question, return the word "none".
- Your response must be just the single 'Database ID' number or the word "none", with no other text or prefixes.
`, question, list.String())
}

// ParseReply extracts the first integer in reply. "none" and replies without
// digits yield false.
func ParseReply(reply string) (int64, bool) {
	text := strings.TrimSpace(reply)
	if strings.EqualFold(text, noneSentinel) {
		return 0, false
	}
	token := idPattern.FindString(text)
	if token == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func ids(contexts []agent.ContextDescriptor) []int64 {
	out := make([]int64, len(contexts))
	for i, c := range contexts {
		out[i] = c.ID
	}
	return out
}
