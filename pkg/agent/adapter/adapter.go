// Package adapter asks the model to rewrite a stored template against the
// conversation so far.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent"
	"fusion-agent-be/pkg/agent/domain"
	"fusion-agent-be/pkg/llm"
)

const logModule = "QUERY_ADAPTER"

// ErrUnknownAlias is returned in strict mode when the adapted query reads a
// table the template does not, rebinds a template alias, or qualifies a column
// with an alias nobody declared.
var ErrUnknownAlias = errors.New("adapted query references tables or aliases outside the template")

type Adapter struct {
	oracle llm.Completer
	strict bool
	logger logger.ILogger
}

var _ agent.QueryGenerator = (*Adapter)(nil)

func New(oracle llm.Completer, strict bool, log logger.ILogger) *Adapter {
	return &Adapter{oracle: oracle, strict: strict, logger: log}
}

func (a *Adapter) GenerateQuery(ctx context.Context, history, templateQuery string, profile *domain.Profile) (string, error) {
	prompt, err := profile.RenderAdapter(history, templateQuery)
	if err != nil {
		return "", fmt.Errorf("render adapter prompt: %w", err)
	}

	reply, err := a.oracle.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate query: %w", err)
	}
	query := strings.TrimSpace(reply)

	if unknown := UnknownIdentifiers(templateQuery, query, profile.Columns); len(unknown) > 0 {
		details := map[string]interface{}{"stream": profile.Stream, "identifiers": unknown}
		if a.strict {
			a.logger.Error(logModule, "Adapted query references tables or aliases outside the template", details)
			return "", fmt.Errorf("%w: %s", ErrUnknownAlias, strings.Join(unknown, ", "))
		}
		a.logger.Warn(logModule, "Adapted query references tables or aliases outside the template", details)
	}

	a.logger.Debug(logModule, "Query adapted", map[string]interface{}{"stream": profile.Stream, "query": query})
	return query, nil
}
