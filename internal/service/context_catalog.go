package service

import (
	"context"
	"fmt"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/internal/repository/memory"
	"fusion-agent-be/internal/repository/specification"
	"fusion-agent-be/internal/repository/unitofwork"
	"fusion-agent-be/pkg/agent"
)

const catalogModule = "CONTEXT_CATALOG"

// ContextCatalog reads query contexts from the database with a per-stream cache.
type ContextCatalog struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.ContextCache
	logger     logger.ILogger
}

func NewContextCatalog(uowFactory unitofwork.RepositoryFactory, cache *memory.ContextCache, log logger.ILogger) *ContextCatalog {
	return &ContextCatalog{
		uowFactory: uowFactory,
		cache:      cache,
		logger:     log,
	}
}

var _ agent.ContextCatalog = (*ContextCatalog)(nil)

func (c *ContextCatalog) load(ctx context.Context, stream string) ([]*entity.QueryContext, error) {
	if c.cache != nil {
		if list, ok := c.cache.Get(stream); ok {
			return list, nil
		}
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	list, err := uow.QueryContextRepository().FindAll(ctx,
		specification.ByDomainStream{Stream: stream},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, fmt.Errorf("list contexts for %s: %w", stream, err)
	}

	if c.cache != nil {
		c.cache.Save(stream, list)
	}
	c.logger.Debug(catalogModule, "Contexts loaded", map[string]interface{}{"stream": stream, "count": len(list)})
	return list, nil
}

func (c *ContextCatalog) ListContexts(ctx context.Context, stream string) ([]agent.ContextDescriptor, error) {
	list, err := c.load(ctx, stream)
	if err != nil {
		return nil, err
	}
	out := make([]agent.ContextDescriptor, 0, len(list))
	for _, qc := range list {
		out = append(out, agent.ContextDescriptor{ID: qc.Id, Description: qc.Description})
	}
	return out, nil
}

func (c *ContextCatalog) GetTemplateByID(ctx context.Context, id int64) (string, bool, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	qc, err := uow.QueryContextRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return "", false, fmt.Errorf("get context %d: %w", id, err)
	}
	if qc == nil {
		return "", false, nil
	}
	return qc.Query, true, nil
}

// Register adds a context unless its stream already holds one with the same
// description, and drops the cached listing of the stream.
func (c *ContextCatalog) Register(ctx context.Context, stream, description, query string) (*entity.QueryContext, bool, error) {
	stream = normalizeStream(stream)
	uow := c.uowFactory.NewUnitOfWork(ctx)
	repo := uow.QueryContextRepository()

	count, err := repo.Count(ctx,
		specification.ByDomainStream{Stream: stream},
		specification.Filter("description", description),
	)
	if err != nil {
		return nil, false, fmt.Errorf("check context %q: %w", description, err)
	}
	if count > 0 {
		return nil, false, nil
	}

	qc := &entity.QueryContext{
		DomainStream: stream,
		Description:  description,
		Query:        query,
	}
	if err := repo.Create(ctx, qc); err != nil {
		return nil, false, fmt.Errorf("register context: %w", err)
	}
	if c.cache != nil {
		c.cache.Invalidate(stream)
	}
	c.logger.Info(catalogModule, "Context registered", map[string]interface{}{"stream": stream, "id": qc.Id})
	return qc, true, nil
}
