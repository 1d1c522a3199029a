package main

import (
	"context"
	"strings"
	"testing"

	"fusion-agent-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCatalog struct {
	rows []*entity.QueryContext
}

func (c *memCatalog) Register(ctx context.Context, stream, description, query string) (*entity.QueryContext, bool, error) {
	stream = strings.ToLower(strings.TrimSpace(stream))
	for _, row := range c.rows {
		if row.DomainStream == stream && row.Description == description {
			return nil, false, nil
		}
	}
	qc := &entity.QueryContext{Id: int64(len(c.rows) + 1), DomainStream: stream, Description: description, Query: query}
	c.rows = append(c.rows, qc)
	return qc, true, nil
}

func TestSeedContextsIsIdempotent(t *testing.T) {
	catalog := &memCatalog{}

	created, err := seedContexts(context.Background(), catalog, defaultContexts)
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	created, err = seedContexts(context.Background(), catalog, defaultContexts)
	require.NoError(t, err)
	assert.Zero(t, created)

	for _, row := range catalog.rows {
		assert.Contains(t, []string{"scm", "hcm"}, row.DomainStream)
		assert.Equal(t, strings.TrimSpace(row.Query), row.Query)
	}
}

func TestSeedContextsRejectsIncompleteEntries(t *testing.T) {
	catalog := &memCatalog{}
	_, err := seedContexts(context.Background(), catalog, []byte("contexts:\n  - stream: scm\n    description: ok\n    query: SELECT 1 FROM dual\n  - stream: scm\n    description: x\n"))
	assert.Error(t, err)
	assert.Empty(t, catalog.rows)
}
