package matcher

import (
	"context"
	"errors"
	"testing"

	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent"
	"fusion-agent-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	contexts  map[string][]agent.ContextDescriptor
	templates map[int64]string
	listErr   error
	getErr    error
}

func (f *fakeCatalog) ListContexts(_ context.Context, stream string) ([]agent.ContextDescriptor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.contexts[stream], nil
}

func (f *fakeCatalog) GetTemplateByID(_ context.Context, id int64) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	tpl, ok := f.templates[id]
	return tpl, ok, nil
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		contexts: map[string][]agent.ContextDescriptor{
			"scm": {
				{ID: 3, Description: "On-hand inventory by item and warehouse"},
				{ID: 7, Description: "Open purchase orders by supplier"},
			},
		},
		templates: map[int64]string{
			3: "SELECT esi.item_number FROM egp_system_items_b esi",
		},
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		reply  string
		wantID int64
		wantOK bool
	}{
		{"3", 3, true},
		{"  7\n", 7, true},
		{"Database ID: 12", 12, true},
		{"The best match is 3, then 7", 3, true},
		{"none", 0, false},
		{"NONE", 0, false},
		{"no match", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			id, ok := ParseReply(tt.reply)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestBuildPromptEnumeratesContexts(t *testing.T) {
	prompt := BuildPrompt("laptops?", newCatalog().contexts["scm"])
	assert.Contains(t, prompt, "User Question: laptops?")
	assert.Contains(t, prompt, "Item 1: (Database ID: 3) On-hand inventory by item and warehouse\nItem 2: (Database ID: 7) Open purchase orders by supplier")
}

func TestMatchContext(t *testing.T) {
	tests := []struct {
		name   string
		oracle *llmtest.Fake
		stream string
		wantID int64
		wantOK bool
	}{
		{"valid id", llmtest.New().On("Available Contexts", "3"), "scm", 3, true},
		{"id outside candidate set", llmtest.New().On("Available Contexts", "99"), "scm", 0, false},
		{"none sentinel", llmtest.New().On("Available Contexts", "none"), "scm", 0, false},
		{"no digits", llmtest.New().On("Available Contexts", "inventory"), "scm", 0, false},
		{"oracle failure", llmtest.New().Fail("Available Contexts", errors.New("boom")), "scm", 0, false},
		{"empty stream catalog", llmtest.New().On("Available Contexts", "3"), "hcm", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(newCatalog(), tt.oracle, logger.NewNop())
			id, ok := m.MatchContext(context.Background(), "How many laptops?", tt.stream)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestMatchContextSkipsOracleWithoutContexts(t *testing.T) {
	oracle := llmtest.New().On("", "3")
	m := New(newCatalog(), oracle, logger.NewNop())

	_, ok := m.MatchContext(context.Background(), "q", "hcm")
	assert.False(t, ok)
	assert.Empty(t, oracle.Prompts())
}

func TestGetContextsSwallowsCatalogFailure(t *testing.T) {
	cat := newCatalog()
	cat.listErr = errors.New("connection refused")
	m := New(cat, llmtest.New(), logger.NewNop())

	assert.Empty(t, m.GetContexts(context.Background(), "scm"))
}

func TestGetQueryByID(t *testing.T) {
	m := New(newCatalog(), llmtest.New(), logger.NewNop())

	tpl, ok := m.GetQueryByID(context.Background(), 3)
	require.True(t, ok)
	assert.Contains(t, tpl, "egp_system_items_b")

	_, ok = m.GetQueryByID(context.Background(), 7)
	assert.False(t, ok)

	cat := newCatalog()
	cat.getErr = errors.New("timeout")
	_, ok = New(cat, llmtest.New(), logger.NewNop()).GetQueryByID(context.Background(), 3)
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	broken := newCatalog()
	broken.listErr = errors.New("unreachable")

	tests := []struct {
		name    string
		catalog *fakeCatalog
		reply   string
		wantErr error
		wantID  int64
	}{
		{"match", newCatalog(), "3", nil, 3},
		{"unreachable catalog", broken, "3", agent.ErrNoContexts, 0},
		{"hallucinated id", newCatalog(), "42", agent.ErrNoMatch, 0},
		{"template missing", newCatalog(), "7", agent.ErrTemplateNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.catalog, llmtest.New().On("Available Contexts", tt.reply), logger.NewNop())
			res, err := m.Resolve(context.Background(), "How many laptops?", "scm")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.ContextID)
			assert.NotEmpty(t, res.Template)
		})
	}
}
