package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"fusion-agent-be/internal/constant"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	store := NewConversationStore(fakeFactory{db: db}, logger.NewNop())

	_, err := store.AppendMessage(ctx, "t1", agent.RoleUser, "Show open POs", "SCM")
	require.NoError(t, err)
	aiID, err := store.AppendMessage(ctx, "t1", agent.RoleAssistant, "Here you go", "scm")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, "t2", agent.RoleUser, "other thread", "scm")
	require.NoError(t, err)

	assert.Equal(t, constant.SenderRoleAI, db.messages[1].SenderRole)
	assert.Equal(t, "scm", db.messages[0].DomainStream)

	history, err := store.LoadRecent(ctx, "t1", "scm", agent.HistoryLimit)
	require.NoError(t, err)
	assert.Equal(t, []agent.Message{
		{Role: agent.RoleUser, Content: "Show open POs"},
		{Role: agent.RoleAssistant, Content: "Here you go"},
	}, history)

	require.NoError(t, store.UpdateMessageContent(ctx, aiID, "Here you go [link]"))
	thread, err := store.ListThread(ctx, "t1", "scm")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "Here you go [link]", thread[1].Content)
}

func TestConversationStoreLoadRecentKeepsNewest(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	store := NewConversationStore(fakeFactory{db: db}, logger.NewNop())

	for i := 0; i < 25; i++ {
		_, err := store.AppendMessage(ctx, "t1", agent.RoleUser, fmt.Sprintf("m%d", i), "hcm")
		require.NoError(t, err)
	}

	history, err := store.LoadRecent(ctx, "t1", "hcm", 20)
	require.NoError(t, err)
	require.Len(t, history, 20)
	assert.Equal(t, "m5", history[0].Content)
	assert.Equal(t, "m24", history[19].Content)

	none, err := store.LoadRecent(ctx, "t1", "hcm", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConversationStoreAttachments(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	store := NewConversationStore(fakeFactory{db: db}, logger.NewNop())

	_, err := store.SaveAttachment(ctx, 99, "Data.xlsx", constant.AttachmentMimeTypeXLSX, []byte("x"))
	assert.Error(t, err, "attachment needs an existing message")

	msgID, err := store.AppendMessage(ctx, "t1", agent.RoleAssistant, "table", "scm")
	require.NoError(t, err)

	attID, err := store.SaveAttachment(ctx, msgID, "Data.xlsx", constant.AttachmentMimeTypeXLSX, []byte("PK"))
	require.NoError(t, err)

	att, err := store.GetAttachment(ctx, attID)
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, msgID, att.MessageId)
	assert.Equal(t, []byte("PK"), att.Content)

	missing, err := store.GetAttachment(ctx, attID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConversationStorePropagatesErrors(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	db.failCreate = errors.New("db down")
	db.failFind = errors.New("db down")
	store := NewConversationStore(fakeFactory{db: db}, logger.NewNop())

	_, err := store.AppendMessage(ctx, "t1", agent.RoleUser, "q", "scm")
	assert.ErrorContains(t, err, "db down")

	_, err = store.LoadRecent(ctx, "t1", "scm", 5)
	assert.ErrorContains(t, err, "db down")

	assert.Error(t, store.UpdateMessageContent(ctx, 1, "x"))
}
