package assistant

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainpilot/assistant-backend/internal/types"
)

func TestSessionRoundTrip(t *testing.T) {
	store := &sessionStore{kv: newFakeKV()}
	ctx := context.Background()
	convID := uuid.New()

	state := &SessionState{
		Pending: &types.PendingAction{
			Action:               types.Action{Kind: types.ActionCreateToken},
			MessageID:            uuid.New(),
			AwaitingConfirmation: true,
		},
	}
	require.NoError(t, store.Save(ctx, convID, state))

	loaded, err := store.Load(ctx, convID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Pending)
	assert.Equal(t, state.Pending.MessageID, loaded.Pending.MessageID)
	assert.True(t, loaded.Pending.AwaitingConfirmation)
}

func TestSessionLoadMissingReturnsZeroState(t *testing.T) {
	store := &sessionStore{kv: newFakeKV()}

	state, err := store.Load(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, state.empty())
}

func TestSessionSaveEmptyDeletesKey(t *testing.T) {
	store := &sessionStore{kv: newFakeKV()}
	ctx := context.Background()
	convID := uuid.New()

	require.NoError(t, store.Save(ctx, convID, &SessionState{
		AwaitingDetails: true,
		PendingImage:    &types.UploadedImage{URL: "u"},
	}))
	require.NoError(t, store.Save(ctx, convID, &SessionState{}))

	state, err := store.Load(ctx, convID)
	require.NoError(t, err)
	assert.True(t, state.empty())
}

func TestProcessingLockExcludesSecondTurn(t *testing.T) {
	store := &sessionStore{kv: newFakeKV()}
	ctx := context.Background()
	convID := uuid.New()

	ok, err := store.AcquireLock(ctx, convID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireLock(ctx, convID)
	require.NoError(t, err)
	assert.False(t, ok)

	store.ReleaseLock(ctx, convID)

	ok, err = store.AcquireLock(ctx, convID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessMessageBusyConversation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Simulate an in-flight turn holding the lock.
	ok, err := env.svc.sessions.AcquireLock(ctx, env.conv.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = env.svc.ProcessMessage(ctx, env.conv.ID, &SendMessageRequest{
		Address: env.conv.Address,
		Content: "hello",
	})
	assert.ErrorIs(t, err, ErrConversationBusy)
}

func TestProcessMessagePlainReply(t *testing.T) {
	env := newTestEnv()
	env.oracle.reply = "Gas fees depend on network congestion."

	resp, err := env.svc.ProcessMessage(context.Background(), env.conv.ID, &SendMessageRequest{
		Address: env.conv.Address,
		Content: "what are gas fees?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Gas fees depend on network congestion.", resp.Message.Content)
	assert.False(t, resp.RequiresConfirmation)
	assert.Equal(t, types.RoleAssistant, resp.Message.Role)

	// Turn stored both sides of the exchange.
	all, err := env.msgs.GetByConversationID(context.Background(), env.conv.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, types.RoleUser, all[0].Role)

	// First exchange titles the conversation.
	require.NotNil(t, env.conv.Title)
	assert.Equal(t, "what are gas fees?", *env.conv.Title)
}

func TestProcessMessageTitleTruncatesOnRunes(t *testing.T) {
	env := newTestEnv()
	env.oracle.reply = "Sounds good."

	_, err := env.svc.ProcessMessage(context.Background(), env.conv.ID, &SendMessageRequest{
		Address: env.conv.Address,
		Content: strings.Repeat("ü", titleMaxLen+10),
	})
	require.NoError(t, err)

	require.NotNil(t, env.conv.Title)
	assert.True(t, utf8.ValidString(*env.conv.Title))
	assert.Equal(t, titleMaxLen, utf8.RuneCountInString(*env.conv.Title))
}

func TestProcessMessageBalanceInline(t *testing.T) {
	env := newTestEnv()
	env.oracle.reply = "```json\n{\"response\": \"Checking...\", \"action\": {\"action\": \"check_balance\", \"confidence\": 0.9}, \"requiresConfirmation\": false}\n```"
	env.submitter.balance = big.NewInt(1_000_000_000_000_000_000) // 1 ETH

	resp, err := env.svc.ProcessMessage(context.Background(), env.conv.ID, &SendMessageRequest{
		Address: env.conv.Address,
		Content: "what's my balance?",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Message.Content, "1.000000 ETH")
	assert.Contains(t, resp.Message.Content, "$3000.00")
}

func TestResetConversationReseedsWelcome(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.oracle.reply = "hello there"
	_, err := env.svc.ProcessMessage(ctx, env.conv.ID, &SendMessageRequest{
		Address: env.conv.Address, Content: "hi",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.sessions.Save(ctx, env.conv.ID, pendingTokenState()))

	welcome, err := env.svc.ResetConversation(ctx, env.conv.ID, env.conv.Address)
	require.NoError(t, err)
	assert.Equal(t, WelcomeMessage, welcome.Content)

	all, err := env.msgs.GetByConversationID(ctx, env.conv.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)

	state, err := env.svc.sessions.Load(ctx, env.conv.ID)
	require.NoError(t, err)
	assert.True(t, state.empty(), "reset clears the pending action")
}
