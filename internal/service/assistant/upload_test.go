package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainpilot/assistant-backend/internal/types"
)

func TestParseNFTDetails(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		desc    string
		matched bool
	}{
		{"called Sunset Boulevard description A photo from my trip", "Sunset Boulevard", "A photo from my trip", true},
		{"Call it Dawn", "Dawn", "", true},
		{"called Glacier description nothing", "Glacier", "", true},
		{"name: Ocean Wave, description: taken off the coast", "Ocean Wave", "taken off the coast", true},
		{"name: Ocean Wave", "Ocean Wave", "", true},
		{"Midnight City", "Midnight City", "", true},
		{"confirm", "", "", false},
		{"just mint it", "", "", false},
		{"proceed please", "", "", false},
		{"skip", "", "", false},
		{"no description", "", "", false},
		{"no", "", "", false},
		{"well, it is a picture of my dog taken last summer at the lake house, quite nice", "", "", false},
	}

	for _, tt := range tests {
		got := parseNFTDetails(tt.in)
		assert.Equal(t, tt.matched, got.Matched, "input %q", tt.in)
		if tt.matched {
			assert.Equal(t, tt.name, got.Name, "input %q", tt.in)
			assert.Equal(t, tt.desc, got.Description, "input %q", tt.in)
		} else {
			assert.NotEmpty(t, got.Reprompt, "input %q", tt.in)
		}
	}
}

func TestSynthesizeMintActionDefaultsDescription(t *testing.T) {
	a := synthesizeMintAction("Dawn", "", "https://gateway.pinata.cloud/ipfs/Qm123")

	assert.Equal(t, types.ActionMintNFT, a.Kind)
	assert.Equal(t, "Dawn", a.DetailString("name"))
	assert.Equal(t, defaultNFTDescription, a.DetailString("description"))
	assert.True(t, a.IsComplete)
}

func TestHandleUploadCompleteWithStashedDetails(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Stash details as if the user said "upload an NFT called Dawn".
	state := &SessionState{UploadDetails: &types.UploadPendingDetails{Name: "Dawn"}}
	require.NoError(t, env.svc.sessions.Save(ctx, env.conv.ID, state))

	resp, err := env.svc.HandleUploadComplete(ctx, env.conv.ID, env.conv.Address, types.UploadedImage{
		URL:      "https://gateway.pinata.cloud/ipfs/Qm123",
		FileName: "dawn.png",
	})
	require.NoError(t, err)

	assert.True(t, resp.RequiresConfirmation, "stashed details go straight to confirmation")
	assert.Contains(t, resp.Message.Content, "Dawn")

	loaded, err := env.svc.sessions.Load(ctx, env.conv.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.UploadDetails, "stash consumed")
	require.NotNil(t, loaded.Pending)
	assert.Equal(t, types.ActionMintNFT, loaded.Pending.Action.Kind)
}

func TestHandleUploadCompleteWithoutDetailsAsks(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, err := env.svc.HandleUploadComplete(ctx, env.conv.ID, env.conv.Address, types.UploadedImage{
		URL:      "https://gateway.pinata.cloud/ipfs/Qm456",
		FileName: "photo.jpg",
	})
	require.NoError(t, err)

	assert.False(t, resp.RequiresConfirmation)
	assert.Contains(t, resp.Message.Content, "called")

	loaded, err := env.svc.sessions.Load(ctx, env.conv.ID)
	require.NoError(t, err)
	assert.True(t, loaded.AwaitingDetails)
	require.NotNil(t, loaded.PendingImage)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/Qm456", loaded.PendingImage.URL)
}

func TestDetailsReplyLeadsToConfirmation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.HandleUploadComplete(ctx, env.conv.ID, env.conv.Address, types.UploadedImage{
		URL: "https://gateway.pinata.cloud/ipfs/Qm789", FileName: "art.png",
	})
	require.NoError(t, err)

	resp, err := env.svc.ProcessMessage(ctx, env.conv.ID, &SendMessageRequest{
		Address: env.conv.Address,
		Content: "Call it Dawn",
	})
	require.NoError(t, err)

	assert.True(t, resp.RequiresConfirmation)
	assert.Contains(t, resp.Message.Content, "Dawn")
	assert.Contains(t, resp.Message.Content, defaultNFTDescription)

	loaded, err := env.svc.sessions.Load(ctx, env.conv.ID)
	require.NoError(t, err)
	assert.False(t, loaded.AwaitingDetails)
	assert.Nil(t, loaded.PendingImage)
	require.NotNil(t, loaded.Pending)
}

func TestDetailsReplyRepromptsOnConfirm(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.HandleUploadComplete(ctx, env.conv.ID, env.conv.Address, types.UploadedImage{
		URL: "https://gateway.pinata.cloud/ipfs/QmAAA", FileName: "art.png",
	})
	require.NoError(t, err)

	resp, err := env.svc.ProcessMessage(ctx, env.conv.ID, &SendMessageRequest{
		Address: env.conv.Address,
		Content: "confirm",
	})
	require.NoError(t, err)

	assert.Equal(t, askNameReply, resp.Message.Content)

	loaded, err := env.svc.sessions.Load(ctx, env.conv.ID)
	require.NoError(t, err)
	assert.True(t, loaded.AwaitingDetails, "sub-state survives a nameless proceed attempt")
	assert.Zero(t, env.submitter.submits)
}

func TestHandleUploadFailedLeavesStateUntouched(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, err := env.svc.HandleUploadFailed(ctx, env.conv.ID, env.conv.Address, "The upload didn't go through: gateway timeout")
	require.NoError(t, err)

	assert.Contains(t, resp.Message.Content, "gateway timeout")

	loaded, err := env.svc.sessions.Load(ctx, env.conv.ID)
	require.NoError(t, err)
	assert.True(t, loaded.empty())
}
