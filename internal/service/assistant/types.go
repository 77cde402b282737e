package assistant

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/chainpilot/assistant-backend/internal/ai/anthropic"
	"github.com/chainpilot/assistant-backend/internal/chain"
	"github.com/chainpilot/assistant-backend/internal/pricing"
	"github.com/chainpilot/assistant-backend/internal/types"
)

// ErrConversationBusy is returned when a turn arrives while a previous
// turn for the same conversation is still being processed.
var ErrConversationBusy = errors.New("conversation is busy")

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	Address string `json:"address"`
	Content string `json:"content"`
	// SigningKey is the caller's decrypted signing key, supplied only on
	// the turn that confirms an action. Never persisted.
	SigningKey string `json:"signing_key,omitempty"`
}

// SendMessageResponse is the response for sending a message.
type SendMessageResponse struct {
	Message              types.Message `json:"message"`
	RequiresConfirmation bool          `json:"requires_confirmation,omitempty"`
	ShowUpload           bool          `json:"show_upload,omitempty"`
}

// oracleClient is the language-model oracle: text in, text out.
type oracleClient interface {
	Complete(ctx context.Context, system string, msgs []anthropic.Message) (string, error)
}

// Submitter covers every chain collaborator the assistant reaches:
// submission, balance reads, fee estimation, and explorer links.
type Submitter interface {
	CreateToken(ctx context.Context, p chain.TokenParams, signingKey string) (*chain.TxResult, error)
	MintNFT(ctx context.Context, tokenURI string, recipient string, signingKey string) (*chain.TxResult, error)
	SendTransaction(ctx context.Context, p chain.TransferParams, signingKey string) (*chain.TxResult, error)
	NativeBalance(ctx context.Context, addr string) (*big.Int, error)
	EstimateFee(ctx context.Context, kind types.ActionKind) (*big.Int, error)
	ExplorerTxURL(hash string) string
	ExplorerAddressURL(addr string) string
	NativeSymbol() string
}

// PriceSource resolves the native asset's fiat price.
type PriceSource interface {
	NativePrice(ctx context.Context) (*pricing.Quote, error)
}

// kvStore is the session-state backing store (Redis in production).
type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}
