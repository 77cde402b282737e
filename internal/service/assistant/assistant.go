package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chainpilot/assistant-backend/internal/chain"
	"github.com/chainpilot/assistant-backend/internal/storage/ipfs"
	"github.com/chainpilot/assistant-backend/internal/types"
)

// WelcomeMessage seeds every new or reset conversation.
const WelcomeMessage = "Hi! I'm ChainPilot, your on-chain assistant. I can create tokens, mint NFTs, send transactions, and check your balance. What would you like to do?"

const titleMaxLen = 50

// conversationRepo is the conversation persistence surface the assistant
// needs.
type conversationRepo interface {
	GetByID(ctx context.Context, id uuid.UUID, address string) (*types.Conversation, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Touch(ctx context.Context, id uuid.UUID) error
}

// messageRepo is the message persistence surface the assistant needs.
type messageRepo interface {
	Create(ctx context.Context, msg *types.Message) error
	Insert(ctx context.Context, msg *types.Message) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata []byte) error
	GetByConversationID(ctx context.Context, convID uuid.UUID) ([]types.Message, error)
	GetRecent(ctx context.Context, convID uuid.UUID, limit int) ([]types.Message, error)
	DeleteByConversationID(ctx context.Context, convID uuid.UUID) error
}

// assetStore stores NFT image assets (IPFS in production).
type assetStore interface {
	Validate(fileName string, size int64, contentType string) error
	Upload(ctx context.Context, file io.Reader, fileName string) (*ipfs.UploadResult, error)
}

// Service is the conversational assistant: it turns user messages into
// replies and, behind an explicit confirmation gate, on-chain actions.
type Service struct {
	oracle   oracleClient
	msgRepo  messageRepo
	convRepo conversationRepo
	sessions *sessionStore
	chain    Submitter
	prices   PriceSource
	assets   assetStore
	logger   *logrus.Logger
}

// NewService creates the assistant service.
func NewService(
	oracle oracleClient,
	msgRepo messageRepo,
	convRepo conversationRepo,
	kv kvStore,
	chainClient Submitter,
	prices PriceSource,
	assets assetStore,
	logger *logrus.Logger,
) *Service {
	return &Service{
		oracle:   oracle,
		msgRepo:  msgRepo,
		convRepo: convRepo,
		sessions: &sessionStore{kv: kv},
		chain:    chainClient,
		prices:   prices,
		assets:   assets,
		logger:   logger,
	}
}

// ProcessMessage handles one user turn end to end: ownership check,
// processing lock, state load, routing, and transcript updates. A second
// turn arriving while one is in flight gets ErrConversationBusy.
func (s *Service) ProcessMessage(ctx context.Context, convID uuid.UUID, req *SendMessageRequest) (*SendMessageResponse, error) {
	conv, err := s.convRepo.GetByID(ctx, convID, req.Address)
	if err != nil {
		return nil, err
	}

	locked, err := s.sessions.AcquireLock(ctx, convID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrConversationBusy
	}
	defer s.sessions.ReleaseLock(ctx, convID)

	state, err := s.sessions.Load(ctx, convID)
	if err != nil {
		return nil, err
	}

	// History is captured before the new message is stored so the oracle
	// sees it exactly once, as the current turn.
	history, err := s.msgRepo.GetRecent(ctx, convID, historyWindow)
	if err != nil {
		return nil, err
	}

	userMsg := &types.Message{
		ConversationID: convID,
		Role:           types.RoleUser,
		Content:        req.Content,
	}
	if err := s.msgRepo.Create(ctx, userMsg); err != nil {
		return nil, err
	}

	var res *SendMessageResponse
	switch {
	case state.Pending != nil && state.Pending.AwaitingConfirmation:
		res, err = s.handleConfirmationReply(ctx, conv, state, req)
	case state.AwaitingDetails:
		res, err = s.handleDetailsReply(ctx, conv, state, req)
	default:
		res, err = s.handleIntent(ctx, conv, state, history, req)
	}
	if err != nil {
		return nil, err
	}

	s.afterTurn(ctx, conv, req.Content)
	return res, nil
}

// handleIntent routes a regular (non-gated) turn through the oracle and
// acts on the extracted intent.
func (s *Service) handleIntent(ctx context.Context, conv *types.Conversation, state *SessionState, history []types.Message, req *SendMessageRequest) (*SendMessageResponse, error) {
	res := s.extractIntent(ctx, history, req.Content, req.Address)

	if res.Action == nil || res.Action.Kind == types.ActionUnknown {
		msg, err := s.appendAssistant(ctx, conv.ID, res.Reply, nil)
		if err != nil {
			return nil, err
		}
		return &SendMessageResponse{Message: *msg}, nil
	}

	switch res.Action.Kind {
	case types.ActionUploadNFT:
		return s.handleUploadIntent(ctx, conv, state, res)

	case types.ActionCheckBalance:
		return s.replyBalance(ctx, conv, req.Address)

	case types.ActionGetTransactions:
		content := fmt.Sprintf("You can review your full transaction history here:\n%s", s.chain.ExplorerAddressURL(req.Address))
		msg, err := s.appendAssistant(ctx, conv.ID, content, &types.MessageMeta{Action: res.Action})
		if err != nil {
			return nil, err
		}
		return &SendMessageResponse{Message: *msg}, nil
	}

	if res.Action.Kind == types.ActionCreateToken {
		ApplyTokenDefaults(res.Action)
	}
	ValidateAction(res.Action)

	if !res.Action.IsComplete || !res.RequiresConfirmation {
		msg, err := s.appendAssistant(ctx, conv.ID, res.Reply, &types.MessageMeta{Action: res.Action})
		if err != nil {
			return nil, err
		}
		return &SendMessageResponse{Message: *msg}, nil
	}

	return s.presentConfirmation(ctx, conv, state, res.Action, nil)
}

// replyBalance answers a balance question inline with a live chain read.
func (s *Service) replyBalance(ctx context.Context, conv *types.Conversation, address string) (*SendMessageResponse, error) {
	var content string
	balance, err := s.chain.NativeBalance(ctx, address)
	if err != nil {
		s.logger.WithError(err).Warn("balance read failed")
		content = "I couldn't reach the network to check your balance just now. Please try again in a moment."
	} else {
		content = fmt.Sprintf("Your balance is %.6f %s.", chain.FromWei(balance, 18), s.chain.NativeSymbol())
		if q, err := s.prices.NativePrice(ctx); err == nil {
			content = fmt.Sprintf("Your balance is %.6f %s (~$%.2f USD).",
				chain.FromWei(balance, 18), s.chain.NativeSymbol(), chain.FromWei(balance, 18)*q.Price)
		}
	}

	msg, err := s.appendAssistant(ctx, conv.ID, content, nil)
	if err != nil {
		return nil, err
	}
	return &SendMessageResponse{Message: *msg}, nil
}

// appendAssistant stores one assistant message with optional metadata.
func (s *Service) appendAssistant(ctx context.Context, convID uuid.UUID, content string, meta *types.MessageMeta) (*types.Message, error) {
	msg := &types.Message{
		ConversationID: convID,
		Role:           types.RoleAssistant,
		Content:        content,
	}
	if meta != nil {
		if err := msg.SetMeta(*meta); err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// afterTurn performs best-effort transcript bookkeeping: titling the
// conversation from its first user message and bumping its activity time.
func (s *Service) afterTurn(ctx context.Context, conv *types.Conversation, userContent string) {
	if conv.Title == nil {
		title := strings.TrimSpace(userContent)
		if r := []rune(title); len(r) > titleMaxLen {
			title = string(r[:titleMaxLen])
		}
		if title != "" {
			if err := s.convRepo.UpdateTitle(ctx, conv.ID, title); err != nil {
				s.logger.WithError(err).Warn("title update failed")
			}
		}
	}
	if err := s.convRepo.Touch(ctx, conv.ID); err != nil {
		s.logger.WithError(err).Warn("conversation touch failed")
	}
}

// SeedWelcome stores the assistant's opening message in a conversation.
func (s *Service) SeedWelcome(ctx context.Context, convID uuid.UUID) (*types.Message, error) {
	return s.appendAssistant(ctx, convID, WelcomeMessage, nil)
}

// ResetConversation clears the transcript and all session state, then
// reseeds the welcome message.
func (s *Service) ResetConversation(ctx context.Context, convID uuid.UUID, address string) (*types.Message, error) {
	if _, err := s.convRepo.GetByID(ctx, convID, address); err != nil {
		return nil, err
	}
	if err := s.msgRepo.DeleteByConversationID(ctx, convID); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, convID, &SessionState{}); err != nil {
		return nil, err
	}
	return s.SeedWelcome(ctx, convID)
}

// ExportTranscript snapshots the most recent messages of a conversation.
func (s *Service) ExportTranscript(ctx context.Context, convID uuid.UUID, address string) (*types.TranscriptSnapshot, error) {
	if _, err := s.convRepo.GetByID(ctx, convID, address); err != nil {
		return nil, err
	}
	msgs, err := s.msgRepo.GetByConversationID(ctx, convID)
	if err != nil {
		return nil, err
	}
	snap := types.NewTranscriptSnapshot(msgs)
	return &snap, nil
}

// ImportTranscript restores a snapshot into a conversation. Message IDs
// and timestamps are preserved; messages already present are skipped.
func (s *Service) ImportTranscript(ctx context.Context, convID uuid.UUID, address string, snap types.TranscriptSnapshot) error {
	if _, err := s.convRepo.GetByID(ctx, convID, address); err != nil {
		return err
	}
	msgs, err := snap.Restore()
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	for i := range msgs {
		msgs[i].ConversationID = convID
		if err := s.msgRepo.Insert(ctx, &msgs[i]); err != nil {
			return err
		}
	}
	if err := s.convRepo.Touch(ctx, convID); err != nil {
		s.logger.WithError(err).Warn("conversation touch failed")
	}
	return nil
}

// HandleUpload validates and stores an NFT image, then advances the
// upload flow. Storage failures become a normal assistant message with
// the error text, never a dropped turn.
func (s *Service) HandleUpload(ctx context.Context, convID uuid.UUID, address string, file io.Reader, fileName string, size int64, contentType string) (*SendMessageResponse, error) {
	if err := s.assets.Validate(fileName, size, contentType); err != nil {
		return s.HandleUploadFailed(ctx, convID, address, fmt.Sprintf("I couldn't accept that file: %s", err.Error()))
	}

	result, err := s.assets.Upload(ctx, file, fileName)
	if err != nil {
		s.logger.WithError(err).Error("asset upload failed")
		return s.HandleUploadFailed(ctx, convID, address, "The upload didn't go through. Please try again.")
	}
	if !result.Success {
		return s.HandleUploadFailed(ctx, convID, address, fmt.Sprintf("The upload didn't go through: %s", result.Error))
	}

	return s.HandleUploadComplete(ctx, convID, address, types.UploadedImage{
		URL:      result.URL,
		FileName: fileName,
	})
}
