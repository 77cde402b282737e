package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainpilot/assistant-backend/internal/chain"
	"github.com/chainpilot/assistant-backend/internal/types"
)

// Fixed confirmation vocabulary. Anything else keeps the pending action
// and re-prompts.
var (
	affirmativeReplies = map[string]struct{}{
		"yes": {}, "y": {}, "confirm": {}, "proceed": {}, "ok": {}, "sure": {},
	}
	negativeReplies = map[string]struct{}{
		"no": {}, "n": {}, "cancel": {}, "abort": {}, "stop": {},
	}
)

// Fallback figures used when the fee or price collaborator is down; an
// inaccurate estimate must never block confirmation.
const (
	fallbackFeeNative = 0.0002
	fallbackUSDPrice  = 2500.0
)

const (
	cancelledReply = "No problem, I've cancelled that. Let me know if you'd like to do anything else."
	rePromptReply  = "Just to be safe, please reply Yes to confirm or No to cancel."
)

type confirmSignal int

const (
	confirmAmbiguous confirmSignal = iota
	confirmYes
	confirmNo
)

// interpretConfirmation classifies a reply against the fixed vocabulary.
func interpretConfirmation(text string) confirmSignal {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, ".!")
	if _, ok := affirmativeReplies[normalized]; ok {
		return confirmYes
	}
	if _, ok := negativeReplies[normalized]; ok {
		return confirmNo
	}
	return confirmAmbiguous
}

// handleConfirmationReply drives the confirmation gate: the user's next
// message while a pending action awaits confirmation is interpreted as a
// confirmation signal, never routed to the oracle.
func (s *Service) handleConfirmationReply(ctx context.Context, conv *types.Conversation, state *SessionState, req *SendMessageRequest) (*SendMessageResponse, error) {
	switch interpretConfirmation(req.Content) {
	case confirmNo:
		pending := *state.Pending
		state.Pending = nil
		if err := s.sessions.Save(ctx, conv.ID, state); err != nil {
			return nil, err
		}
		s.resolveConfirmationMessage(ctx, &pending)
		msg, err := s.appendAssistant(ctx, conv.ID, cancelledReply, nil)
		if err != nil {
			return nil, err
		}
		return &SendMessageResponse{Message: *msg}, nil

	case confirmYes:
		pending := *state.Pending
		// Clear the slot before dispatch so a duplicate affirmative can
		// never trigger a second submission.
		state.Pending = nil
		if err := s.sessions.Save(ctx, conv.ID, state); err != nil {
			return nil, err
		}
		s.resolveConfirmationMessage(ctx, &pending)

		content := s.executeAction(ctx, &pending.Action, req.SigningKey)
		msg, err := s.appendAssistant(ctx, conv.ID, content, &types.MessageMeta{Action: &pending.Action})
		if err != nil {
			return nil, err
		}
		return &SendMessageResponse{Message: *msg}, nil

	default:
		// Self-loop: the pending action is preserved unchanged.
		msg, err := s.appendAssistant(ctx, conv.ID, rePromptReply, nil)
		if err != nil {
			return nil, err
		}
		return &SendMessageResponse{Message: *msg, RequiresConfirmation: true}, nil
	}
}

// resolveConfirmationMessage drops the requires-confirmation flag from the
// message that solicited the reply, so the transcript no longer offers a
// resolved question. Best effort; the gate itself is already closed.
func (s *Service) resolveConfirmationMessage(ctx context.Context, pending *types.PendingAction) {
	var msg types.Message
	if err := msg.SetMeta(types.MessageMeta{Action: &pending.Action}); err != nil {
		return
	}
	if err := s.msgRepo.UpdateMetadata(ctx, pending.MessageID, msg.Metadata); err != nil {
		s.logger.WithError(err).Warn("failed to resolve confirmation message")
	}
}

// presentConfirmation composes the confirmation message, stores it, and
// arms the pending-action slot.
func (s *Service) presentConfirmation(ctx context.Context, conv *types.Conversation, state *SessionState, action *types.Action, image *types.UploadedImage) (*SendMessageResponse, error) {
	content := s.composeConfirmation(ctx, action)

	msg, err := s.appendAssistant(ctx, conv.ID, content, &types.MessageMeta{
		Action:               action,
		RequiresConfirmation: true,
		Image:                image,
	})
	if err != nil {
		return nil, err
	}

	state.Pending = &types.PendingAction{
		Action:               *action,
		MessageID:            msg.ID,
		AwaitingConfirmation: true,
	}
	if err := s.sessions.Save(ctx, conv.ID, state); err != nil {
		return nil, err
	}

	return &SendMessageResponse{Message: *msg, RequiresConfirmation: true}, nil
}

// composeConfirmation renders the action summary plus a live fee estimate
// in native currency and USD, ending with an explicit yes/no question.
// Collaborator failures fall back to fixed figures.
func (s *Service) composeConfirmation(ctx context.Context, a *types.Action) string {
	feeNative := fallbackFeeNative
	if feeWei, err := s.chain.EstimateFee(ctx, a.Kind); err == nil {
		feeNative = chain.FromWei(feeWei, 18)
	} else {
		s.logger.WithError(err).Warn("fee estimate unavailable, using fallback")
	}

	price := fallbackUSDPrice
	if q, err := s.prices.NativePrice(ctx); err == nil {
		price = q.Price
	} else {
		s.logger.WithError(err).Warn("price lookup unavailable, using fallback")
	}

	return fmt.Sprintf(
		"%s\n\nEstimated network fee: ~%.6f %s ($%.2f USD).\n\nShould I go ahead? Reply Yes to confirm or No to cancel.",
		summarizeAction(a), feeNative, s.chain.NativeSymbol(), feeNative*price,
	)
}

// summarizeAction renders the action-specific parameter summary.
func summarizeAction(a *types.Action) string {
	switch a.Kind {
	case types.ActionCreateToken:
		supply, _ := a.DetailNumber("totalSupply")
		return fmt.Sprintf(
			"Here's what I'm about to create:\n\n- Token: %s (%s)\n- Total supply: %s\n- Decimals: %d",
			a.DetailString("name"), a.DetailString("symbol"),
			formatSupply(supply), defaultDecimals,
		)

	case types.ActionMintNFT:
		return fmt.Sprintf(
			"Here's the NFT I'm about to mint:\n\n- Name: %s\n- Description: %s\n- Image: %s",
			a.DetailString("name"), a.DetailString("description"), a.DetailString("imageUrl"),
		)

	case types.ActionSendTransaction:
		amount, _ := a.DetailNumber("amount")
		asset := "the native asset"
		if token := a.DetailString("token"); token != "" {
			asset = "token " + token
		}
		return fmt.Sprintf(
			"Here's the transfer I'm about to send:\n\n- Amount: %g of %s\n- To: %s",
			amount, asset, a.DetailString("recipient"),
		)

	default:
		return fmt.Sprintf("I'm about to perform: %s", a.Kind)
	}
}

// formatSupply renders a whole supply with thousands separators.
func formatSupply(supply float64) string {
	raw := fmt.Sprintf("%.0f", supply)
	if len(raw) <= 3 {
		return raw
	}
	var sb strings.Builder
	lead := len(raw) % 3
	if lead > 0 {
		sb.WriteString(raw[:lead])
	}
	for i := lead; i < len(raw); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(raw[i : i+3])
	}
	return sb.String()
}
