package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/chainpilot/assistant-backend/internal/types"
)

// defaultNFTDescription fills in when the user provides no description.
const defaultNFTDescription = "An NFT minted with ChainPilot"

const (
	askDetailsReply = "Upload received! What should this NFT be called? You can also add a description, e.g. \"called Sunrise description A photo from my trip\"."
	askNameReply    = "I still need a name for the NFT before minting. What should it be called?"
)

// handleUploadIntent reacts to a recognized upload_nft action: stash any
// name/description the user already gave and surface the upload control
// without asking further questions.
func (s *Service) handleUploadIntent(ctx context.Context, conv *types.Conversation, state *SessionState, res *intentResult) (*SendMessageResponse, error) {
	details := &types.UploadPendingDetails{
		Name:        res.Action.DetailString("name"),
		Description: res.Action.DetailString("description"),
	}
	if !details.Empty() {
		state.UploadDetails = details
		if err := s.sessions.Save(ctx, conv.ID, state); err != nil {
			return nil, err
		}
	}

	msg, err := s.appendAssistant(ctx, conv.ID, res.Reply, &types.MessageMeta{
		Action:     res.Action,
		ShowUpload: true,
	})
	if err != nil {
		return nil, err
	}
	return &SendMessageResponse{Message: *msg, ShowUpload: true}, nil
}

// HandleUploadComplete is called once the storage collaborator reports a
// stored asset. With stashed details a mint_nft action is synthesized
// immediately; otherwise the conversation enters the waiting-for-details
// sub-state.
func (s *Service) HandleUploadComplete(ctx context.Context, convID uuid.UUID, address string, image types.UploadedImage) (*SendMessageResponse, error) {
	conv, err := s.convRepo.GetByID(ctx, convID, address)
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

	if !state.UploadDetails.Empty() {
		details := state.UploadDetails
		state.UploadDetails = nil
		state.PendingImage = nil
		state.AwaitingDetails = false

		action := synthesizeMintAction(details.Name, details.Description, image.URL)
		return s.presentConfirmation(ctx, conv, state, action, &image)
	}

	state.UploadDetails = nil
	state.PendingImage = &image
	state.AwaitingDetails = true
	if err := s.sessions.Save(ctx, convID, state); err != nil {
		return nil, err
	}

	msg, err := s.appendAssistant(ctx, convID, askDetailsReply, &types.MessageMeta{Image: &image})
	if err != nil {
		return nil, err
	}
	return &SendMessageResponse{Message: *msg}, nil
}

// HandleUploadFailed surfaces an upload failure verbatim. No pending
// action is created and no session state changes.
func (s *Service) HandleUploadFailed(ctx context.Context, convID uuid.UUID, address string, errText string) (*SendMessageResponse, error) {
	if _, err := s.convRepo.GetByID(ctx, convID, address); err != nil {
		return nil, err
	}
	msg, err := s.appendAssistant(ctx, convID, errText, nil)
	if err != nil {
		return nil, err
	}
	return &SendMessageResponse{Message: *msg}, nil
}

// handleDetailsReply parses the user's free-text NFT details while in the
// waiting-for-details sub-state. A name is mandatory; absence of a
// parseable name always re-prompts, never forces a default.
func (s *Service) handleDetailsReply(ctx context.Context, conv *types.Conversation, state *SessionState, req *SendMessageRequest) (*SendMessageResponse, error) {
	parsed := parseNFTDetails(req.Content)
	if !parsed.Matched {
		msg, err := s.appendAssistant(ctx, conv.ID, parsed.Reprompt, nil)
		if err != nil {
			return nil, err
		}
		return &SendMessageResponse{Message: *msg}, nil
	}

	image := state.PendingImage
	if image == nil {
		// Sub-state without an image should not happen; recover by
		// dropping the sub-state and asking the user to re-upload.
		state.AwaitingDetails = false
		if err := s.sessions.Save(ctx, conv.ID, state); err != nil {
			return nil, err
		}
		msg, err := s.appendAssistant(ctx, conv.ID, "I lost track of your upload. Please upload the image again.", nil)
		if err != nil {
			return nil, err
		}
		return &SendMessageResponse{Message: *msg}, nil
	}

	state.AwaitingDetails = false
	state.PendingImage = nil

	action := synthesizeMintAction(parsed.Name, parsed.Description, image.URL)
	return s.presentConfirmation(ctx, conv, state, action, image)
}

// nftDetailsResult is the outcome of one pass over the heuristic cascade.
type nftDetailsResult struct {
	Name        string
	Description string
	Matched     bool
	Reprompt    string
}

var (
	// "called <name> [description <description>]", also "call it <name>"
	calledPattern = regexp.MustCompile(`(?i)\bcall(?:ed|\s+it)\s+["']?(.+?)["']?(?:\s+description[:\s]\s*(.+))?$`)
	// "name: <name>[, description: <description>]"
	labeledPattern = regexp.MustCompile(`(?i)name\s*:\s*([^,]+?)\s*(?:,\s*description\s*:\s*(.+))?$`)
)

// parseNFTDetails evaluates the ordered pattern cascade; first match wins.
// The proceed/skip guards run before the short-message fallback so words
// like "confirm" are never mistaken for a name.
func parseNFTDetails(text string) nftDetailsResult {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if m := calledPattern.FindStringSubmatch(trimmed); m != nil {
		name := strings.TrimSpace(m[1])
		desc := strings.TrimSpace(m[2])
		if strings.EqualFold(desc, "nothing") {
			desc = ""
		}
		if name != "" {
			return nftDetailsResult{Name: name, Description: desc, Matched: true}
		}
	}

	if m := labeledPattern.FindStringSubmatch(trimmed); m != nil {
		name := strings.TrimSpace(m[1])
		desc := strings.TrimSpace(m[2])
		if name != "" {
			return nftDetailsResult{Name: name, Description: desc, Matched: true}
		}
	}

	// Intent to proceed without ever naming the NFT: re-prompt.
	if strings.Contains(lower, "confirm") || strings.Contains(lower, "mint") || strings.Contains(lower, "proceed") {
		return nftDetailsResult{Reprompt: askNameReply}
	}

	// Skipping the description still requires a name.
	if lower == "no" || strings.Contains(lower, "skip") || strings.Contains(lower, "no description") {
		return nftDetailsResult{Reprompt: askNameReply}
	}

	if trimmed != "" && len(trimmed) < 50 && !strings.Contains(trimmed, ",") {
		return nftDetailsResult{Name: trimmed, Matched: true}
	}

	return nftDetailsResult{Reprompt: askNameReply}
}

// synthesizeMintAction builds a complete mint_nft action from captured
// details plus the stored image URL.
func synthesizeMintAction(name, description, imageURL string) *types.Action {
	if description == "" {
		description = defaultNFTDescription
	}
	a := &types.Action{
		Kind:       types.ActionMintNFT,
		Confidence: 1,
		Details: map[string]any{
			"name":        name,
			"description": description,
			"imageUrl":    imageURL,
		},
	}
	ValidateAction(a)
	return a
}
