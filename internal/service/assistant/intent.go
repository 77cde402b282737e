package assistant

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/chainpilot/assistant-backend/internal/ai/anthropic"
	"github.com/chainpilot/assistant-backend/internal/types"
)

// oracleDownReply is shown when the oracle call itself fails. The failure
// is absorbed so the conversation never crashes.
const oracleDownReply = "Sorry, I'm having trouble responding right now. Please try again in a moment."

// intentResult is the extractor's output for one turn.
type intentResult struct {
	Reply                string
	Action               *types.Action
	RequiresConfirmation bool
}

// oracleEnvelope is the JSON object the oracle embeds in a fenced block.
type oracleEnvelope struct {
	Response             string        `json:"response"`
	Action               *types.Action `json:"action"`
	RequiresConfirmation bool          `json:"requiresConfirmation"`
}

// fencedJSONPattern matches the first fenced code block containing a JSON
// object. The fence label is optional.
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractIntent sends the user text plus bounded history to the oracle and
// parses the structured action out of the response.
func (s *Service) extractIntent(ctx context.Context, history []types.Message, content, address string) *intentResult {
	msgs := oracleMessages(history)
	msgs = append(msgs, anthropic.Message{Role: "user", Content: content})

	text, err := s.oracle.Complete(ctx, BuildSystemPrompt(address, s.chain.NativeSymbol()), msgs)
	if err != nil {
		s.logger.WithError(err).Error("oracle call failed")
		return &intentResult{Reply: oracleDownReply}
	}

	return parseOracleReply(text)
}

// parseOracleReply extracts the envelope from the oracle's raw text. A
// missing or malformed fenced block degrades to a plain conversational
// reply with no action; parse problems are never surfaced to the user.
func parseOracleReply(text string) *intentResult {
	m := fencedJSONPattern.FindStringSubmatch(text)
	if m == nil {
		return &intentResult{Reply: strings.TrimSpace(text)}
	}

	var env oracleEnvelope
	if err := json.Unmarshal([]byte(m[1]), &env); err != nil {
		return &intentResult{Reply: strings.TrimSpace(text)}
	}

	res := &intentResult{
		Reply:                env.Response,
		Action:               sanitizeAction(env.Action),
		RequiresConfirmation: env.RequiresConfirmation,
	}
	if res.Action == nil {
		res.RequiresConfirmation = false
	}
	if res.Reply == "" {
		// Envelope without response text: fall back to whatever the
		// oracle said outside the fence.
		res.Reply = strings.TrimSpace(fencedJSONPattern.ReplaceAllString(text, ""))
	}
	return res
}

// sanitizeAction validates the parsed action at the boundary. Unknown
// kinds and out-of-range confidence never make it past here.
func sanitizeAction(a *types.Action) *types.Action {
	if a == nil {
		return nil
	}
	switch a.Kind {
	case types.ActionCreateToken, types.ActionMintNFT, types.ActionUploadNFT,
		types.ActionSendTransaction, types.ActionCheckBalance,
		types.ActionGetTransactions, types.ActionUnknown:
	default:
		return nil
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 1 {
		a.Confidence = 1
	}
	return a
}

// oracleMessages converts the recent history window to oracle messages.
func oracleMessages(history []types.Message) []anthropic.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	msgs := make([]anthropic.Message, 0, len(history)+1)
	for _, msg := range history {
		msgs = append(msgs, anthropic.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return msgs
}
