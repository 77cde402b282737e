package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chainpilot/assistant-backend/internal/chain"
	"github.com/chainpilot/assistant-backend/internal/types"
)

const (
	noSignerReply    = "Your wallet isn't connected, so I can't sign this transaction. Unlock your wallet and try again."
	unsupportedReply = "That action can't be executed on-chain, so there's nothing to submit."
)

// executeAction dispatches a confirmed action to the matching submission
// collaborator and normalizes the outcome into a final assistant message.
// The gate guarantees this runs at most once per pending action.
func (s *Service) executeAction(ctx context.Context, a *types.Action, signingKey string) string {
	if !a.Kind.Executable() {
		return unsupportedReply
	}
	if signingKey == "" {
		return noSignerReply
	}

	var (
		res *chain.TxResult
		err error
	)

	switch a.Kind {
	case types.ActionCreateToken:
		supply, _ := a.DetailNumber("totalSupply")
		decimals, ok := a.DetailNumber("decimals")
		if !ok {
			decimals = defaultDecimals
		}
		res, err = s.chain.CreateToken(ctx, chain.TokenParams{
			Name:        a.DetailString("name"),
			Symbol:      a.DetailString("symbol"),
			TotalSupply: chain.ToWei(supply, int(decimals)),
			Decimals:    uint8(decimals),
		}, signingKey)

	case types.ActionMintNFT:
		res, err = s.chain.MintNFT(ctx, s.tokenURI(ctx, a), a.DetailString("recipient"), signingKey)

	case types.ActionSendTransaction:
		amount, _ := a.DetailNumber("amount")
		res, err = s.chain.SendTransaction(ctx, chain.TransferParams{
			Recipient: a.DetailString("recipient"),
			Amount:    chain.ToWei(amount, defaultDecimals),
			Token:     a.DetailString("token"),
		}, signingKey)
	}

	if err != nil {
		if errors.Is(err, chain.ErrNoSigner) {
			return noSignerReply
		}
		s.logger.WithError(err).WithField("kind", a.Kind).Error("action execution failed")
		return fmt.Sprintf("The transaction could not be submitted: %s", err.Error())
	}
	if !res.Success {
		return fmt.Sprintf("The transaction failed: %s", res.Error)
	}

	return s.successMessage(a.Kind, res)
}

// nftMetadata is the ERC721 metadata document stored alongside the image.
type nftMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// tokenURI pins a metadata document carrying the confirmed name and
// description and returns its URL. If pinning is unavailable the image URL
// itself becomes the token URI so the mint still goes through.
func (s *Service) tokenURI(ctx context.Context, a *types.Action) string {
	imageURL := a.DetailString("imageUrl")
	if s.assets == nil {
		return imageURL
	}

	raw, err := json.Marshal(nftMetadata{
		Name:        a.DetailString("name"),
		Description: a.DetailString("description"),
		Image:       imageURL,
	})
	if err != nil {
		return imageURL
	}

	result, err := s.assets.Upload(ctx, bytes.NewReader(raw), "metadata.json")
	if err != nil || !result.Success {
		s.logger.WithError(err).Warn("metadata pin failed, minting with image URI")
		return imageURL
	}
	return result.URL
}

// successMessage renders the action-specific success text with the
// transaction identifier and explorer link.
func (s *Service) successMessage(kind types.ActionKind, res *chain.TxResult) string {
	link := s.chain.ExplorerTxURL(res.Hash)

	switch kind {
	case types.ActionCreateToken:
		msg := fmt.Sprintf("Your token is live! Transaction: %s\n%s", res.Hash, link)
		if res.ContractAddress != "" {
			msg += fmt.Sprintf("\nContract address: %s", res.ContractAddress)
		}
		return msg

	case types.ActionMintNFT:
		msg := fmt.Sprintf("Your NFT has been minted! Transaction: %s\n%s", res.Hash, link)
		if res.TokenID != "" {
			msg += fmt.Sprintf("\nToken ID: %s", res.TokenID)
		}
		return msg

	default:
		return fmt.Sprintf("Transfer sent! Transaction: %s\n%s", res.Hash, link)
	}
}
