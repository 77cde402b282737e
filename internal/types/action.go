package types

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
)

// ActionKind identifies a recognized user intent.
type ActionKind string

const (
	ActionCreateToken     ActionKind = "create_token"
	ActionMintNFT         ActionKind = "mint_nft"
	ActionUploadNFT       ActionKind = "upload_nft"
	ActionSendTransaction ActionKind = "send_transaction"
	ActionCheckBalance    ActionKind = "check_balance"
	ActionGetTransactions ActionKind = "get_transactions"
	ActionUnknown         ActionKind = "unknown"
)

// Executable reports whether the kind maps to an on-chain submission.
func (k ActionKind) Executable() bool {
	switch k {
	case ActionCreateToken, ActionMintNFT, ActionSendTransaction:
		return true
	}
	return false
}

// Action is a structured user intent extracted from free text.
// Details keys depend on Kind: create_token carries name/symbol/totalSupply/
// decimals, mint_nft carries name/description/imageUrl/attributes,
// send_transaction carries recipient/amount/token.
type Action struct {
	Kind          ActionKind     `json:"action"`
	Confidence    float64        `json:"confidence"`
	Details       map[string]any `json:"details"`
	MissingFields []string       `json:"missingFields,omitempty"`
	IsComplete    bool           `json:"isComplete"`
}

// DetailString returns the named detail as a string, or "" if absent
// or not a string.
func (a *Action) DetailString(key string) string {
	if a.Details == nil {
		return ""
	}
	s, _ := a.Details[key].(string)
	return s
}

// DetailNumber returns the named detail as a float64. JSON decoding
// yields float64 for numbers; int64 covers values set by the defaulting
// pass; numeric strings are accepted too.
func (a *Action) DetailNumber(key string) (float64, bool) {
	if a.Details == nil {
		return 0, false
	}
	switch v := a.Details[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// SetDetail sets a detail value, allocating the map if needed.
func (a *Action) SetDetail(key string, value any) {
	if a.Details == nil {
		a.Details = make(map[string]any)
	}
	a.Details[key] = value
}

// PendingAction is the single action awaiting user confirmation for a
// conversation. At most one exists per conversation at any time.
type PendingAction struct {
	Action               Action    `json:"action"`
	MessageID            uuid.UUID `json:"message_id"`
	AwaitingConfirmation bool      `json:"awaiting_confirmation"`
}

// UploadPendingDetails holds NFT name/description captured before an
// image upload was requested, so they are not asked for twice. It exists
// only between upload_nft recognition and upload completion.
type UploadPendingDetails struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Empty reports whether no detail was captured.
func (d *UploadPendingDetails) Empty() bool {
	return d == nil || (d.Name == "" && d.Description == "")
}

// UploadedImage references an asset stored by the upload collaborator.
type UploadedImage struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}
