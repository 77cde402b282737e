package assistant

import (
	"math"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainpilot/assistant-backend/internal/types"
)

// ValidateAction recomputes MissingFields and IsComplete from the details
// actually present. The completeness flag is never trusted from the
// oracle; it holds if and only if every required field for the kind is
// present and individually valid.
func ValidateAction(a *types.Action) {
	var missing []string

	switch a.Kind {
	case types.ActionCreateToken:
		if a.DetailString("name") == "" {
			missing = append(missing, "name")
		}
		if a.DetailString("symbol") == "" {
			missing = append(missing, "symbol")
		}
		if supply, ok := a.DetailNumber("totalSupply"); !ok || !positiveFinite(supply) {
			missing = append(missing, "totalSupply")
		}

	case types.ActionMintNFT:
		if a.DetailString("name") == "" {
			missing = append(missing, "name")
		}
		if a.DetailString("imageUrl") == "" {
			missing = append(missing, "imageUrl")
		}

	case types.ActionSendTransaction:
		if !common.IsHexAddress(a.DetailString("recipient")) {
			missing = append(missing, "recipient")
		}
		if amount, ok := a.DetailNumber("amount"); !ok || !positiveFinite(amount) {
			missing = append(missing, "amount")
		}
		// An empty token field means the native asset; a non-empty one
		// must be a contract address.
		if token := a.DetailString("token"); token != "" && !common.IsHexAddress(token) {
			missing = append(missing, "token")
		}

	case types.ActionUploadNFT, types.ActionCheckBalance,
		types.ActionGetTransactions, types.ActionUnknown:
		// No required fields.
	}

	a.MissingFields = missing
	a.IsComplete = len(missing) == 0
}

func positiveFinite(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
