package settlement

import (
	"context"

	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/types"
)

// TransferRequest is handed to the collaborator once per transaction.
// Reference is unique per attempt; a collaborator must refuse to apply the
// same reference twice.
type TransferRequest struct {
	Endpoint  identity.Principal
	Reference id.SettlementRef
	From      identity.Principal
	To        identity.Principal
	Amount    types.Amount
}

// Collaborator performs asset transfers and balance lookups on the
// settlement network. A returned error from DoTransfer is a terminal failure
// of that transfer; its message becomes the failure reason.
type Collaborator interface {
	DoTransfer(ctx context.Context, req TransferRequest) error
	GetBalance(ctx context.Context, endpoint, account identity.Principal) (types.Amount, error)
}
