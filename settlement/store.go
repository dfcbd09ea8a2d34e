package settlement

import (
	"context"

	"github.com/xraph/carbonlock/identity"
)

type Store interface {
	Create(ctx context.Context, t *Transaction) error
	Get(ctx context.Context, txID uint64) (*Transaction, error)
	List(ctx context.Context, opts ListOpts) ([]*Transaction, error)

	// Resolve stores the outcome of a pending transaction. It must fail
	// with an error matching carbonlock.ErrTransactionResolved when the
	// stored transaction is no longer pending.
	Resolve(ctx context.Context, t *Transaction) error
}

type ListOpts struct {
	Status Status
	// Account matches either side of the transfer.
	Account identity.Principal
	Limit   int
	Offset  int
}
