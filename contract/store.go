package contract

import (
	"context"

	"github.com/xraph/carbonlock/identity"
)

type Store interface {
	Create(ctx context.Context, c *Contract) error
	Get(ctx context.Context, contractID uint64) (*Contract, error)
	List(ctx context.Context, opts ListOpts) ([]*Contract, error)
	Update(ctx context.Context, c *Contract) error
	Delete(ctx context.Context, contractID uint64) error
}

type ListOpts struct {
	Status Status
	Seller identity.Principal
	Limit  int
	Offset int
}
