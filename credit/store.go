package credit

import (
	"context"

	"github.com/xraph/carbonlock/identity"
)

type Store interface {
	Create(ctx context.Context, c *Credit) error
	Get(ctx context.Context, creditID uint64) (*Credit, error)
	List(ctx context.Context, opts ListOpts) ([]*Credit, error)
	Update(ctx context.Context, c *Credit) error
}

type ListOpts struct {
	Owner  identity.Principal
	Limit  int
	Offset int
}
