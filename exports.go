package carbonlock

import (
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/types"
)

// Re-export common types for convenience so users don't have to import the
// leaf packages.

// Principal is re-exported from the identity package.
type Principal = identity.Principal

// Amount is re-exported from the types package.
type Amount = types.Amount

// Entity is re-exported from the types package.
type Entity = types.Entity

// ID is the TypeID used for settlement references and event ids.
type ID = id.ID

// Re-export constructors and helpers
var (
	Coins      = types.Coins
	WithCaller = identity.WithCaller
	NewEntity  = types.NewEntity
)

// Anonymous is the principal used when no caller is attached.
const Anonymous = identity.Anonymous
