package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos run against Tx when set so multi-step reputation updates commit
// or roll back as one unit.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
