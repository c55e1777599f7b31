package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// FromContext returns a dbctx.Context with no transaction attached.
func FromContext(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// DB returns the transaction when present, otherwise fallback, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	txx := c.Tx
	if txx == nil {
		txx = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return txx.WithContext(ctx)
}
