package repositories

import (
	"context"

	"gorm.io/gorm"
)

type txContextKey struct{}

// ContextWithTx makes every repository called with the returned context
// run its queries on tx.
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// dbFromContext returns the transaction stored in ctx, or db bound to ctx.
func dbFromContext(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
