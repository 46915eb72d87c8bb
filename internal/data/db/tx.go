package db

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner runs a function inside a single database transaction. Services
// depend on it instead of *gorm.DB so tests can substitute a pass-through.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
