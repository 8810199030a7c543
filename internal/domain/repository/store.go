package repository

import "context"

// Store is the shared database handle behind the repositories. WithTx runs
// fn inside one transaction; repositories called with the ctx it provides
// join that transaction.
type Store interface {
	Ping(ctx context.Context) error
	Close()
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
