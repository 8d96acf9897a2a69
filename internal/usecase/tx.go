package usecase

import "context"

// TxRunner runs fn so that every repository call made with the context it
// receives commits or rolls back together.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type directTxRunner struct{}

func (directTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewDirectTxRunner runs functions without a surrounding transaction, for
// stores that apply each call atomically on their own.
func NewDirectTxRunner() TxRunner {
	return directTxRunner{}
}
