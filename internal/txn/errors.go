package txn

import "errors"

var (
	// ErrTooManyTransactions is returned by Begin when the Active count has
	// reached max_concurrent (spec.md §4.3, default 256).
	ErrTooManyTransactions = errors.New("txn: too many concurrent transactions")
	// ErrNotFound is returned when an operation references an unknown
	// transaction id.
	ErrNotFound = errors.New("txn: transaction not found")
	// ErrAlreadyCommitted is returned by buffer_op/commit/rollback against a
	// transaction that already committed.
	ErrAlreadyCommitted = errors.New("txn: transaction already committed")
	// ErrAlreadyRolledBack is returned by buffer_op/commit/rollback against a
	// transaction that already rolled back.
	ErrAlreadyRolledBack = errors.New("txn: transaction already rolled back")
)
