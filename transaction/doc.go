// Package transaction coordinates job-wide output transactions across every
// data source of a repository.
//
// A transaction is recorded by an info file in a system directory. Once all
// attempts have committed, a commit mark is written; from then on the
// transaction must be rolled forward. A crash between the mark and the final
// cleanup is repaired by Editor.Apply, which repeats the idempotent
// transaction commit on every data source.
//
//	store := transaction.NewStore(systemFS, "system")
//	c := transaction.NewCoordinator(repo, store)
//	if err := c.Begin(ctx, info, outputs); err != nil { ... }
//	ds, tx, err := c.Output(ctx, info.ExecutionID, "out/sales")
//	// run attempts of tx.NewAttempt() on ds with RunAttempt
//	if err := c.Commit(ctx, info.ExecutionID); err != nil { ... }
package transaction
