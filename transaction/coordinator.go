package transaction

import (
	"context"
	stderrors "errors"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/repository"
)

// Coordinator drives the transaction lifecycle of a job.
type Coordinator struct {
	*Editor
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(repo *repository.Repository, store *Store, opts ...Option) *Coordinator {
	return &Coordinator{Editor: NewEditor(repo, store, opts...)}
}

// Begin records the transaction, deletes the resources named by the delete
// patterns of each output, and sets up the transaction output of every data
// source the outputs touch. Variables in delete patterns are resolved from
// the batch arguments.
func (c *Coordinator) Begin(ctx context.Context, info Info, outputs []directio.OutputDescription) error {
	log := c.logger.With("execution_id", info.ExecutionID).WithOperation("begin")
	if err := c.store.Create(ctx, info); err != nil {
		return err
	}

	var touched []directio.Descriptor
	seen := map[string]bool{}
	for _, out := range outputs {
		d, err := c.repo.Resolve(out.BasePath)
		if err != nil {
			return err
		}
		if err := c.deleteOutputs(ctx, info, out); err != nil {
			log.Error(ctx, "failed to delete previous output", "base_path", out.BasePath, "error", err)
			return err
		}
		if !seen[d.ID] {
			seen[d.ID] = true
			touched = append(touched, d)
		}
	}

	err := c.forEach(ctx, info.ExecutionID, touched, func(ctx context.Context, ds directio.DataSource, tx directio.TransactionContext) error {
		return ds.SetupTransactionOutput(ctx, tx)
	})
	if err != nil {
		return err
	}
	log.Info(ctx, "began transaction", "outputs", len(outputs), "data_sources", len(touched))
	return nil
}

func (c *Coordinator) deleteOutputs(ctx context.Context, info Info, out directio.OutputDescription) error {
	patterns, err := out.CompileDeletePatterns()
	if err != nil || len(patterns) == 0 {
		return err
	}
	ds, err := c.repo.DataSource(ctx, out.BasePath)
	if err != nil {
		return err
	}
	component, err := c.repo.ComponentPath(out.BasePath)
	if err != nil {
		return err
	}
	counter := directio.NewCounter()
	for _, p := range patterns {
		resolved, err := p.Resolve(info.Arguments)
		if err != nil {
			return err
		}
		if _, err := ds.Delete(ctx, component, resolved, true, counter); err != nil {
			return err
		}
	}
	c.logger.Debug(ctx, "deleted previous output", "base_path", out.BasePath, "count", counter.Count())
	return nil
}

// Output returns the data source that owns basePath and the transaction
// context attempts writing below basePath must be derived from.
func (c *Coordinator) Output(ctx context.Context, executionID, basePath string) (directio.DataSource, directio.TransactionContext, error) {
	if err := c.requireExists(executionID); err != nil {
		return nil, directio.TransactionContext{}, err
	}
	d, err := c.repo.Resolve(basePath)
	if err != nil {
		return nil, directio.TransactionContext{}, err
	}
	ds, err := c.repo.DataSourceByID(ctx, d.ID)
	if err != nil {
		return nil, directio.TransactionContext{}, err
	}
	tx, err := directio.NewTransactionContext(executionID, d.ID, nil)
	if err != nil {
		return nil, directio.TransactionContext{}, err
	}
	return ds, tx, nil
}

// Commit writes the commit mark and rolls the transaction forward. Once the
// mark is written a failure leaves the transaction committed; it is then
// completed by Editor.Apply.
func (c *Coordinator) Commit(ctx context.Context, executionID string) error {
	if err := c.requireExists(executionID); err != nil {
		return err
	}
	if err := c.store.Mark(executionID); err != nil {
		return err
	}
	_, err := c.Apply(ctx, executionID)
	return err
}

func (c *Coordinator) requireExists(executionID string) error {
	if err := ValidateID(executionID); err != nil {
		return err
	}
	ok, err := c.store.Exists(executionID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.WithContext(
			errors.Newf(errors.CodeNotFound, "transaction %q not found", executionID),
			"execution_id", executionID,
		)
	}
	return nil
}

// RunAttempt drives one attempt of an output: the attempt area is set up, fn
// writes output into it, and the attempt is committed. The attempt area is
// cleaned up in every case. A failed attempt can be retried with a new
// attempt id.
func RunAttempt(ctx context.Context, committer directio.OutputCommitter, attempt directio.AttemptContext, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if cerr := committer.CleanupAttemptOutput(context.WithoutCancel(ctx), attempt); cerr != nil {
			err = stderrors.Join(err, cerr)
		}
	}()

	if err := committer.SetupAttemptOutput(ctx, attempt); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}
	if err := errors.CheckContext(ctx, "attempt"); err != nil {
		return err
	}
	return committer.CommitAttemptOutput(ctx, attempt)
}
