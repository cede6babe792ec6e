package transaction

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/internal/logging"
	"github.com/jmgilman/go/directio/repository"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Editor inspects and resolves transactions left behind by jobs, rolling
// committed ones forward and aborting the rest.
type Editor struct {
	repo        *repository.Repository
	store       *Store
	logger      *logging.Logger
	concurrency int
}

// Option configures an Editor or a Coordinator.
type Option func(*Editor)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithConcurrency bounds how many data sources are processed in parallel.
func WithConcurrency(n int) Option {
	return func(e *Editor) {
		e.concurrency = n
	}
}

// NewEditor creates an Editor.
func NewEditor(repo *repository.Repository, store *Store, opts ...Option) *Editor {
	e := &Editor{repo: repo, store: store, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger)
	if e.concurrency <= 0 {
		e.concurrency = defaultConcurrency
	}
	return e
}

// List returns every recorded transaction ordered by start time.
func (e *Editor) List(ctx context.Context) ([]Record, error) {
	return e.store.List(ctx)
}

// Get returns one transaction.
func (e *Editor) Get(ctx context.Context, executionID string) (Record, error) {
	return e.store.Get(ctx, executionID)
}

// Apply rolls a committed transaction forward: every data source commits and
// cleans its transaction output, then the commit mark and info are removed.
// It returns false without doing anything when the transaction is unknown or
// was never committed.
func (e *Editor) Apply(ctx context.Context, executionID string) (bool, error) {
	if err := ValidateID(executionID); err != nil {
		return false, err
	}
	log := e.logger.With("execution_id", executionID).WithOperation("apply")
	ok, err := e.store.Exists(executionID)
	if err != nil || !ok {
		return false, err
	}
	committed, err := e.store.IsCommitted(executionID)
	if err != nil || !committed {
		if err == nil {
			log.Info(ctx, "transaction is not committed")
		}
		return false, err
	}

	log.Info(ctx, "applying transaction")
	err = e.eachDataSource(ctx, executionID, func(ctx context.Context, ds directio.DataSource, tx directio.TransactionContext) error {
		if err := ds.CommitTransactionOutput(ctx, tx); err != nil {
			return err
		}
		return ds.CleanupTransactionOutput(ctx, tx)
	})
	if err != nil {
		log.Error(ctx, "failed to apply transaction; abort it to discard the output", "error", err)
		return false, err
	}

	if err := e.store.Unmark(executionID); err != nil {
		return true, err
	}
	if err := e.store.Delete(executionID); err != nil {
		return true, err
	}
	log.Info(ctx, "applied transaction")
	return true, nil
}

// Abort discards a transaction: the commit mark is removed first, every data
// source cleans its transaction output, and finally the info is removed. It
// returns false when the transaction is unknown.
func (e *Editor) Abort(ctx context.Context, executionID string) (bool, error) {
	if err := ValidateID(executionID); err != nil {
		return false, err
	}
	log := e.logger.With("execution_id", executionID).WithOperation("abort")
	ok, err := e.store.Exists(executionID)
	if err != nil || !ok {
		return false, err
	}

	log.Info(ctx, "aborting transaction")
	if err := e.store.Unmark(executionID); err != nil {
		return false, err
	}
	err = e.eachDataSource(ctx, executionID, func(ctx context.Context, ds directio.DataSource, tx directio.TransactionContext) error {
		return ds.CleanupTransactionOutput(ctx, tx)
	})
	if err != nil {
		log.Error(ctx, "failed to abort transaction", "error", err)
		return false, err
	}
	if err := e.store.Delete(executionID); err != nil {
		return true, err
	}
	log.Info(ctx, "aborted transaction")
	return true, nil
}

type dataSourceFunc func(ctx context.Context, ds directio.DataSource, tx directio.TransactionContext) error

// eachDataSource runs fn for every registered data source with bounded
// parallelism. Every data source is attempted; failures are joined.
func (e *Editor) eachDataSource(ctx context.Context, executionID string, fn dataSourceFunc) error {
	descriptors := e.repo.Descriptors()
	return e.forEach(ctx, executionID, descriptors, fn)
}

func (e *Editor) forEach(ctx context.Context, executionID string, descriptors []directio.Descriptor, fn dataSourceFunc) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	var eg errgroup.Group
	eg.SetLimit(e.concurrency)
	for _, d := range descriptors {
		d := d
		eg.Go(func() error {
			err := e.runOne(ctx, executionID, d, fn)
			if err != nil {
				e.logger.WithBackend(d.ID).Error(ctx, "data source failed", "execution_id", executionID, "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
	if len(errs) == 0 {
		return nil
	}
	joined := stderrors.Join(errs...)
	if errors.IsInterrupted(joined) {
		return errors.Interrupted(joined, "transaction interrupted")
	}
	return errors.WithContext(errors.Wrap(joined, errors.CodeTransaction, "transaction failed"), "execution_id", executionID)
}

func (e *Editor) runOne(ctx context.Context, executionID string, d directio.Descriptor, fn dataSourceFunc) error {
	if err := errors.CheckContext(ctx, "transaction"); err != nil {
		return err
	}
	ds, err := e.repo.DataSourceByID(ctx, d.ID)
	if err != nil {
		return err
	}
	tx, err := directio.NewTransactionContext(executionID, d.ID, nil)
	if err != nil {
		return err
	}
	return fn(ctx, ds, tx)
}
