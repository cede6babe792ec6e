package directio

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmgilman/go/directio/errors"
)

// TransactionContext identifies one job output across every attempt that
// contributes to it. It is stable across retries and process restarts.
type TransactionContext struct {
	transactionID string
	outputID      string
	counter       *Counter
}

// NewTransactionContext creates a TransactionContext. A nil counter is
// replaced with a fresh one.
func NewTransactionContext(transactionID, outputID string, counter *Counter) (TransactionContext, error) {
	if transactionID == "" {
		return TransactionContext{}, errors.New(errors.CodeInvalidInput, "transaction id must not be empty")
	}
	if outputID == "" {
		return TransactionContext{}, errors.New(errors.CodeInvalidInput, "output id must not be empty")
	}
	if counter == nil {
		counter = NewCounter()
	}
	return TransactionContext{transactionID: transactionID, outputID: outputID, counter: counter}, nil
}

// TransactionID returns the job-wide transaction id.
func (c TransactionContext) TransactionID() string { return c.transactionID }

// OutputID returns the id of the output. It is the id of the data source
// the output is written to.
func (c TransactionContext) OutputID() string { return c.outputID }

// Counter returns the progress counter shared with derived attempts.
func (c TransactionContext) Counter() *Counter { return c.counter }

// Attempt derives an AttemptContext for attemptID sharing this context's
// counter.
func (c TransactionContext) Attempt(attemptID string) (AttemptContext, error) {
	return NewAttemptContext(c.transactionID, attemptID, c.outputID, c.counter)
}

// NewAttempt derives an AttemptContext with a freshly generated attempt id.
func (c TransactionContext) NewAttempt() AttemptContext {
	return AttemptContext{
		transactionID: c.transactionID,
		attemptID:     uuid.NewString(),
		outputID:      c.outputID,
		counter:       c.counter,
	}
}

func (c TransactionContext) String() string {
	return fmt.Sprintf("transaction(id=%s, output=%s)", c.transactionID, c.outputID)
}

// AttemptContext identifies one execution attempt of a task contributing to a
// transaction. Its attempt id is unique even when the task is retried or runs
// speculatively.
type AttemptContext struct {
	transactionID string
	attemptID     string
	outputID      string
	counter       *Counter
}

// NewAttemptContext creates an AttemptContext. A nil counter is replaced with
// a fresh one.
func NewAttemptContext(transactionID, attemptID, outputID string, counter *Counter) (AttemptContext, error) {
	tx, err := NewTransactionContext(transactionID, outputID, counter)
	if err != nil {
		return AttemptContext{}, err
	}
	if attemptID == "" {
		return AttemptContext{}, errors.New(errors.CodeInvalidInput, "attempt id must not be empty")
	}
	return AttemptContext{
		transactionID: tx.transactionID,
		attemptID:     attemptID,
		outputID:      tx.outputID,
		counter:       tx.counter,
	}, nil
}

// TransactionID returns the id of the owning transaction.
func (c AttemptContext) TransactionID() string { return c.transactionID }

// AttemptID returns the attempt id.
func (c AttemptContext) AttemptID() string { return c.attemptID }

// OutputID returns the output id of the owning transaction.
func (c AttemptContext) OutputID() string { return c.outputID }

// Counter returns the progress counter.
func (c AttemptContext) Counter() *Counter { return c.counter }

// Transaction returns the owning TransactionContext.
func (c AttemptContext) Transaction() TransactionContext {
	return TransactionContext{transactionID: c.transactionID, outputID: c.outputID, counter: c.counter}
}

func (c AttemptContext) String() string {
	return fmt.Sprintf("attempt(transaction=%s, id=%s, output=%s)", c.transactionID, c.attemptID, c.outputID)
}
