package directio

import (
	"context"

	"github.com/jmgilman/go/directio/pattern"
)

// ResourceInfo describes a resource found by List.
type ResourceInfo struct {
	// Path is the resource path as rendered by the data source.
	Path string `json:"path"`

	// Size is the size in bytes, or 0 for directories.
	Size int64 `json:"size"`

	IsDirectory bool `json:"directory"`
}

// InputProvider plans and opens input.
type InputProvider interface {
	// FindInputFragments returns fragments of every resource under basePath
	// matching p that the definition's filter accepts.
	FindInputFragments(ctx context.Context, def DataDefinition, basePath string, p *pattern.Pattern) ([]InputFragment, error)

	// OpenInput opens one fragment. Bytes read are added to counter.
	OpenInput(ctx context.Context, def DataDefinition, fragment InputFragment, counter *Counter) (ModelInput, error)
}

// OutputProvider creates output inside an attempt's private area.
type OutputProvider interface {
	// OpenOutput creates basePath/resourcePath in the attempt area. Bytes
	// written are added to counter.
	OpenOutput(ctx context.Context, attempt AttemptContext, def DataDefinition, basePath, resourcePath string, counter *Counter) (ModelOutput, error)
}

// ResourceManager lists and deletes final resources.
type ResourceManager interface {
	List(ctx context.Context, basePath string, p *pattern.Pattern, counter *Counter) ([]ResourceInfo, error)

	// Delete removes every resource under basePath matching p and reports
	// whether anything was deleted. Directories are only removed when
	// recursive is set.
	Delete(ctx context.Context, basePath string, p *pattern.Pattern, recursive bool, counter *Counter) (bool, error)
}

// OutputCommitter is the staged commit protocol. Attempt-scoped failures are
// retryable by re-running the attempt from SetupAttemptOutput. Transaction
// commit must be idempotent so that an interrupted commit can be rolled
// forward.
type OutputCommitter interface {
	SetupAttemptOutput(ctx context.Context, attempt AttemptContext) error
	CommitAttemptOutput(ctx context.Context, attempt AttemptContext) error
	CleanupAttemptOutput(ctx context.Context, attempt AttemptContext) error
	SetupTransactionOutput(ctx context.Context, tx TransactionContext) error
	CommitTransactionOutput(ctx context.Context, tx TransactionContext) error
	CleanupTransactionOutput(ctx context.Context, tx TransactionContext) error
}

// Describer renders paths for diagnostics and exposes optional capabilities.
type Describer interface {
	Path(basePath string) string
	PathPattern(basePath string, p *pattern.Pattern) string

	// FindProperty returns a capability by name, or false if unsupported.
	FindProperty(name string) (any, bool)
}

// DataSource is the contract every storage backend implements.
type DataSource interface {
	InputProvider
	OutputProvider
	ResourceManager
	OutputCommitter
	Describer
}
