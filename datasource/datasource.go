package datasource

import (
	"context"
	"fmt"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/core"
	"github.com/jmgilman/go/directio/internal/logging"
	"github.com/jmgilman/go/directio/pattern"
	"golang.org/x/sync/singleflight"
)

const (
	stagingArea = "staging"
	attemptArea = "attempts"
)

// Capability names understood by FindProperty.
const (
	PropertyFS      = "fs"
	PropertyProfile = "profile"
)

// DataSource is a data source over a filesystem.
type DataSource struct {
	profile Profile
	fs      core.FS
	logger  *logging.Logger

	// scratch holds attempt output when streaming is disabled.
	scratch    core.FS
	scratchDir string

	commits singleflight.Group
}

// Option configures a DataSource.
type Option func(*DataSource)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *DataSource) {
		d.logger = l
	}
}

// WithScratch sets the local filesystem and directory attempts write to when
// output streaming is disabled.
func WithScratch(fsys core.FS, dir string) Option {
	return func(d *DataSource) {
		d.scratch = fsys
		d.scratchDir = directio.NormalizePath(dir)
	}
}

// New creates a data source over fsys.
func New(profile Profile, fsys core.FS, opts ...Option) *DataSource {
	d := &DataSource{profile: profile, fs: fsys}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrNop(d.logger).WithBackend(profile.ID)
	return d
}

// Profile returns the data source configuration.
func (d *DataSource) Profile() Profile {
	return d.profile
}

func (d *DataSource) base(basePath string) string {
	return directio.JoinPath(d.profile.Root, basePath)
}

// visible reports whether a search hit may be exposed to callers. The root
// itself and the temporary area are hidden.
func (d *DataSource) visible(e entry) bool {
	return e.path != d.profile.Root &&
		e.path != d.profile.TempDir &&
		!contains(d.profile.TempDir, e.path)
}

// FindInputFragments implements directio.InputProvider.
func (d *DataSource) FindInputFragments(
	ctx context.Context,
	def directio.DataDefinition,
	basePath string,
	p *pattern.Pattern,
) ([]directio.InputFragment, error) {
	log := d.logger.WithOperation("find_input")
	if def.Format == nil {
		return nil, errors.New(errors.CodeInvalidInput, "data definition has no format")
	}
	entries, err := search(ctx, d.fs, d.base(basePath), p)
	if err != nil {
		return nil, d.fail(ctx, log, err, "failed to search input", "base_path", basePath, "pattern", p.String())
	}

	minSize, prefSize := d.profile.FragmentSizes(def.Format)
	computer := FragmentComputer{
		MinimumSize:   minSize,
		PreferredSize: prefSize,
		SplitBlocks:   d.profile.SplitBlocks,
		CombineBlocks: d.profile.CombineBlocks,
	}
	locator, _ := d.fs.(core.BlockLocator)

	var fragments []directio.InputFragment
	for _, e := range entries {
		if e.isDir() || !d.visible(e) {
			continue
		}
		if def.Filter != nil && !def.Filter.AcceptsPath(e.path) {
			log.Debug(ctx, "input rejected by filter", "path", e.path)
			continue
		}
		var blocks []core.BlockLocation
		if locator != nil {
			if blocks, err = locator.BlockLocations(e.path); err != nil {
				return nil, d.fail(ctx, log, errors.Wrapf(err, errors.CodeIO, "failed to locate blocks of %q", e.path), "failed to plan input")
			}
		}
		split, err := computer.Compute(e.path, e.info.Size(), blocks)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, split...)
	}
	log.Debug(ctx, "found input", "base_path", basePath, "pattern", p.String(), "fragments", len(fragments))
	return fragments, nil
}

// OpenInput implements directio.InputProvider.
func (d *DataSource) OpenInput(
	ctx context.Context,
	def directio.DataDefinition,
	fragment directio.InputFragment,
	counter *directio.Counter,
) (directio.ModelInput, error) {
	if err := errors.CheckContext(ctx, "open input"); err != nil {
		return nil, err
	}
	format, ok := def.StreamFormat()
	if !ok {
		return nil, errors.Newf(errors.CodeUnsupported, "format of %q is not a stream format", def.ModelType)
	}
	f, err := d.fs.Open(fragment.Path())
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to open input"), "path", fragment.Path())
	}
	if err := seekTo(f, fragment.Offset()); err != nil {
		_ = f.Close()
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to seek input"), "path", fragment.Path())
	}
	in, err := format.NewInput(&countingReader{r: f, counter: counter}, fragment.Path(), fragment.Offset(), fragment.Length())
	if err != nil {
		_ = f.Close()
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to decode input"), "path", fragment.Path())
	}
	return directio.NewFilteredInput(&input{ModelInput: in, file: f}, def.Filter), nil
}

// OpenOutput implements directio.OutputProvider.
func (d *DataSource) OpenOutput(
	ctx context.Context,
	attempt directio.AttemptContext,
	def directio.DataDefinition,
	basePath, resourcePath string,
	counter *directio.Counter,
) (directio.ModelOutput, error) {
	if err := errors.CheckContext(ctx, "open output"); err != nil {
		return nil, err
	}
	format, ok := def.StreamFormat()
	if !ok {
		return nil, errors.Newf(errors.CodeUnsupported, "format of %q is not a stream format", def.ModelType)
	}
	if directio.NormalizePath(resourcePath) == "" {
		return nil, errors.New(errors.CodeInvalidInput, "resource path is empty")
	}

	fsys, area := d.attemptArea(attempt)
	name := directio.JoinPath(area, basePath, resourcePath)
	log := d.logger.WithAttempt(attempt.TransactionID(), attempt.AttemptID(), attempt.OutputID())
	log.Debug(ctx, "opening output", "base_path", basePath, "resource", resourcePath, "file", name)

	f, err := fsys.Create(name)
	if err != nil {
		return nil, d.fail(ctx, log, errors.Wrap(err, errors.CodeIO, "failed to create output"), "failed to open output", "file", name)
	}
	out, err := format.NewOutput(&countingWriter{w: f, counter: counter}, name)
	if err != nil {
		_ = f.Close()
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to encode output"), "file", name)
	}
	return &output{ModelOutput: out, file: f}, nil
}

// List implements directio.ResourceManager.
func (d *DataSource) List(
	ctx context.Context,
	basePath string,
	p *pattern.Pattern,
	counter *directio.Counter,
) ([]directio.ResourceInfo, error) {
	log := d.logger.WithOperation("list")
	entries, err := search(ctx, d.fs, d.base(basePath), p)
	if err != nil {
		return nil, d.fail(ctx, log, err, "failed to list", "base_path", basePath, "pattern", p.String())
	}
	var out []directio.ResourceInfo
	for _, e := range entries {
		if !d.visible(e) {
			continue
		}
		counter.Add(1)
		info := directio.ResourceInfo{Path: e.path, IsDirectory: e.isDir()}
		if !info.IsDirectory {
			info.Size = e.info.Size()
		}
		out = append(out, info)
	}
	return out, nil
}

// Delete implements directio.ResourceManager.
func (d *DataSource) Delete(
	ctx context.Context,
	basePath string,
	p *pattern.Pattern,
	recursive bool,
	counter *directio.Counter,
) (bool, error) {
	log := d.logger.WithOperation("delete")
	entries, err := search(ctx, d.fs, d.base(basePath), p)
	if err != nil {
		return false, d.fail(ctx, log, err, "failed to search", "base_path", basePath, "pattern", p.String())
	}
	var targets []entry
	for _, e := range entries {
		if d.visible(e) {
			targets = append(targets, e)
		}
	}
	if recursive {
		targets = minimalCover(targets)
	}

	deleted := false
	for _, e := range targets {
		if err := errors.CheckContext(ctx, "delete"); err != nil {
			return deleted, err
		}
		if e.isDir() && !recursive {
			log.Debug(ctx, "skip deleting directory", "path", e.path)
			continue
		}
		if e.isDir() {
			err = d.fs.RemoveAll(e.path)
		} else {
			err = d.fs.Remove(e.path)
		}
		if err != nil {
			return deleted, d.fail(ctx, log, errors.Wrap(err, errors.CodeIO, "failed to delete"), "failed to delete", "path", e.path)
		}
		counter.Add(1)
		deleted = true
	}
	log.Debug(ctx, "deleted", "base_path", basePath, "pattern", p.String(), "count", len(targets), "recursive", recursive)
	return deleted, nil
}

func (d *DataSource) temporaryArea(tx directio.TransactionContext) string {
	return directio.JoinPath(d.profile.TempDir, tx.TransactionID()+"-"+tx.OutputID())
}

func (d *DataSource) stagingArea(tx directio.TransactionContext) string {
	return directio.JoinPath(d.temporaryArea(tx), stagingArea)
}

// attemptArea returns the filesystem and directory attempt output goes to.
func (d *DataSource) attemptArea(attempt directio.AttemptContext) (core.FS, string) {
	if d.localAttemptOutput() {
		name := fmt.Sprintf("%s-%s-%s", attempt.TransactionID(), attempt.AttemptID(), attempt.OutputID())
		return d.scratch, directio.JoinPath(d.scratchDir, name)
	}
	return d.fs, directio.JoinPath(d.temporaryArea(attempt.Transaction()), attemptArea, attempt.AttemptID())
}

func (d *DataSource) localAttemptOutput() bool {
	return !d.profile.OutputStreaming && d.scratch != nil
}

// SetupAttemptOutput implements directio.OutputCommitter.
func (d *DataSource) SetupAttemptOutput(ctx context.Context, attempt directio.AttemptContext) error {
	log := d.logger.WithAttempt(attempt.TransactionID(), attempt.AttemptID(), attempt.OutputID())
	if err := errors.CheckContext(ctx, "setup attempt"); err != nil {
		return d.fail(ctx, log, err, "attempt setup interrupted")
	}
	if err := d.checkOutput(ctx, log, attempt.OutputID()); err != nil {
		return err
	}
	if !d.profile.OutputStreaming && d.scratch == nil {
		return d.fail(ctx, log, errors.Newf(errors.CodeInvalidConfig,
			"output streaming is disabled but no local scratch space is configured for %q", d.profile.ID),
			"failed to setup attempt")
	}
	fsys, area := d.attemptArea(attempt)
	log.Debug(ctx, "creating attempt area", "path", area)
	if err := fsys.MkdirAll(area, 0o755); err != nil {
		return d.fail(ctx, log, errors.Wrap(err, errors.CodeIO, "failed to create attempt area"), "failed to setup attempt", "path", area)
	}
	return nil
}

// CommitAttemptOutput implements directio.OutputCommitter.
func (d *DataSource) CommitAttemptOutput(ctx context.Context, attempt directio.AttemptContext) error {
	log := d.logger.WithAttempt(attempt.TransactionID(), attempt.AttemptID(), attempt.OutputID())
	if err := d.checkOutput(ctx, log, attempt.OutputID()); err != nil {
		return err
	}
	target := d.profile.Root
	if d.profile.OutputStaging {
		target = d.stagingArea(attempt.Transaction())
	}
	fsys, area := d.attemptArea(attempt)
	log.Debug(ctx, "committing attempt area", "path", area, "target", target, "staging", d.profile.OutputStaging)

	m := mover{src: fsys, dst: d.fs, counter: attempt.Counter(), logger: log}
	if err := m.move(ctx, area, target); err != nil {
		return d.fail(ctx, log, err, "failed to commit attempt", "path", area)
	}
	return nil
}

// CleanupAttemptOutput implements directio.OutputCommitter.
func (d *DataSource) CleanupAttemptOutput(ctx context.Context, attempt directio.AttemptContext) error {
	log := d.logger.WithAttempt(attempt.TransactionID(), attempt.AttemptID(), attempt.OutputID())
	fsys, area := d.attemptArea(attempt)
	log.Debug(ctx, "deleting attempt area", "path", area)
	if err := fsys.RemoveAll(area); err != nil {
		return d.fail(ctx, log, errors.Wrap(err, errors.CodeIO, "failed to delete attempt area"), "failed to cleanup attempt", "path", area)
	}
	return nil
}

// SetupTransactionOutput implements directio.OutputCommitter.
func (d *DataSource) SetupTransactionOutput(ctx context.Context, tx directio.TransactionContext) error {
	log := d.logger.WithTransaction(tx.TransactionID(), tx.OutputID())
	if err := errors.CheckContext(ctx, "setup transaction"); err != nil {
		return d.fail(ctx, log, err, "transaction setup interrupted")
	}
	if err := d.checkOutput(ctx, log, tx.OutputID()); err != nil {
		return err
	}
	if !d.profile.OutputStaging {
		return nil
	}
	staging := d.stagingArea(tx)
	log.Debug(ctx, "creating staging area", "path", staging)
	if err := d.fs.MkdirAll(staging, 0o755); err != nil {
		return d.fail(ctx, log, errors.Wrap(err, errors.CodeTransaction, "failed to create staging area"), "failed to setup transaction", "path", staging)
	}
	return nil
}

// CommitTransactionOutput implements directio.OutputCommitter. Concurrent
// calls for the same transaction share one move.
func (d *DataSource) CommitTransactionOutput(ctx context.Context, tx directio.TransactionContext) error {
	log := d.logger.WithTransaction(tx.TransactionID(), tx.OutputID())
	if err := d.checkOutput(ctx, log, tx.OutputID()); err != nil {
		return err
	}
	if !d.profile.OutputStaging {
		return nil
	}
	staging := d.stagingArea(tx)
	_, err, shared := d.commits.Do(staging, func() (interface{}, error) {
		log.Debug(ctx, "committing staging area", "path", staging)
		m := mover{src: d.fs, dst: d.fs, counter: tx.Counter(), logger: log}
		return nil, m.move(ctx, staging, d.profile.Root)
	})
	if err != nil {
		if !errors.IsInterrupted(err) {
			err = errors.Wrap(err, errors.CodeTransaction, "failed to commit staging area")
		}
		return d.fail(ctx, log, err, "failed to commit transaction", "path", staging, "shared", shared)
	}
	return nil
}

// CleanupTransactionOutput implements directio.OutputCommitter. A missing
// temporary area is not an error.
func (d *DataSource) CleanupTransactionOutput(ctx context.Context, tx directio.TransactionContext) error {
	log := d.logger.WithTransaction(tx.TransactionID(), tx.OutputID())
	area := d.temporaryArea(tx)
	log.Debug(ctx, "deleting temporary area", "path", area)
	if err := d.fs.RemoveAll(area); err != nil {
		return d.fail(ctx, log, errors.Wrap(err, errors.CodeTransaction, "failed to delete temporary area"), "failed to cleanup transaction", "path", area)
	}
	return nil
}

// Path implements directio.Describer.
func (d *DataSource) Path(basePath string) string {
	return fmt.Sprintf("%s:/%s", d.fs.Type(), d.base(basePath))
}

// PathPattern implements directio.Describer.
func (d *DataSource) PathPattern(basePath string, p *pattern.Pattern) string {
	return d.Path(basePath) + "/" + p.String()
}

// FindProperty implements directio.Describer.
func (d *DataSource) FindProperty(name string) (any, bool) {
	switch name {
	case PropertyFS:
		return d.fs, true
	case PropertyProfile:
		return d.profile, true
	}
	return nil, false
}

// checkOutput rejects contexts of another output. Temporary areas are keyed
// by output id and transaction commit only visits the data source's own, so
// output staged under a foreign id would never be published.
func (d *DataSource) checkOutput(ctx context.Context, log *logging.Logger, outputID string) error {
	if outputID == d.profile.ID {
		return nil
	}
	err := errors.WithContext(
		errors.Newf(errors.CodeInvalidInput, "output %q does not belong to data source %q", outputID, d.profile.ID),
		"output_id", outputID,
	)
	return d.fail(ctx, log, err, "rejected output")
}

// fail logs err with the caller's correlation attributes and returns it
// tagged with the data source id.
func (d *DataSource) fail(ctx context.Context, log *logging.Logger, err error, msg string, args ...any) error {
	log.Error(ctx, msg, append(args, "error", err)...)
	return errors.WithContext(err, "datasource", d.profile.ID)
}

var _ directio.DataSource = (*DataSource)(nil)
