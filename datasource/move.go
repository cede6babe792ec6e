package datasource

import (
	"context"
	"io/fs"
	"path"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/core"
	"github.com/jmgilman/go/directio/internal/logging"
)

// mover moves every file of a source tree into a target tree. Files already
// present in the target are replaced. A missing source is not an error, so a
// move interrupted after its last rename can be repeated safely.
type mover struct {
	src     core.FS
	dst     core.FS
	counter *directio.Counter
	logger  *logging.Logger
}

func (m mover) move(ctx context.Context, from, to string) error {
	files, err := core.ListFiles(m.src, from)
	if core.IsNotExist(err) {
		m.logger.Debug(ctx, "source is missing, may be already moved", "from", from)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, errors.CodeIO, "failed to list %q", from)
	}

	m.logger.Debug(ctx, "moving files", "from", from, "to", to, "count", len(files))
	created := map[string]bool{}
	for _, rel := range files {
		if err := errors.CheckContext(ctx, "move"); err != nil {
			return err
		}
		source, target := joinFS(from, rel), joinFS(to, rel)

		info, err := m.dst.Stat(target)
		switch {
		case err == nil:
			if err := m.removeTarget(target, info); err != nil {
				return err
			}
		case core.IsNotExist(err):
			parent := path.Dir(target)
			if parent != "." && !created[parent] {
				if err := m.dst.MkdirAll(parent, 0o755); err != nil {
					return errors.Wrapf(err, errors.CodeIO, "failed to create %q", parent)
				}
				created[parent] = true
			}
		default:
			return errors.Wrapf(err, errors.CodeIO, "failed to stat %q", target)
		}

		if err := m.transfer(ctx, source, target); err != nil {
			return errors.WithContextMap(err, map[string]interface{}{"from": source, "to": target})
		}
		m.counter.Add(1)
	}
	return nil
}

func (m mover) removeTarget(target string, info fs.FileInfo) error {
	var err error
	if info.IsDir() {
		err = m.dst.RemoveAll(target)
	} else {
		err = m.dst.Remove(target)
	}
	if err != nil && !core.IsNotExist(err) {
		return errors.Wrapf(err, errors.CodeIO, "failed to replace %q", target)
	}
	return nil
}

// transfer renames within one filesystem and copies then deletes across
// filesystems.
func (m mover) transfer(ctx context.Context, source, target string) error {
	if m.src == m.dst {
		if err := m.dst.Rename(source, target); err != nil {
			return errors.Wrap(err, errors.CodeIO, "failed to rename file")
		}
		return nil
	}
	if _, err := core.CopyFile(ctx, m.src, source, m.dst, target); err != nil {
		if errors.IsInterrupted(err) {
			return errors.Interrupted(err, "copy interrupted")
		}
		return errors.Wrap(err, errors.CodeIO, "failed to copy file")
	}
	if err := m.src.Remove(source); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to remove copied file")
	}
	return nil
}
