package core

import (
	"context"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// CopyFile copies srcName from src to dstName in dst and returns the number
// of bytes copied. Parent directories of dstName are created.
func CopyFile(ctx context.Context, src ReadFS, srcName string, dst WriteFS, dstName string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	in, err := src.Open(srcName)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if dir := path.Dir(dstName); dir != "." && dir != "" {
		if err := dst.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	out, err := dst.Create(dstName)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, err
	}
	if s, ok := out.(Syncer); ok {
		if err := s.Sync(); err != nil {
			_ = out.Close()
			return n, err
		}
	}
	return n, out.Close()
}

// ListFiles returns the paths of every regular file under root, relative to
// root and sorted. A missing root yields fs.ErrNotExist.
func ListFiles(fsys WalkFS, root string) ([]string, error) {
	var files []string
	root = strings.Trim(root, "/")
	prefix := root + "/"
	if root == "" || root == "." {
		root, prefix = ".", ""
	}
	err := fsys.Walk(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, strings.TrimPrefix(p, prefix))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
