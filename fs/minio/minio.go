package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/jmgilman/go/directio/fs/core"
	"github.com/jmgilman/go/directio/fs/minio/internal/errs"
	"github.com/jmgilman/go/directio/fs/minio/internal/pathutil"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMultipartThreshold = 5 * 1024 * 1024
	defaultRenameConcurrency  = 10
)

// FS is an object store filesystem.
type FS struct {
	client             *minio.Client
	bucket             string
	prefix             string
	multipartThreshold int64
	renameConcurrency  int
}

// New creates an FS from cfg.
func New(cfg Config) (*FS, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	m := &FS{
		client:             client,
		bucket:             cfg.Bucket,
		prefix:             pathutil.Normalize(cfg.Prefix),
		multipartThreshold: cfg.MultipartThreshold,
		renameConcurrency:  cfg.RenameConcurrency,
	}
	if m.multipartThreshold <= 0 {
		m.multipartThreshold = defaultMultipartThreshold
	}
	if m.renameConcurrency <= 0 {
		m.renameConcurrency = defaultRenameConcurrency
	}
	return m, nil
}

// Type reports FSTypeRemote.
func (m *FS) Type() core.FSType {
	return core.FSTypeRemote
}

func (m *FS) key(name string) string {
	return pathutil.JoinPath(m.prefix, name)
}

// Open opens an object for reading. The returned file supports Seek.
func (m *FS) Open(name string) (fs.File, error) {
	ctx := context.Background()
	key := m.key(name)
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errs.PathError("open", name, errs.Translate(err))
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, errs.PathError("open", name, errs.Translate(err))
	}
	return &reader{obj: obj, name: pathutil.Normalize(name), info: info}, nil
}

// Stat returns object information. A key prefix shared by other objects is
// reported as a directory.
func (m *FS) Stat(name string) (fs.FileInfo, error) {
	ctx := context.Background()
	name = pathutil.Normalize(name)
	key := m.key(name)

	if name != "" {
		info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return &fileInfo{name: path.Base(name), size: info.Size, modTime: info.LastModified}, nil
		}
		if translated := errs.Translate(err); !core.IsNotExist(translated) {
			return nil, errs.PathError("stat", name, translated)
		}
	}

	exists, err := m.hasChildren(ctx, key)
	if err != nil {
		return nil, errs.PathError("stat", name, err)
	}
	if !exists && name != "" {
		return nil, errs.PathError("stat", name, fs.ErrNotExist)
	}
	return &fileInfo{name: path.Base(orDot(name)), dir: true}, nil
}

func (m *FS) hasChildren(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:  pathutil.DirPrefix(key),
		MaxKeys: 1,
	}) {
		if object.Err != nil {
			return false, errs.Translate(object.Err)
		}
		return true, nil
	}
	return false, nil
}

// ReadDir lists the direct children of a directory, sorted by name.
func (m *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	ctx := context.Background()
	name = pathutil.Normalize(name)
	prefix := pathutil.DirPrefix(m.key(name))

	var entries []fs.DirEntry
	seen := map[string]bool{}
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if object.Err != nil {
			return nil, errs.PathError("readdir", name, errs.Translate(object.Err))
		}
		child, nested := pathutil.Child(prefix, object.Key)
		if child == "" || seen[child] {
			continue
		}
		seen[child] = true
		entries = append(entries, &dirEntry{info: &fileInfo{
			name:    child,
			size:    object.Size,
			modTime: object.LastModified,
			dir:     nested,
		}})
	}
	if len(entries) == 0 && name != "" {
		if _, err := m.Stat(name); err != nil {
			return nil, errs.PathError("readdir", name, fs.ErrNotExist)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *FS) ReadFile(name string) ([]byte, error) {
	f, err := m.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errs.PathError("readfile", name, err)
	}
	return data, nil
}

func (m *FS) Exists(name string) (bool, error) {
	_, err := m.Stat(name)
	if err == nil {
		return true, nil
	}
	if core.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Create returns a writer that uploads the object on Close.
func (m *FS) Create(name string) (core.File, error) {
	name = pathutil.Normalize(name)
	if name == "" {
		return nil, errs.PathError("create", name, fs.ErrInvalid)
	}
	return newWriter(m, m.key(name), name), nil
}

func (m *FS) WriteFile(name string, data []byte, _ fs.FileMode) error {
	f, err := m.Create(name)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errs.PathError("writefile", name, err)
	}
	return f.Close()
}

// MkdirAll is a no-op; directories exist implicitly.
func (m *FS) MkdirAll(string, fs.FileMode) error {
	return nil
}

func (m *FS) Remove(name string) error {
	err := m.client.RemoveObject(context.Background(), m.bucket, m.key(name), minio.RemoveObjectOptions{})
	return errs.PathError("remove", name, errs.Translate(err))
}

// RemoveAll removes the object at name and every object below it.
func (m *FS) RemoveAll(name string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	name = pathutil.Normalize(name)
	key := m.key(name)

	if name != "" {
		if err := core.IgnoreNotExist(m.Remove(name)); err != nil {
			return err
		}
	}

	objects := make(chan minio.ObjectInfo, 100)
	var listErr error
	go func() {
		defer close(objects)
		for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
			Prefix:    pathutil.DirPrefix(key),
			Recursive: true,
		}) {
			if object.Err != nil {
				listErr = object.Err
				return
			}
			objects <- object
		}
	}()

	var firstErr error
	for result := range m.client.RemoveObjects(ctx, m.bucket, objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil && firstErr == nil {
			firstErr = result.Err
		}
	}
	if listErr != nil {
		return errs.PathError("removeall", name, errs.Translate(listErr))
	}
	return errs.PathError("removeall", name, errs.Translate(firstErr))
}

// Rename moves an object, or every object below a directory, by copying and
// then deleting the source.
func (m *FS) Rename(oldpath, newpath string) error {
	ctx := context.Background()
	oldKey, newKey := m.key(oldpath), m.key(newpath)

	if _, err := m.client.StatObject(ctx, m.bucket, oldKey, minio.StatObjectOptions{}); err == nil {
		return errs.PathError("rename", oldpath, m.moveObject(ctx, oldKey, newKey))
	}

	copied, err := m.copyTree(ctx, pathutil.DirPrefix(oldKey), pathutil.DirPrefix(newKey))
	if err != nil {
		return errs.PathError("rename", oldpath, errs.Translate(err))
	}
	if len(copied) == 0 {
		return errs.PathError("rename", oldpath, fs.ErrNotExist)
	}

	objects := make(chan minio.ObjectInfo, len(copied))
	for _, key := range copied {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)
	for result := range m.client.RemoveObjects(ctx, m.bucket, objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			return errs.PathError("rename", oldpath, errs.Translate(result.Err))
		}
	}
	return nil
}

func (m *FS) moveObject(ctx context.Context, oldKey, newKey string) error {
	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: newKey},
		minio.CopySrcOptions{Bucket: m.bucket, Object: oldKey},
	)
	if err != nil {
		return errs.Translate(err)
	}
	return errs.Translate(m.client.RemoveObject(ctx, m.bucket, oldKey, minio.RemoveObjectOptions{}))
}

// copyTree copies every object below oldPrefix to newPrefix with bounded
// parallelism and returns the copied source keys.
func (m *FS) copyTree(ctx context.Context, oldPrefix, newPrefix string) ([]string, error) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(m.renameConcurrency)

	var mu sync.Mutex
	var copied []string
	for object := range m.client.ListObjects(egCtx, m.bucket, minio.ListObjectsOptions{
		Prefix:    oldPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			_ = eg.Wait()
			return nil, object.Err
		}
		src := object.Key
		eg.Go(func() error {
			dst := newPrefix + src[len(oldPrefix):]
			_, err := m.client.CopyObject(egCtx,
				minio.CopyDestOptions{Bucket: m.bucket, Object: dst},
				minio.CopySrcOptions{Bucket: m.bucket, Object: src},
			)
			if err != nil {
				return fmt.Errorf("copy %s to %s: %w", src, dst, err)
			}
			mu.Lock()
			copied = append(copied, src)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return copied, nil
}

// Walk walks the tree below root in lexical order.
func (m *FS) Walk(root string, walkFn fs.WalkDirFunc) error {
	root = pathutil.Normalize(root)
	info, err := m.Stat(root)
	if err != nil {
		err = walkFn(orDot(root), nil, err)
	} else {
		fi, _ := info.(*fileInfo)
		err = m.walk(root, &dirEntry{info: fi}, walkFn)
	}
	if errors.Is(err, fs.SkipDir) || errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func (m *FS) walk(name string, d fs.DirEntry, walkFn fs.WalkDirFunc) error {
	if err := walkFn(orDot(name), d, nil); err != nil || !d.IsDir() {
		if errors.Is(err, fs.SkipDir) && d.IsDir() {
			err = nil
		}
		return err
	}
	entries, err := m.ReadDir(name)
	if err != nil {
		if err := walkFn(orDot(name), d, err); err != nil {
			return err
		}
	}
	for _, entry := range entries {
		if err := m.walk(path.Join(name, entry.Name()), entry, walkFn); err != nil {
			if errors.Is(err, fs.SkipDir) {
				continue
			}
			return err
		}
	}
	return nil
}

func orDot(name string) string {
	if name == "" {
		return "."
	}
	return name
}

// reader is a read-only object handle.
type reader struct {
	obj  *minio.Object
	name string
	info minio.ObjectInfo
}

func (r *reader) Read(p []byte) (int, error) {
	n, err := r.obj.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, errs.PathError("read", r.name, errs.Translate(err))
	}
	return n, err
}

// Seek repositions the read offset; the next Read issues a ranged request.
func (r *reader) Seek(offset int64, whence int) (int64, error) {
	return r.obj.Seek(offset, whence)
}

func (r *reader) Close() error {
	return r.obj.Close()
}

func (r *reader) Stat() (fs.FileInfo, error) {
	return &fileInfo{name: path.Base(r.name), size: r.info.Size, modTime: r.info.LastModified}, nil
}

// writer buffers small objects and streams large ones through a pipe.
type writer struct {
	fs      *FS
	key     string
	name    string
	buf     []byte
	pipe    *io.PipeWriter
	result  chan error
	written int64
	closed  bool
}

func newWriter(m *FS, key, name string) *writer {
	return &writer{fs: m, key: key, name: name}
}

func (w *writer) Name() string { return w.name }

func (w *writer) Read([]byte) (int, error) {
	return 0, errs.PathError("read", w.name, fs.ErrInvalid)
}

func (w *writer) Stat() (fs.FileInfo, error) {
	return &fileInfo{name: path.Base(w.name), size: w.written, modTime: time.Now()}, nil
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errs.PathError("write", w.name, fs.ErrClosed)
	}
	if w.pipe == nil && int64(len(w.buf)+len(p)) > w.fs.multipartThreshold {
		w.startStreaming()
	}
	if w.pipe == nil {
		w.buf = append(w.buf, p...)
		w.written += int64(len(p))
		return len(p), nil
	}
	n, err := w.pipe.Write(p)
	w.written += int64(n)
	if err != nil {
		return n, errs.PathError("write", w.name, err)
	}
	return n, nil
}

func (w *writer) startStreaming() {
	pr, pw := io.Pipe()
	w.pipe = pw
	w.result = make(chan error, 1)
	go func() {
		_, err := w.fs.client.PutObject(context.Background(), w.fs.bucket, w.key, pr, -1,
			minio.PutObjectOptions{ContentType: "application/octet-stream"})
		_ = pr.CloseWithError(err)
		w.result <- errs.Translate(err)
	}()
	if len(w.buf) > 0 {
		buffered := w.buf
		w.buf = nil
		if _, err := pw.Write(buffered); err != nil {
			_ = pw.CloseWithError(err)
		}
	}
}

// Close completes the upload.
func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.pipe != nil {
		_ = w.pipe.Close()
		return errs.PathError("close", w.name, <-w.result)
	}
	_, err := w.fs.client.PutObject(context.Background(), w.fs.bucket, w.key,
		bytes.NewReader(w.buf), int64(len(w.buf)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return errs.PathError("close", w.name, errs.Translate(err))
}

var (
	_ core.FS   = (*FS)(nil)
	_ core.File = (*writer)(nil)
	_ io.Seeker = (*reader)(nil)
)
