package transaction

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/core"
)

const (
	transactionDir = "transactions"
	infoPrefix     = "tx-"
	markPrefix     = "commit-"
)

// Info labels lines of a transaction info file.
const (
	labelUser        = "User Name"
	labelBatchID     = "Batch ID"
	labelFlowID      = "Flow ID"
	labelExecutionID = "Execution ID"
	labelArguments   = "Batch Arguments"
)

// Info describes the job that owns a transaction.
type Info struct {
	ExecutionID string
	User        string
	BatchID     string
	FlowID      string

	// Arguments are the batch arguments. They also resolve variables in
	// delete patterns.
	Arguments map[string]string
}

// Record is a persisted transaction.
type Record struct {
	Info

	// Timestamp is when the transaction began.
	Timestamp time.Time

	// Committed is set once the commit mark exists; the transaction must
	// then be rolled forward rather than aborted.
	Committed bool

	// Comment holds the raw lines of the info file.
	Comment []string
}

// Store persists transaction info files and commit marks below a system
// directory:
//
//	<root>/transactions/tx-<execution id>       info
//	<root>/transactions/commit-<execution id>   commit mark
type Store struct {
	fs   core.FS
	root string
}

// NewStore creates a Store rooted at root inside fsys.
func NewStore(fsys core.FS, root string) *Store {
	return &Store{fs: fsys, root: path.Join(root, transactionDir)}
}

func (s *Store) infoPath(id string) string { return path.Join(s.root, infoPrefix+id) }
func (s *Store) markPath(id string) string { return path.Join(s.root, markPrefix+id) }

// ValidateID checks that id is usable as an execution id.
func ValidateID(id string) error {
	if id == "" || strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "invalid execution id %q", id),
			"execution_id", id,
		)
	}
	return nil
}

// Create writes the info file of a new transaction. It fails with
// CodeAlreadyExists if the transaction is already recorded.
func (s *Store) Create(ctx context.Context, info Info) error {
	if err := ValidateID(info.ExecutionID); err != nil {
		return err
	}
	if err := errors.CheckContext(ctx, "create transaction"); err != nil {
		return err
	}
	name := s.infoPath(info.ExecutionID)
	ok, err := s.fs.Exists(name)
	if err != nil {
		return errors.Wrapf(err, errors.CodeIO, "failed to check %q", name)
	}
	if ok {
		return errors.WithContext(
			errors.Newf(errors.CodeAlreadyExists, "transaction %q already exists", info.ExecutionID),
			"execution_id", info.ExecutionID,
		)
	}
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return errors.Wrapf(err, errors.CodeIO, "failed to create %q", s.root)
	}
	if err := s.fs.WriteFile(name, encodeInfo(info), 0o644); err != nil {
		return errors.Wrapf(err, errors.CodeIO, "failed to write %q", name)
	}
	return nil
}

// Get reads one transaction. It fails with CodeNotFound if there is no info
// file.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	if err := errors.CheckContext(ctx, "get transaction"); err != nil {
		return Record{}, err
	}
	stat, err := s.fs.Stat(s.infoPath(id))
	if core.IsNotExist(err) {
		return Record{}, errors.WithContext(
			errors.Newf(errors.CodeNotFound, "transaction %q not found", id),
			"execution_id", id,
		)
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, errors.CodeIO, "failed to stat transaction %q", id)
	}
	return s.read(id, stat.ModTime())
}

func (s *Store) read(id string, modTime time.Time) (Record, error) {
	committed, err := s.IsCommitted(id)
	if err != nil {
		return Record{}, err
	}
	r := Record{Info: Info{ExecutionID: id}, Timestamp: modTime, Committed: committed}
	data, err := s.fs.ReadFile(s.infoPath(id))
	if err != nil {
		// An unreadable info file still identifies the transaction.
		r.Comment = []string{err.Error()}
		return r, nil
	}
	r.Comment = decodeInfo(data, &r.Info)
	r.ExecutionID = id
	return r, nil
}

// List returns every recorded transaction ordered by start time.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	entries, err := s.fs.ReadDir(s.root)
	if core.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeIO, "failed to list %q", s.root)
	}
	var records []Record
	for _, e := range entries {
		id, ok := strings.CutPrefix(e.Name(), infoPrefix)
		if !ok || e.IsDir() || ValidateID(id) != nil {
			continue
		}
		if err := errors.CheckContext(ctx, "list transactions"); err != nil {
			return nil, err
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		r, err := s.read(id, info.ModTime())
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].ExecutionID < records[j].ExecutionID
	})
	return records, nil
}

// Exists reports whether the transaction has an info file.
func (s *Store) Exists(id string) (bool, error) {
	ok, err := s.fs.Exists(s.infoPath(id))
	if err != nil {
		return false, errors.Wrapf(err, errors.CodeIO, "failed to check transaction %q", id)
	}
	return ok, nil
}

// IsCommitted reports whether the commit mark exists.
func (s *Store) IsCommitted(id string) (bool, error) {
	ok, err := s.fs.Exists(s.markPath(id))
	if err != nil {
		return false, errors.Wrapf(err, errors.CodeIO, "failed to check commit mark of %q", id)
	}
	return ok, nil
}

// Mark writes the zero-byte commit mark.
func (s *Store) Mark(id string) error {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return errors.Wrapf(err, errors.CodeIO, "failed to create %q", s.root)
	}
	if err := s.fs.WriteFile(s.markPath(id), nil, 0o644); err != nil {
		return errors.Wrapf(err, errors.CodeIO, "failed to write commit mark of %q", id)
	}
	return nil
}

// Unmark removes the commit mark. A missing mark is not an error.
func (s *Store) Unmark(id string) error {
	return s.remove(s.markPath(id), "commit mark")
}

// Delete removes the info file. A missing file is not an error.
func (s *Store) Delete(id string) error {
	return s.remove(s.infoPath(id), "transaction info")
}

func (s *Store) remove(name, what string) error {
	if err := core.IgnoreNotExist(s.fs.Remove(name)); err != nil {
		return errors.Wrapf(err, errors.CodeIO, "failed to delete %s %q", what, name)
	}
	return nil
}

func encodeInfo(info Info) []byte {
	labels := []string{labelUser, labelBatchID, labelFlowID, labelExecutionID, labelArguments}
	values := []string{quote(info.User), quote(info.BatchID), quote(info.FlowID), quote(info.ExecutionID), encodeArguments(info.Arguments)}
	width := 0
	for _, l := range labels {
		width = max(width, len(l))
	}
	var buf bytes.Buffer
	for i, l := range labels {
		fmt.Fprintf(&buf, "%*s: %s\n", width, l, values[i])
	}
	return buf.Bytes()
}

// decodeInfo fills info from the labeled lines it recognizes and returns
// every line.
func decodeInfo(data []byte, info *Info) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimPrefix(value, " ")
		switch strings.TrimSpace(label) {
		case labelUser:
			info.User = unquote(value)
		case labelBatchID:
			info.BatchID = unquote(value)
		case labelFlowID:
			info.FlowID = unquote(value)
		case labelExecutionID:
			info.ExecutionID = unquote(value)
		case labelArguments:
			info.Arguments = decodeArguments(value)
		}
	}
	return lines
}

// encodeArguments renders arguments as sorted key=value pairs separated by
// commas. Keys and values are quoted when they contain a separator.
func encodeArguments(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = quote(k) + "=" + quote(args[k])
	}
	return strings.Join(pairs, ",")
}

func decodeArguments(s string) map[string]string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	args := map[string]string{}
	for s != "" {
		k, rest := token(s)
		var v string
		if strings.HasPrefix(rest, "=") {
			v, rest = token(rest[1:])
		}
		if k = strings.TrimSpace(k); k != "" {
			args[k] = v
		}
		// Skip anything up to the next pair, such as garbage after a
		// quoted token.
		if i := strings.IndexByte(rest, ','); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = ""
		}
		s = rest
	}
	return args
}

// token reads one possibly quoted token from the head of s, stopping at a
// separator.
func token(s string) (string, string) {
	if strings.HasPrefix(s, `"`) {
		if q, err := strconv.QuotedPrefix(s); err == nil {
			v, _ := strconv.Unquote(q)
			return v, s[len(q):]
		}
	}
	if i := strings.IndexAny(s, ",="); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// quote renders v as a Go string literal when it cannot be written raw into
// an info line. Plain values stay readable.
func quote(v string) string {
	if v == "" {
		return v
	}
	if strings.ContainsAny(v, ",=\"\\") || strings.TrimSpace(v) != v {
		return strconv.Quote(v)
	}
	for _, r := range v {
		if !strconv.IsPrint(r) {
			return strconv.Quote(v)
		}
	}
	return v
}

func unquote(v string) string {
	if strings.HasPrefix(v, `"`) {
		if u, err := strconv.Unquote(v); err == nil {
			return u
		}
	}
	return v
}
