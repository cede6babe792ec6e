package datasource

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jmgilman/go/directio"
)

// lineFormat stores one string record per line. A fragment [s, e) owns the
// lines starting in (s, e], plus the line at 0 for the first fragment.
type lineFormat struct {
	min, pref int64
}

func (f lineFormat) MinimumFragmentSize() int64   { return f.min }
func (f lineFormat) PreferredFragmentSize() int64 { return f.pref }

func (f lineFormat) NewInput(r io.Reader, _ string, offset, length int64) (directio.ModelInput, error) {
	in := &lineInput{r: bufio.NewReader(r), pos: offset, end: offset + length}
	if offset > 0 {
		skipped, err := in.r.ReadString('\n')
		in.pos += int64(len(skipped))
		if err != nil && err != io.EOF {
			return nil, err
		}
	}
	return in, nil
}

func (f lineFormat) NewOutput(w io.Writer, _ string) (directio.ModelOutput, error) {
	return &lineOutput{w: bufio.NewWriter(w)}, nil
}

type lineInput struct {
	r        *bufio.Reader
	pos, end int64
}

func (in *lineInput) Read() (any, error) {
	if in.pos > in.end {
		return nil, io.EOF
	}
	line, err := in.r.ReadString('\n')
	if line == "" && err != nil {
		return nil, io.EOF
	}
	in.pos += int64(len(line))
	if line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, nil
}

func (in *lineInput) Close() error { return nil }

type lineOutput struct {
	w *bufio.Writer
}

func (out *lineOutput) Write(record any) error {
	_, err := fmt.Fprintln(out.w, record)
	return err
}

func (out *lineOutput) Close() error {
	return out.w.Flush()
}

// blockFormat is a DataFormat without stream support.
type blockFormat struct{}

func (blockFormat) MinimumFragmentSize() int64   { return -1 }
func (blockFormat) PreferredFragmentSize() int64 { return -1 }

var _ directio.StreamFormat = lineFormat{}
