package datasource

import (
	stderrors "errors"
	"io"

	"github.com/jmgilman/go/directio"
)

type countingReader struct {
	r       io.Reader
	counter *directio.Counter
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.counter.Add(int64(n))
	return n, err
}

type countingWriter struct {
	w       io.Writer
	counter *directio.Counter
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.counter.Add(int64(n))
	return n, err
}

// input closes the underlying file together with the record reader.
type input struct {
	directio.ModelInput
	file io.Closer
}

func (in *input) Close() error {
	return stderrors.Join(in.ModelInput.Close(), in.file.Close())
}

// output closes the underlying file after the record writer has flushed.
type output struct {
	directio.ModelOutput
	file io.Closer
}

func (out *output) Close() error {
	return stderrors.Join(out.ModelOutput.Close(), out.file.Close())
}

// seekTo positions r at offset, discarding bytes when r cannot seek.
func seekTo(r io.Reader, offset int64) error {
	if offset == 0 {
		return nil
	}
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(offset, io.SeekStart)
		return err
	}
	_, err := io.CopyN(io.Discard, r, offset)
	return err
}
