package sink

import (
	"errors"
	"io"
)

// Common errors for sink operations
var (
	ErrOutputUnwritable = errors.New("output unwritable")
	ErrUnknownCodec     = errors.New("unknown compression codec")
)

// countingWriter counts bytes passed to the wrapped writer.
// It hides any Close method so encoders cannot close the file they write to.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
