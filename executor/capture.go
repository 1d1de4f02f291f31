package executor

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"unicode/utf8"
)

// DefaultOutputLimit caps the bytes captured per stream.
const DefaultOutputLimit = 1 << 20

var (
	ErrOutputLimit   = errors.New("output limit exceeded")
	errInvalidOutput = errors.New("output is not valid UTF-8")
)

// pipe is an in-memory byte pipe. Writes never block; the read side is
// drained once, which also closes the pipe.
type pipe struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	closed    bool
	truncated bool
}

func newPipe(limit int) *pipe {
	if limit <= 0 {
		limit = DefaultOutputLimit
	}
	return &pipe{limit: limit}
}

// Write implements io.Writer for the guest-facing end.
func (p *pipe) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if room := p.limit - p.buf.Len(); len(data) > room {
		p.buf.Write(data[:room])
		p.truncated = true
		return room, ErrOutputLimit
	}
	return p.buf.Write(data)
}

// drain closes the pipe and returns everything written so far.
func (p *pipe) drain() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	data := p.buf.Bytes()
	p.buf = bytes.Buffer{}
	if p.truncated {
		data = trimPartialRune(data)
	}
	if !utf8.Valid(data) {
		return "", errInvalidOutput
	}
	return string(data), nil
}

// capture holds the stdout and stderr pipes of one call.
type capture struct {
	stdout *pipe
	stderr *pipe
}

func newCapture(limit int) *capture {
	return &capture{
		stdout: newPipe(limit),
		stderr: newPipe(limit),
	}
}

// drainInto appends the non-empty stream contents as one chunk each.
// Both pipes are closed even when the first read fails.
func (c *capture) drainInto(stdout, stderr *[]string) error {
	out, outErr := c.stdout.drain()
	errOut, errErr := c.stderr.drain()

	if outErr != nil {
		return newError(KindStreamRead, "stdout", outErr)
	}
	if out != "" {
		*stdout = append(*stdout, out)
	}

	if errErr != nil {
		return newError(KindStreamRead, "stderr", errErr)
	}
	if errOut != "" {
		*stderr = append(*stderr, errOut)
	}
	return nil
}

// trimPartialRune drops a multi-byte sequence cut off at the end of data.
func trimPartialRune(data []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if utf8.RuneStart(b) {
			if !utf8.FullRune(data[len(data)-i:]) {
				return data[:len(data)-i]
			}
			break
		}
	}
	return data
}
