// Package term reads single key presses from a terminal.
package term

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
	"github.com/pkg/term"
)

// KeyReader returns key presses one at a time.
type KeyReader interface {
	ReadKey() (byte, error)
	Close() error
}

// Terminal is a terminal in cbreak mode: keys are available as soon as they
// are pressed, without echo processing delays.
type Terminal struct {
	t   *term.Term
	buf [1]byte
}

// Open opens the named terminal device, usually "/dev/tty", and switches it
// to cbreak mode. Close restores the previous mode.
func Open(name string) (*Terminal, error) {
	t, err := term.Open(name, term.CBreakMode)
	if err != nil {
		return nil, errors.Wrapf(err, "open terminal %q", name)
	}
	return &Terminal{t: t}, nil
}

// ReadKey blocks until a key is pressed.
func (t *Terminal) ReadKey() (byte, error) {
	for {
		n, err := t.t.Read(t.buf[:])
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return t.buf[0], nil
		}
	}
}

// Close restores the terminal mode and closes the device.
func (t *Terminal) Close() error {
	if err := t.t.Restore(); err != nil {
		t.t.Close()
		return errors.Wrap(err, "restore terminal")
	}
	return t.t.Close()
}

type reader struct {
	r *bufio.Reader
}

// NewReader returns a KeyReader reading keys from r, for use when the input
// is not a terminal. Line feeds are skipped.
func NewReader(r io.Reader) KeyReader {
	return &reader{r: bufio.NewReader(r)}
}

func (r *reader) ReadKey() (byte, error) {
	for {
		b, err := r.r.ReadByte()
		if err != nil || b != '\n' && b != '\r' {
			return b, err
		}
	}
}

func (r *reader) Close() error { return nil }
