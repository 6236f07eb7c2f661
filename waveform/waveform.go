// Package waveform renders recorded traces as timing diagrams.
//
// Three renderers are provided: WriteHTML produces an interactive page with
// one step chart per signal, WritePNG a static image with all signals stacked
// and WriteWAV turns a single signal into an audible pulse train.
//
package waveform

import (
	"io"
	"strconv"
	"strings"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/trace"
	"github.com/pkg/errors"
)

// Level returns the plotted level of v: 0 for False, 1 for True and 0.5 for
// Undefined. The second return value is false for Error, which is drawn as a
// gap.
//
func Level(v lsim.Value) (float64, bool) {
	switch v {
	case lsim.False:
		return 0, true
	case lsim.True:
		return 1, true
	case lsim.Undefined:
		return 0.5, true
	}
	return 0, false
}

// Format is an output format.
//
type Format int

// Supported formats.
//
const (
	HTML Format = iota
	PNG
	WAV
)

var formatNames = [...]string{HTML: "html", PNG: "png", WAV: "wav"}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat returns the format with the given name, as returned by
// Format.String.
//
func ParseFormat(s string) (Format, error) {
	for i, n := range formatNames {
		if strings.EqualFold(s, n) {
			return Format(i), nil
		}
	}
	return 0, errors.Errorf("unknown output format %q", s)
}

// Options control rendering.
//
type Options struct {
	Title string
	// Signal selects the signal rendered by WriteWAV. Defaults to the first
	// one.
	Signal string
	// SamplesPerTick is the number of audio samples per tick in WAV output.
	SamplesPerTick int
	// SampleRate of WAV output, in Hz.
	SampleRate int
}

func (o *Options) title(tr *trace.Trace) string {
	if o != nil && o.Title != "" {
		return o.Title
	}
	return tr.Circuit
}

// Write renders tr in format f.
//
func Write(w io.Writer, f Format, tr *trace.Trace, o *Options) error {
	if tr.Len() == 0 {
		return errors.New("empty trace")
	}
	switch f {
	case HTML:
		return WriteHTML(w, tr, o)
	case PNG:
		return WritePNG(w, tr, o)
	case WAV:
		ws, ok := w.(io.WriteSeeker)
		if !ok {
			return errors.New("WAV output needs a seekable writer")
		}
		return WriteWAV(ws, tr, o)
	}
	return errors.Errorf("unknown format %d", f)
}
