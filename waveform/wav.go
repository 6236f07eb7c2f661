package waveform

import (
	"io"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/trace"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// Defaults for WAV output.
//
const (
	DefaultSampleRate     = 44100
	DefaultSamplesPerTick = 32
	amplitude             = 1 << 13
)

// WriteWAV writes a 16 bit mono WAV file where each tick of a signal of tr
// lasts SamplesPerTick samples. True and False map to opposite levels,
// Undefined and Error to silence.
//
func WriteWAV(ws io.WriteSeeker, tr *trace.Trace, o *Options) error {
	var opt Options
	if o != nil {
		opt = *o
	}
	if opt.SampleRate <= 0 {
		opt.SampleRate = DefaultSampleRate
	}
	if opt.SamplesPerTick <= 0 {
		opt.SamplesPerTick = DefaultSamplesPerTick
	}
	if len(tr.Signals) == 0 {
		return errors.New("empty trace")
	}
	s := &tr.Signals[0]
	if opt.Signal != "" {
		if s = tr.Signal(opt.Signal); s == nil {
			return errors.Errorf("no signal %q in trace", opt.Signal)
		}
	}

	data := make([]int, 0, len(s.Values)*opt.SamplesPerTick)
	for _, v := range s.Values {
		var l int
		switch v {
		case lsim.True:
			l = amplitude
		case lsim.False:
			l = -amplitude
		}
		for i := 0; i < opt.SamplesPerTick; i++ {
			data = append(data, l)
		}
	}

	enc := wav.NewEncoder(ws, opt.SampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: opt.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrapf(err, "encode signal %q", s.Name)
	}
	return errors.Wrap(enc.Close(), "encode signal")
}
