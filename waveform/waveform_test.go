package waveform_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/trace"
	"github.com/db47h/lsim/waveform"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTrace(t *testing.T) *trace.Trace {
	t.Helper()
	tr := &trace.Trace{Circuit: "demo", Start: 2}
	for _, s := range []struct{ name, values string }{
		{"clk", "0110011001"},
		{"q", "UU1E100011"},
	} {
		sig, err := trace.ParseSignal(s.name, s.values)
		require.NoError(t, err)
		tr.Signals = append(tr.Signals, sig)
	}
	return tr
}

func TestLevel(t *testing.T) {
	td := []struct {
		v  lsim.Value
		l  float64
		ok bool
	}{
		{lsim.False, 0, true},
		{lsim.True, 1, true},
		{lsim.Undefined, 0.5, true},
		{lsim.Error, 0, false},
	}
	for _, d := range td {
		l, ok := waveform.Level(d.v)
		assert.Equal(t, d.l, l, d.v.String())
		assert.Equal(t, d.ok, ok, d.v.String())
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range []waveform.Format{waveform.HTML, waveform.PNG, waveform.WAV} {
		g, err := waveform.ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, g)
	}
	f, err := waveform.ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, waveform.PNG, f)
	_, err = waveform.ParseFormat("svg")
	assert.Error(t, err)
	assert.Equal(t, "format(7)", waveform.Format(7).String())
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, waveform.WriteHTML(&buf, testTrace(t), &waveform.Options{Title: "demo run"}))
	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "demo run")
	assert.Contains(t, out, "clk")
	assert.Contains(t, out, `"q"`)
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, waveform.WritePNG(&buf, testTrace(t), nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestWriteWAV(t *testing.T) {
	const spt = 4
	tr := testTrace(t)
	name := filepath.Join(t.TempDir(), "q.wav")
	f, err := os.Create(name)
	require.NoError(t, err)
	err = waveform.WriteWAV(f, tr, &waveform.Options{Signal: "q", SamplesPerTick: spt, SampleRate: 8000})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = os.Open(name)
	require.NoError(t, err)
	defer f.Close()
	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	assert.Equal(t, uint32(8000), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	require.Len(t, buf.Data, tr.Len()*spt)

	q := tr.Signal("q")
	for i, v := range q.Values {
		s := buf.Data[i*spt]
		switch v {
		case lsim.True:
			assert.Positive(t, s, "sample %d", i)
		case lsim.False:
			assert.Negative(t, s, "sample %d", i)
		default:
			assert.Zero(t, s, "sample %d", i)
		}
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := waveform.Write(&buf, waveform.WAV, testTrace(t), nil)
	assert.Error(t, err, "bytes.Buffer is not seekable")
	assert.Error(t, waveform.Write(&buf, waveform.HTML, &trace.Trace{}, nil))
	assert.Error(t, waveform.Write(&buf, waveform.Format(42), testTrace(t), nil))
	buf.Reset()
	require.NoError(t, waveform.Write(&buf, waveform.PNG, testTrace(t), nil))
	assert.NotZero(t, buf.Len())

	err = waveform.WriteWAV(nil, testTrace(t), &waveform.Options{Signal: "nope"})
	assert.Error(t, err)
}
