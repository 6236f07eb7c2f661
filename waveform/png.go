package waveform

import (
	"io"

	"github.com/db47h/lsim/trace"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	lane   = 1.5 // vertical distance between signals
	pngDPI = vg.Inch
)

// WritePNG draws all signals of tr stacked on a single plot, first signal on
// top. Error samples are left blank.
//
func WritePNG(w io.Writer, tr *trace.Trace, o *Options) error {
	p := plot.New()
	p.Title.Text = o.title(tr)
	p.X.Label.Text = "tick"
	p.X.Min = float64(tr.Start)
	p.X.Max = float64(tr.Start) + float64(tr.Len())

	n := len(tr.Signals)
	ticks := make([]plot.Tick, 0, n)
	for i := range tr.Signals {
		s := &tr.Signals[i]
		base := float64(n-1-i) * lane
		ticks = append(ticks, plot.Tick{Value: base + 0.5, Label: s.Name})
		for _, xys := range runs(tr, s, base) {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return errors.Wrapf(err, "signal %q", s.Name)
			}
			l.StepStyle = plotter.PostStep
			l.LineStyle.Color = plotutil.Color(i)
			l.LineStyle.Width = vg.Points(1.5)
			p.Add(l)
		}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Min = -0.25
	p.Y.Max = float64(n-1)*lane + 1.25

	width := vg.Length(4+tr.Len()/8) * pngDPI
	if width > 40*pngDPI {
		width = 40 * pngDPI
	}
	height := vg.Length(1+n) * pngDPI / 2
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return errors.Wrap(err, "render trace")
	}
	_, err = wt.WriteTo(w)
	return err
}

// runs splits s into contiguous sequences of plottable samples. Each run ends
// one tick after its last sample so that the last value has a visible width.
func runs(tr *trace.Trace, s *trace.Signal, base float64) []plotter.XYs {
	var (
		r   []plotter.XYs
		cur plotter.XYs
	)
	flush := func(end float64) {
		if len(cur) > 0 {
			cur = append(cur, plotter.XY{X: end, Y: cur[len(cur)-1].Y})
			r = append(r, cur)
			cur = nil
		}
	}
	for i, v := range s.Values {
		x := float64(tr.Start) + float64(i)
		l, ok := Level(v)
		if !ok {
			flush(x)
			continue
		}
		cur = append(cur, plotter.XY{X: x, Y: base + l})
	}
	flush(float64(tr.Start) + float64(len(s.Values)))
	return r
}
