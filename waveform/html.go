package waveform

import (
	"io"

	"github.com/db47h/lsim/trace"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML writes an HTML page with a step line chart per signal of tr. The
// charts share the tick axis and can be zoomed.
//
func WriteHTML(w io.Writer, tr *trace.Trace, o *Options) error {
	ticks := tr.Ticks()
	page := components.NewPage()
	page.PageTitle = o.title(tr)
	for i := range tr.Signals {
		s := &tr.Signals[i]
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				PageTitle: o.title(tr),
				Width:     "1200px",
				Height:    "180px",
			}),
			charts.WithTitleOpts(opts.Title{
				Title: s.Name,
			}),
			charts.WithDataZoomOpts(opts.DataZoom{
				Type:       "inside",
				Start:      0,
				End:        100,
				XAxisIndex: []int{0},
			}),
		)
		data := make([]opts.LineData, len(s.Values))
		for j, v := range s.Values {
			if l, ok := Level(v); ok {
				data[j] = opts.LineData{Value: l}
			} else {
				data[j] = opts.LineData{Value: "-"}
			}
		}
		line.SetXAxis(ticks).
			AddSeries(s.Name, data, charts.WithLineChartOpts(opts.LineChart{Step: true}))
		page.AddCharts(line)
	}
	return page.Render(w)
}
