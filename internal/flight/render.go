package flight

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderMap renders one trajectory as a standalone HTML page: a
// lon/lat scatter colored by altitude, framed on the flight's span.
func RenderMap(f *Flight) ([]byte, error) {
	if len(f.Waypoints) == 0 {
		return nil, fmt.Errorf("flight %s has no waypoints to render", f.ID)
	}

	span := f.Span()

	data := make([]opts.ScatterData, 0, len(f.Waypoints))
	maxAlt := 0.0
	for i := range f.Waypoints {
		w := &f.Waypoints[i]
		if w.AltitudeFt > maxAlt {
			maxAlt = w.AltitudeFt
		}
		data = append(data, opts.ScatterData{Value: []interface{}{w.Longitude, w.Latitude, w.AltitudeFt}})
	}
	if maxAlt == 0 {
		maxAlt = 1
	}

	// Pad the frame so boundary points stay visible.
	halfSpan := max(span.LatRange, span.LonRange, 0.1) / 2 * 1.05

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("Trajectory %s", f.ID),
			Theme:     "dark",
			Width:     "900px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Flight %s", f.ID),
			Subtitle: fmt.Sprintf("address=%s points=%d zoom=%.3fx", f.Address, len(data), span.Zoom),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Min: span.CenterLon - halfSpan, Max: span.CenterLon + halfSpan,
			Name: "Longitude", NameLocation: "middle", NameGap: 25,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Min: span.CenterLat - halfSpan, Max: span.CenterLat + halfSpan,
			Name: "Latitude", NameLocation: "middle", NameGap: 30,
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxAlt),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#31688e", "#35b779", "#fde725"}},
		}),
	)

	scatter.AddSeries("trajectory", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render trajectory chart: %w", err)
	}
	return buf.Bytes(), nil
}
