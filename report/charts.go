package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/samber/lo"
)

// WriteCharts renders the interactive HTML companion to the text summary.
// Sections with no data behind them are left out.
func WriteCharts(data Data, outputHTML string) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	if len(data.ChangeCounts) > 0 {
		page.AddCharts(convergenceChart(data.ChangeCounts))
	}
	if data.PostStats != nil && len(data.PostStats.Lengths) > 0 {
		page.AddCharts(contigChart(data.PostStats.Lengths))
	}
	if len(data.Quast) > 0 {
		page.AddCharts(quastChart(data.Quast))
	}

	f, err := os.Create(outputHTML)
	if err != nil {
		return fmt.Errorf("creating charts file: %w", err)
	}
	defer f.Close()
	return page.Render(f)
}

func convergenceChart(changes []int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Polishing convergence"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Corrections"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Round"}),
	)
	var x []int
	var yData []opts.LineData
	for i, c := range changes {
		x = append(x, i+1)
		yData = append(yData, opts.LineData{Value: c})
	}
	smooth := false
	line.SetXAxis(x).AddSeries("corrections", yData).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: &smooth}))
	return line
}

func contigChart(lengths []int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Contig lengths, largest first"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Length (bp)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Rank"}),
	)
	if len(lengths) > 50 {
		lengths = lengths[:50]
	}
	var x []int
	var yData []opts.BarData
	for i, l := range lengths {
		x = append(x, i+1)
		yData = append(yData, opts.BarData{Value: l})
	}
	bar.SetXAxis(x).AddSeries("length", yData)
	return bar
}

func quastChart(qs []QuastMetrics) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Quast comparison"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Assembly"}),
	)
	x := lo.Map(qs, func(q QuastMetrics, _ int) string { return q.Assembly })
	n50 := lo.Map(qs, func(q QuastMetrics, _ int) opts.BarData { return opts.BarData{Value: q.N50} })
	contigs := lo.Map(qs, func(q QuastMetrics, _ int) opts.BarData { return opts.BarData{Value: q.Contigs} })
	bar.SetXAxis(x).AddSeries("N50", n50).AddSeries("contigs", contigs)
	return bar
}
