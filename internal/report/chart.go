package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"dipper/internal/backtest"
	"dipper/internal/domain"
	"dipper/internal/indicator"
)

const (
	chartWidth  = "1400px"
	chartHeight = "520px"

	colorBull = "#34d399"
	colorBear = "#f87171"
	colorMA   = "#fbbf24"
)

// WriteChart renders an HTML page with a candlestick chart of the run's bars,
// the moving average overlay, and the equity curve below it.
func WriteChart(w io.Writer, res *backtest.Result, bars []domain.Bar, frames []indicator.Frame) error {
	if len(bars) == 0 {
		return fmt.Errorf("no bars to chart")
	}

	xAxis := make([]string, len(bars))
	for i, b := range bars {
		xAxis[i] = b.Timestamp.Format(dateLayout)
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		buildKline(res.Symbol, xAxis, bars, frames),
		buildEquityLine(xAxis, res.Equity),
	)

	return page.Render(w)
}

func buildKline(symbol string, xAxis []string, bars []domain.Bar, frames []indicator.Frame) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s daily", strings.ToUpper(symbol)),
			Left:  "left",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)

	data := make([]opts.KlineData, len(bars))
	for i, b := range bars {
		data[i] = opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}}
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", data)

	ma := charts.NewLine()
	ma.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	maData := make([]opts.LineData, len(bars))
	for i := range bars {
		if i < len(frames) && frames[i].MAValid {
			maData[i] = opts.LineData{Value: frames[i].MA}
		} else {
			maData[i] = opts.LineData{Value: nil}
		}
	}
	ma.SetXAxis(xAxis)
	ma.AddSeries("MA", maData, charts.WithLineStyleOpts(opts.LineStyle{Color: colorMA, Width: 2}))
	kline.Overlap(ma)

	return kline
}

func buildEquityLine(xAxis []string, equity []backtest.EquityPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: "320px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Equity", Left: "left"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	data := make([]opts.LineData, len(equity))
	for i, p := range equity {
		data[i] = opts.LineData{Value: p.Equity}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("Equity", data)
	return line
}
