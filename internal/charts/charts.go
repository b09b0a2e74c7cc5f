// Package charts renders expense aggregates as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"expense-api/internal/models"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

const (
	defaultWidth  = 1024
	defaultHeight = 512
)

// Renderer draws charts with a fixed canvas size.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer creates a renderer with the default canvas size.
func NewRenderer() *Renderer {
	return &Renderer{Width: defaultWidth, Height: defaultHeight}
}

// CategoryPie renders one slice per category.
func (r *Renderer) CategoryPie(totals []models.CategoryTotal) ([]byte, error) {
	if len(totals) == 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(totals))
	for _, t := range totals {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s", t.Category, t.Total),
			Value: t.Total.Float(),
		})
	}

	pie := chart.PieChart{
		Title:  "Expenses by category",
		Width:  r.Width,
		Height: r.Height,
		Values: values,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buf.Bytes(), nil
}

// MonthlyBar renders one bar per month in the given order.
func (r *Renderer) MonthlyBar(totals []models.MonthTotal) ([]byte, error) {
	if len(totals) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, 0, len(totals))
	var peak float64
	for _, t := range totals {
		v := t.Total.Float()
		if v > peak {
			peak = v
		}
		bars = append(bars, chart.Value{Label: t.Month, Value: v})
	}

	bar := chart.BarChart{
		Title:    "Expenses by month",
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: barWidth(r.Width, len(bars)),
		Bars:     bars,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
		// An explicit range keeps a single bar from collapsing the axis.
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: peak * 1.1},
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
	}

	var buf bytes.Buffer
	if err := bar.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render monthly chart: %w", err)
	}
	return buf.Bytes(), nil
}

func barWidth(width, n int) int {
	w := (width - 100) / (n * 2)
	switch {
	case w < 8:
		return 8
	case w > 80:
		return 80
	}
	return w
}
