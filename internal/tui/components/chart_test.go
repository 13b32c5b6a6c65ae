package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestBarChart_Grouped(t *testing.T) {
	series := []Series{
		{Name: "Sales", Values: []float64{100, 250, 50}, Color: "2"},
		{Name: "Forecast", Values: []float64{110, 270, 55}, Color: "5"},
	}
	labels := []string{"Jan", "Feb", "Mar"}

	out := BarChart(series, labels, 60, 8)
	if out == "" {
		t.Fatal("empty chart")
	}
	for _, want := range []string{"Jan", "Mar", "Sales", "Forecast", "└"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart missing %q:\n%s", want, out)
		}
	}
	for i, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 60 {
			t.Errorf("line %d width %d exceeds 60", i, w)
		}
	}
}

func TestBarChart_SamplesWideSeries(t *testing.T) {
	values := make([]float64, 200)
	labels := make([]string, 200)
	for i := range values {
		values[i] = float64(i)
		labels[i] = "d"
	}
	out := BarChart([]Series{{Name: "Pax", Values: values, Color: "4"}}, labels, 40, 6)
	for i, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 40 {
			t.Errorf("line %d width %d exceeds 40", i, w)
		}
	}
}

func TestBarChart_Degenerate(t *testing.T) {
	if got := BarChart(nil, nil, 60, 8); got != "" {
		t.Errorf("BarChart(nil) = %q, want empty", got)
	}
	// Too small for axes: falls back to a sparkline.
	got := BarChart([]Series{{Values: []float64{1, 2, 3}, Color: "2"}}, nil, 10, 2)
	if !strings.Contains(got, "█") {
		t.Errorf("small chart = %q, want sparkline", got)
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "0.50"},
		{20, "20"},
		{2000, "2k"},
		{2500, "2.5k"},
		{3_000_000, "3M"},
		{1_500_000_000, "1.5B"},
	}
	for _, tt := range tests {
		if got := formatChartLabel(tt.in); got != tt.want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
