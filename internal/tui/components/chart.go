package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

// Series is one set of bar values drawn in a single color.
type Series struct {
	Name   string
	Values []float64
	Color  lipgloss.Color
}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		buf.WriteRune(blocks[min(max(idx, 0), len(blocks)-1)])
	}
	return style.Render(buf.String())
}

// BarChart renders grouped vertical bars: one group per label and one
// bar per series within each group. A legend line is added when more
// than one series is drawn. Series are truncated to the shortest one.
func BarChart(series []Series, labels []string, width, height int) string {
	n := groupCount(series)
	if n == 0 {
		return ""
	}
	k := len(series)
	if width < 15 || height < 3 {
		return Sparkline(series[0].Values[:n], series[0].Color)
	}

	t := theme.Active

	maxVal := 0.0
	for _, s := range series {
		for _, v := range s.Values[:n] {
			maxVal = max(maxVal, v)
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Y-axis: a round tick step with at most height/2 intervals.
	tickStep := chartTickStep(maxVal)
	maxIntervals := max(height/2, 2)
	for int(math.Ceil(maxVal/tickStep)) > maxIntervals {
		tickStep *= 2
	}
	ceiling := math.Ceil(maxVal/tickStep) * tickStep
	numIntervals := max(int(math.Round(ceiling/tickStep)), 1)
	rowsPerTick := max(height/numIntervals, 2)
	chartH := rowsPerTick * numIntervals

	yLabelW := max(len(formatChartLabel(ceiling))+1, 4)
	tickLabels := make(map[int]string, numIntervals)
	for i := 1; i <= numIntervals; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(tickStep * float64(i))
	}

	chartW := max(width-yLabelW-1, 5)

	// Bar sizing. Groups are separated by one column; bars within a group touch.
	values := make([][]float64, k)
	for i, s := range series {
		values[i] = s.Values[:n]
	}
	gap := 1
	if n == 1 {
		gap = 0
	}
	barW := (chartW - (n-1)*gap) / (n * k)
	if barW < 1 {
		// Too many groups: sample evenly so each bar gets one column.
		maxN := max((chartW+1)/(k+1), 2)
		idx := make([]int, maxN)
		for i := range idx {
			idx[i] = i * (n - 1) / (maxN - 1)
		}
		for i := range values {
			sampled := make([]float64, maxN)
			for j, src := range idx {
				sampled[j] = values[i][src]
			}
			values[i] = sampled
		}
		if len(labels) == n {
			sampledLabels := make([]string, maxN)
			for j, src := range idx {
				sampledLabels[j] = labels[src]
			}
			labels = sampledLabels
		}
		n = maxN
		barW = 1
	}
	barCap := 6
	if k > 1 {
		barCap = 3
	}
	barW = min(barW, barCap)
	groupW := barW * k
	axisLen := n*groupW + max(0, n-1)*gap

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(chartH)
		rowBottom := ceiling * float64(row-1) / float64(chartH)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[row])))
		b.WriteString(axisStyle.Render("│"))

		for i := range n {
			if i > 0 && gap > 0 {
				b.WriteString(spaceStyle.Render(strings.Repeat(" ", gap)))
			}
			for s := range k {
				barStyle := lipgloss.NewStyle().Foreground(barColor(series[s].Color, k, float64(row)/float64(chartH))).Background(t.Surface)
				v := values[s][i]
				switch {
				case v >= rowTop:
					b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
				case v > rowBottom:
					frac := (v - rowBottom) / (rowTop - rowBottom)
					idx := min(max(int(frac*8), 1), 8)
					b.WriteString(barStyle.Render(strings.Repeat(string(blocks[idx]), barW)))
				default:
					b.WriteString(spaceStyle.Render(strings.Repeat(" ", barW)))
				}
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└"))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(labels) == n {
		b.WriteString("\n")
		labelStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		b.WriteString(spaceStyle.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(labelStyle.Render(axisLabels(labels, axisLen, groupW+gap)))
	}

	if k > 1 {
		b.WriteString("\n")
		b.WriteString(spaceStyle.Render(strings.Repeat(" ", yLabelW+1)))
		for i, s := range series {
			if i > 0 {
				b.WriteString(spaceStyle.Render("  "))
			}
			b.WriteString(lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface).Render("■ "))
			b.WriteString(labelStyleFor(t).Render(s.Name))
		}
	}

	return b.String()
}

func groupCount(series []Series) int {
	if len(series) == 0 {
		return 0
	}
	n := len(series[0].Values)
	for _, s := range series[1:] {
		n = min(n, len(s.Values))
	}
	return n
}

// barColor shades single-series charts by height; grouped charts keep
// each series in its own color so the bars stay distinguishable.
func barColor(c lipgloss.Color, seriesCount int, rowPct float64) lipgloss.Color {
	if seriesCount > 1 {
		return c
	}
	t := theme.Active
	switch {
	case rowPct > 0.8:
		return t.AccentBright
	case rowPct > 0.5:
		return c
	default:
		return t.Accent
	}
}

func labelStyleFor(t theme.Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
}

// axisLabels places labels under their groups, skipping any that would
// overlap, and always tries to show the last one.
func axisLabels(labels []string, axisLen, stride int) string {
	n := len(labels)
	buf := []byte(strings.Repeat(" ", axisLen))

	labelStep := max(1, (n*8)/(axisLen+1))
	lastEnd := -1
	for i := 0; i < n; i += labelStep {
		pos := i * stride
		lbl := labels[i]
		end := pos + len(lbl)
		if pos <= lastEnd {
			continue
		}
		if end > axisLen {
			end = axisLen
			if end-pos < 3 {
				continue
			}
			lbl = lbl[:end-pos]
		}
		copy(buf[pos:end], lbl)
		lastEnd = end + 1
	}
	if n > 1 {
		lbl := labels[n-1]
		pos := (n - 1) * stride
		end := pos + len(lbl)
		if end > axisLen {
			pos = axisLen - len(lbl)
			end = axisLen
		}
		if pos >= 0 && pos > lastEnd {
			copy(buf[pos:end], lbl)
		}
	}
	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a round tick interval targeting about five ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e9:
		return trimUnit(v/1e9, "B")
	case v >= 1e6:
		return trimUnit(v/1e6, "M")
	case v >= 1e3:
		return trimUnit(v/1e3, "k")
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func trimUnit(v float64, unit string) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f%s", v, unit)
	}
	return fmt.Sprintf("%.1f%s", v, unit)
}
