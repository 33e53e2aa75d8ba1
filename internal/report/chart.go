package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/inconsolata"
)

// RenderStyle selects how a series is drawn.
type RenderStyle int

const (
	StackedBar RenderStyle = iota
	Line
)

// Axis selects which y-axis scales a series.
type Axis int

const (
	AxisPrimary Axis = iota
	AxisSecondary
)

// Marker selects the point marker drawn on a line series.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerCircle
	MarkerSquare
)

// SeriesDef describes one chart series. Values must align positionally
// with the ChartSpec labels.
type SeriesDef struct {
	Label  string
	Values []float64
	Style  RenderStyle
	Axis   Axis
	Color  string // hex, e.g. "#FF9999"
	Marker Marker
}

// ChartSpec fully determines a rendered chart. Compose reads nothing else,
// so identical specs always produce identical images.
type ChartSpec struct {
	Title              string
	Subtitle           string
	Labels             []string
	Series             []SeriesDef
	PrimaryAxisLabel   string
	SecondaryAxisLabel string
	Width              int
	Height             int
	ShowValueLabels    bool
}

const (
	chartWidth  = 960
	chartHeight = 640

	marginLeft   = 80.0
	marginRight  = 80.0
	marginTop    = 80.0
	marginBottom = 60.0

	yTicks = 5
)

// Compose renders the spec into a PNG image. It writes no files; artifact
// placement belongs to the exporter.
func Compose(spec ChartSpec) ([]byte, error) {
	if len(spec.Labels) == 0 {
		return nil, fmt.Errorf("chart spec has no labels")
	}
	if len(spec.Series) == 0 {
		return nil, fmt.Errorf("chart spec has no series")
	}
	for _, s := range spec.Series {
		if len(s.Values) != len(spec.Labels) {
			return nil, fmt.Errorf("series %q has %d values for %d labels", s.Label, len(s.Values), len(spec.Labels))
		}
	}

	width, height := spec.Width, spec.Height
	if width == 0 {
		width = chartWidth
	}
	if height == 0 {
		height = chartHeight
	}

	dc := gg.NewContext(width, height)
	dc.SetFontFace(inconsolata.Regular8x16)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()

	plotX := marginLeft
	plotY := marginTop
	plotW := float64(width) - marginLeft - marginRight
	plotH := float64(height) - marginTop - marginBottom

	primaryMax, secondaryMax := axisMaxima(spec)

	drawTitle(dc, spec, width)
	drawAxes(dc, spec, plotX, plotY, plotW, plotH, primaryMax, secondaryMax)
	drawBars(dc, spec, plotX, plotY, plotW, plotH, primaryMax)
	drawLines(dc, spec, plotX, plotY, plotW, plotH, primaryMax, secondaryMax)
	drawXLabels(dc, spec, plotX, plotY, plotW, plotH)
	drawLegend(dc, spec, plotX, plotY)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// stackPanels joins rendered chart PNGs into one image, top to bottom.
func stackPanels(panels [][]byte) ([]byte, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("no panels to stack")
	}
	if len(panels) == 1 {
		return panels[0], nil
	}

	images := make([]image.Image, 0, len(panels))
	width, height := 0, 0
	for _, p := range panels {
		img, err := png.Decode(bytes.NewReader(p))
		if err != nil {
			return nil, fmt.Errorf("failed to decode panel: %w", err)
		}
		if img.Bounds().Dx() > width {
			width = img.Bounds().Dx()
		}
		height += img.Bounds().Dy()
		images = append(images, img)
	}

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()
	y := 0
	for _, img := range images {
		dc.DrawImage(img, 0, y)
		y += img.Bounds().Dy()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode stacked panels: %w", err)
	}
	return buf.Bytes(), nil
}

// axisMaxima computes scaled ceilings for both axes. Stacked bars share one
// ceiling computed from per-slot stack heights.
func axisMaxima(spec ChartSpec) (float64, float64) {
	primary := 0.0
	secondary := 0.0

	stacked := make([]float64, len(spec.Labels))
	for _, s := range spec.Series {
		switch {
		case s.Style == StackedBar:
			for i, v := range s.Values {
				stacked[i] += v
			}
		case s.Axis == AxisSecondary:
			for _, v := range s.Values {
				secondary = math.Max(secondary, v)
			}
		default:
			for _, v := range s.Values {
				primary = math.Max(primary, v)
			}
		}
	}
	for _, v := range stacked {
		primary = math.Max(primary, v)
	}

	return niceCeil(primary), niceCeil(secondary)
}

// niceCeil rounds v up to a 1/2/5-step tick ceiling.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, step := range []float64{1, 2, 5, 10} {
		if v <= step*mag {
			return step * mag
		}
	}
	return 10 * mag
}

func drawTitle(dc *gg.Context, spec ChartSpec, width int) {
	dc.SetHexColor("#2D3436")
	dc.SetFontFace(inconsolata.Bold8x16)
	dc.DrawStringAnchored(spec.Title, float64(width)/2, 24, 0.5, 0.5)
	dc.SetFontFace(inconsolata.Regular8x16)
	if spec.Subtitle != "" {
		dc.DrawStringAnchored(spec.Subtitle, float64(width)/2, 44, 0.5, 0.5)
	}
}

func drawAxes(dc *gg.Context, spec ChartSpec, plotX, plotY, plotW, plotH, primaryMax, secondaryMax float64) {
	hasSecondary := false
	for _, s := range spec.Series {
		if s.Axis == AxisSecondary {
			hasSecondary = true
		}
	}

	for i := 0; i <= yTicks; i++ {
		frac := float64(i) / yTicks
		y := plotY + plotH - frac*plotH

		// horizontal gridline
		dc.SetRGBA(0, 0, 0, 0.15)
		dc.SetLineWidth(1)
		dc.DrawLine(plotX, y, plotX+plotW, y)
		dc.Stroke()

		dc.SetHexColor("#2D3436")
		dc.DrawStringAnchored(formatTick(frac*primaryMax), plotX-8, y, 1, 0.5)

		if hasSecondary {
			dc.SetHexColor("#C0392B")
			dc.DrawStringAnchored(formatTick(frac*secondaryMax), plotX+plotW+8, y, 0, 0.5)
		}
	}

	dc.SetHexColor("#2D3436")
	dc.SetLineWidth(1.5)
	dc.DrawLine(plotX, plotY, plotX, plotY+plotH)
	dc.DrawLine(plotX, plotY+plotH, plotX+plotW, plotY+plotH)
	dc.Stroke()

	if spec.PrimaryAxisLabel != "" {
		dc.Push()
		dc.RotateAbout(-math.Pi/2, 20, plotY+plotH/2)
		dc.DrawStringAnchored(spec.PrimaryAxisLabel, 20, plotY+plotH/2, 0.5, 0.5)
		dc.Pop()
	}
	if hasSecondary && spec.SecondaryAxisLabel != "" {
		dc.Push()
		dc.SetHexColor("#C0392B")
		x := plotX + plotW + marginRight - 16
		dc.RotateAbout(math.Pi/2, x, plotY+plotH/2)
		dc.DrawStringAnchored(spec.SecondaryAxisLabel, x, plotY+plotH/2, 0.5, 0.5)
		dc.Pop()
	}
}

func formatTick(v float64) string {
	if v >= 100 || v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func drawBars(dc *gg.Context, spec ChartSpec, plotX, plotY, plotW, plotH, primaryMax float64) {
	slot := plotW / float64(len(spec.Labels))
	barW := slot * 0.6

	bottoms := make([]float64, len(spec.Labels))
	for _, s := range spec.Series {
		if s.Style != StackedBar {
			continue
		}
		for i, v := range s.Values {
			if v <= 0 {
				continue
			}
			h := v / primaryMax * plotH
			x := plotX + float64(i)*slot + (slot-barW)/2
			y := plotY + plotH - bottoms[i]/primaryMax*plotH - h

			dc.SetHexColor(s.Color)
			dc.DrawRectangle(x, y, barW, h)
			dc.Fill()

			if spec.ShowValueLabels {
				dc.SetHexColor("#2D3436")
				dc.DrawStringAnchored(fmt.Sprintf("%.0f", v), x+barW/2, y+h/2, 0.5, 0.5)
			}
			bottoms[i] += v
		}
	}
}

func drawLines(dc *gg.Context, spec ChartSpec, plotX, plotY, plotW, plotH, primaryMax, secondaryMax float64) {
	slot := plotW / float64(len(spec.Labels))

	for _, s := range spec.Series {
		if s.Style != Line {
			continue
		}
		axisMax := primaryMax
		if s.Axis == AxisSecondary {
			axisMax = secondaryMax
		}

		dc.SetHexColor(s.Color)
		dc.SetLineWidth(2)
		for i := 1; i < len(s.Values); i++ {
			x0 := plotX + (float64(i-1)+0.5)*slot
			y0 := plotY + plotH - s.Values[i-1]/axisMax*plotH
			x1 := plotX + (float64(i)+0.5)*slot
			y1 := plotY + plotH - s.Values[i]/axisMax*plotH
			dc.DrawLine(x0, y0, x1, y1)
		}
		dc.Stroke()

		for i, v := range s.Values {
			x := plotX + (float64(i)+0.5)*slot
			y := plotY + plotH - v/axisMax*plotH
			switch s.Marker {
			case MarkerCircle:
				dc.DrawCircle(x, y, 4)
				dc.Fill()
			case MarkerSquare:
				dc.DrawRectangle(x-3.5, y-3.5, 7, 7)
				dc.Fill()
			}
		}
	}
}

func drawXLabels(dc *gg.Context, spec ChartSpec, plotX, plotY, plotW, plotH float64) {
	slot := plotW / float64(len(spec.Labels))
	dc.SetHexColor("#2D3436")
	for i, label := range spec.Labels {
		x := plotX + (float64(i)+0.5)*slot
		dc.DrawStringAnchored(label, x, plotY+plotH+16, 0.5, 0.5)
	}
}

func drawLegend(dc *gg.Context, spec ChartSpec, plotX, plotY float64) {
	y := plotY + 12
	for _, s := range spec.Series {
		dc.SetHexColor(s.Color)
		if s.Style == StackedBar {
			dc.DrawRectangle(plotX+8, y-5, 14, 10)
			dc.Fill()
		} else {
			dc.SetLineWidth(2)
			dc.DrawLine(plotX+8, y, plotX+22, y)
			dc.Stroke()
		}
		dc.SetHexColor("#2D3436")
		dc.DrawStringAnchored(s.Label, plotX+28, y, 0, 0.5)
		y += 16
	}
}
