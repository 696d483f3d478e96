package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/finboard/internal/models"
)

const (
	minWidth = 200
	maxWidth = 4000

	// maxDateLabels caps the labelled ticks on the date axis.
	maxDateLabels = 10
)

var (
	colorUp   = drawing.ColorFromHex("16a34a") // green-600
	colorDown = drawing.ColorFromHex("dc2626") // red-600
	colorAxis = drawing.ColorFromHex("6b7280") // gray-500
)

// RenderPNG rasterises c as a price panel stacked over a volume panel.
// An empty chart renders as a blank image of the same size.
func RenderPNG(c *models.CandlestickChart, width int) ([]byte, error) {
	width = clampWidth(width)
	height := DefaultHeight
	ratio := PriceRatio
	if c != nil && c.Height > 0 {
		height = c.Height
	}
	if c != nil && c.PriceRatio > 0 && c.PriceRatio < 1 {
		ratio = c.PriceRatio
	}

	if c.Empty() {
		return blankPNG(width, height)
	}

	priceHeight := int(math.Round(float64(height) * ratio))
	volumeHeight := height - priceHeight

	ticks := dateTicks(c.Categories)

	priceGraph := chart.Chart{
		Title:  c.PriceTitle,
		Width:  width,
		Height: priceHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 10, Right: 20, Bottom: 5},
		},
		XAxis: chart.XAxis{
			Ticks: blankLabels(ticks),
		},
		YAxis: chart.YAxis{
			Name:  c.PriceAxisTitle,
			Range: priceRange(c.Candles),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			candleSeries{name: "OHLC", candles: c.Candles},
		},
	}

	volumeGraph := chart.Chart{
		Title:  c.VolumeTitle,
		Width:  width,
		Height: volumeHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:  c.DateAxisTitle,
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:           c.VolumeAxisTitle,
			Range:          volumeRange(c.Volumes),
			ValueFormatter: formatVolume,
		},
		Series: []chart.Series{
			volumeSeries{name: "Volume", bars: c.Volumes},
		},
	}

	top, err := renderPanel(priceGraph)
	if err != nil {
		return nil, fmt.Errorf("price panel: %w", err)
	}
	bottom, err := renderPanel(volumeGraph)
	if err != nil {
		return nil, fmt.Errorf("volume panel: %w", err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, width, priceHeight), top, top.Bounds().Min, draw.Over)
	draw.Draw(canvas, image.Rect(0, priceHeight, width, height), bottom, bottom.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPanel(graph chart.Chart) (image.Image, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("chart decode failed: %w", err)
	}
	return img, nil
}

func blankPNG(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

func clampWidth(width int) int {
	switch {
	case width <= 0:
		return DefaultWidth
	case width < minWidth:
		return minWidth
	case width > maxWidth:
		return maxWidth
	}
	return width
}

// dateTicks labels at most maxDateLabels evenly spaced categories. The outer
// unlabelled ticks pin the axis to half a slot beyond the first and last bar.
func dateTicks(categories []string) []chart.Tick {
	n := len(categories)
	step := 1
	if n > maxDateLabels {
		step = int(math.Ceil(float64(n) / float64(maxDateLabels)))
	}

	ticks := []chart.Tick{{Value: -0.5}}
	for i := 0; i < n; i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: categories[i]})
	}
	return append(ticks, chart.Tick{Value: float64(n) - 0.5})
}

func blankLabels(ticks []chart.Tick) []chart.Tick {
	out := make([]chart.Tick, len(ticks))
	for i, t := range ticks {
		out[i] = chart.Tick{Value: t.Value}
	}
	return out
}

// priceRange spans every non-zero OHLC value with 5% headroom.
func priceRange(candles []models.Candle) *chart.ContinuousRange {
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, c := range candles {
		for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
			if v == 0 {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(1, math.Abs(hi)*0.05)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func volumeRange(bars []models.VolumeBar) *chart.ContinuousRange {
	var hi int64
	for _, b := range bars {
		if b.Volume > hi {
			hi = b.Volume
		}
	}
	if hi == 0 {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	return &chart.ContinuousRange{Min: 0, Max: float64(hi) * 1.1}
}

func formatVolume(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	switch {
	case f >= 1e9:
		return fmt.Sprintf("%.1fB", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.0fK", f/1e3)
	}
	return fmt.Sprintf("%.0f", f)
}

func directionColor(up bool) drawing.Color {
	if up {
		return colorUp
	}
	return colorDown
}

// slotHalfWidth is the half width, in pixels, of a body drawn in one category slot.
func slotHalfWidth(canvasBox chart.Box, xrange chart.Range) int {
	delta := xrange.GetDelta()
	if delta <= 0 {
		return 1
	}
	slot := float64(canvasBox.Width()) / delta
	return int(math.Max(1, slot*0.35))
}

// candleSeries draws one wick and body per category index.
type candleSeries struct {
	name    string
	candles []models.Candle
}

func (s candleSeries) GetName() string           { return s.name }
func (s candleSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s candleSeries) GetStyle() chart.Style     { return chart.Style{StrokeColor: colorAxis} }
func (s candleSeries) Validate() error {
	if len(s.candles) == 0 {
		return errors.New("candle series has no values")
	}
	return nil
}

func (s candleSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	half := slotHalfWidth(canvasBox, xrange)
	for i, c := range s.candles {
		col := directionColor(c.Close >= c.Open)
		x := canvasBox.Left + xrange.Translate(float64(i))
		yOf := func(v float64) int { return canvasBox.Bottom - yrange.Translate(v) }

		r.SetStrokeColor(col)
		r.SetStrokeWidth(1)
		if c.High != 0 && c.Low != 0 {
			r.MoveTo(x, yOf(c.High))
			r.LineTo(x, yOf(c.Low))
			r.Stroke()
		}

		top, bottom := yOf(math.Max(c.Open, c.Close)), yOf(math.Min(c.Open, c.Close))
		if bottom-top < 1 {
			bottom = top + 1
		}
		r.SetFillColor(col)
		r.MoveTo(x-half, top)
		r.LineTo(x+half, top)
		r.LineTo(x+half, bottom)
		r.LineTo(x-half, bottom)
		r.Close()
		r.FillStroke()
	}
}

// volumeSeries draws one coloured bar per category index from zero.
type volumeSeries struct {
	name string
	bars []models.VolumeBar
}

func (s volumeSeries) GetName() string           { return s.name }
func (s volumeSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s volumeSeries) GetStyle() chart.Style     { return chart.Style{StrokeColor: colorAxis} }
func (s volumeSeries) Validate() error {
	if len(s.bars) == 0 {
		return errors.New("volume series has no values")
	}
	return nil
}

func (s volumeSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	half := slotHalfWidth(canvasBox, xrange)
	base := canvasBox.Bottom - yrange.Translate(0)
	for i, b := range s.bars {
		if b.Volume <= 0 {
			continue
		}
		col := directionColor(b.Color == models.ColorUp)
		x := canvasBox.Left + xrange.Translate(float64(i))
		top := canvasBox.Bottom - yrange.Translate(float64(b.Volume))

		r.SetStrokeColor(col)
		r.SetFillColor(col)
		r.SetStrokeWidth(1)
		r.MoveTo(x-half, top)
		r.LineTo(x+half, top)
		r.LineTo(x+half, base)
		r.LineTo(x-half, base)
		r.Close()
		r.FillStroke()
	}
}
