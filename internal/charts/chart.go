package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// AxisDateLayout labels the x axis
const AxisDateLayout = "01-02"

// ErrInvalidSize is returned for charts smaller than MinWidth x MinHeight
var ErrInvalidSize = errors.New("chart size too small")

const (
	MinWidth  = 200
	MinHeight = 150

	marginLeft   = 64.0
	marginRight  = 24.0
	marginTop    = 44.0
	marginBottom = 48.0

	xTickTarget = 6
	yTickTarget = 5
)

// Options control chart size and title
type Options struct {
	Width  int
	Height int
	Title  string
}

// DefaultOptions returns the size the dashboard embeds
func DefaultOptions() Options {
	return Options{Width: 900, Height: 420}
}

// Palette
var (
	colorBackground = "#ffffff"
	colorAxis       = "#444444"
	colorGrid       = "#e5e5e5"
	colorHistory    = "#1f77b4"
	colorForecast   = "#1f77b4"
	colorBand       = [4]float64{0.12, 0.47, 0.71, 0.2}
	colorActual     = "#000000"
)

// RenderHistory draws the daily quantity of one SKU as a line chart
func RenderHistory(w io.Writer, series domain.DailySeries, opts Options) error {
	if opts.Title == "" {
		opts.Title = "Historical demand"
	}
	c, err := newCanvas(opts)
	if err != nil {
		return err
	}

	if len(series) == 0 {
		c.empty()
		return c.encode(w)
	}

	lo, hi := valueRange(series.Quantities())
	c.frame(series[0].Date, series[len(series)-1].Date, lo, hi)

	c.dc.SetHexColor(colorHistory)
	c.dc.SetLineWidth(2)
	for i, p := range series {
		if i == 0 {
			c.dc.MoveTo(c.x(p.Date), c.y(p.Quantity))
			continue
		}
		c.dc.LineTo(c.x(p.Date), c.y(p.Quantity))
	}
	c.dc.Stroke()
	if len(series) == 1 {
		c.dc.DrawCircle(c.x(series[0].Date), c.y(series[0].Quantity), 3)
		c.dc.Fill()
	}

	return c.encode(w)
}

// RenderForecast draws the forecast window: the yhat line over the shaded
// interval, with actual quantities as dots
func RenderForecast(w io.Writer, window domain.DisplayWindow, opts Options) error {
	if opts.Title == "" {
		opts.Title = "Forecast"
	}
	c, err := newCanvas(opts)
	if err != nil {
		return err
	}

	fc := window.Forecast
	if len(fc) == 0 && len(window.Actuals) == 0 {
		c.empty()
		return c.encode(w)
	}

	values := make([]float64, 0, 3*len(fc)+len(window.Actuals))
	from, to := window.Start, window.End
	for _, p := range fc {
		values = append(values, p.Yhat, p.YhatLower, p.YhatUpper)
	}
	for _, a := range window.Actuals {
		values = append(values, a.Quantity)
		if a.Date.After(to) {
			to = a.Date
		}
	}
	if !to.After(from) {
		from, to = dateRange(fc, window.Actuals)
	}
	lo, hi := valueRange(values)
	c.frame(from, to, lo, hi)

	if len(fc) > 0 {
		// band: upper edge forward, lower edge back
		c.dc.SetRGBA(colorBand[0], colorBand[1], colorBand[2], colorBand[3])
		c.dc.MoveTo(c.x(fc[0].Date), c.y(fc[0].YhatUpper))
		for _, p := range fc[1:] {
			c.dc.LineTo(c.x(p.Date), c.y(p.YhatUpper))
		}
		for i := len(fc) - 1; i >= 0; i-- {
			c.dc.LineTo(c.x(fc[i].Date), c.y(fc[i].YhatLower))
		}
		c.dc.ClosePath()
		c.dc.Fill()

		c.dc.SetHexColor(colorForecast)
		c.dc.SetLineWidth(2)
		c.dc.MoveTo(c.x(fc[0].Date), c.y(fc[0].Yhat))
		for _, p := range fc[1:] {
			c.dc.LineTo(c.x(p.Date), c.y(p.Yhat))
		}
		c.dc.Stroke()
	}

	c.dc.SetHexColor(colorActual)
	for _, a := range window.Actuals {
		c.dc.DrawCircle(c.x(a.Date), c.y(a.Quantity), 3)
		c.dc.Fill()
	}

	return c.encode(w)
}

type canvas struct {
	dc    *gg.Context
	opts  Options
	label font.Face
	title font.Face

	left, right, top, bottom float64
	x0, x1                   time.Time
	y0, y1                   float64
}

func newCanvas(opts Options) (*canvas, error) {
	if opts.Width == 0 && opts.Height == 0 {
		def := DefaultOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Width < MinWidth || opts.Height < MinHeight {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}

	label, err := fontFace(11)
	if err != nil {
		return nil, err
	}
	title, err := fontFace(15)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetHexColor(colorBackground)
	dc.Clear()

	c := &canvas{
		dc:     dc,
		opts:   opts,
		label:  label,
		title:  title,
		left:   marginLeft,
		right:  float64(opts.Width) - marginRight,
		top:    marginTop,
		bottom: float64(opts.Height) - marginBottom,
	}
	c.drawTitle()
	return c, nil
}

func (c *canvas) drawTitle() {
	c.dc.SetFontFace(c.title)
	c.dc.SetHexColor(colorAxis)
	c.dc.DrawStringAnchored(c.opts.Title, float64(c.opts.Width)/2, marginTop/2, 0.5, 0.5)
}

func (c *canvas) empty() {
	c.dc.SetFontFace(c.label)
	c.dc.SetHexColor(colorAxis)
	c.dc.DrawStringAnchored("no data", float64(c.opts.Width)/2, float64(c.opts.Height)/2, 0.5, 0.5)
}

// frame fixes the scales and draws grid, axes and tick labels
func (c *canvas) frame(from, to time.Time, lo, hi float64) {
	c.x0, c.x1 = from, to
	c.y0, c.y1 = lo, hi

	c.dc.SetFontFace(c.label)
	c.dc.SetLineWidth(1)

	ticks, step := valueTicks(lo, hi, yTickTarget)
	for _, v := range ticks {
		y := c.y(v)
		c.dc.SetHexColor(colorGrid)
		c.dc.DrawLine(c.left, y, c.right, y)
		c.dc.Stroke()
		c.dc.SetHexColor(colorAxis)
		c.dc.DrawStringAnchored(formatValue(v, step), c.left-6, y, 1, 0.5)
	}

	for _, d := range dateTicks(from, to, xTickTarget) {
		x := c.x(d)
		c.dc.SetHexColor(colorAxis)
		c.dc.DrawLine(x, c.bottom, x, c.bottom+4)
		c.dc.Stroke()
		c.dc.DrawStringAnchored(d.Format(AxisDateLayout), x, c.bottom+16, 0.5, 0.5)
	}

	c.dc.SetHexColor(colorAxis)
	c.dc.DrawLine(c.left, c.top, c.left, c.bottom)
	c.dc.DrawLine(c.left, c.bottom, c.right, c.bottom)
	c.dc.Stroke()
}

func (c *canvas) x(t time.Time) float64 {
	span := c.x1.Sub(c.x0).Hours()
	if span <= 0 {
		return (c.left + c.right) / 2
	}
	return c.left + (c.right-c.left)*t.Sub(c.x0).Hours()/span
}

func (c *canvas) y(v float64) float64 {
	span := c.y1 - c.y0
	if span <= 0 {
		return (c.top + c.bottom) / 2
	}
	return c.bottom - (c.bottom-c.top)*(v-c.y0)/span
}

func (c *canvas) encode(w io.Writer) error {
	if err := c.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// valueRange returns a y range starting at zero for non-negative data, with
// headroom above the maximum
func valueRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo > 0 {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi + 0.05*(hi-lo)
}

func dateRange(fc []domain.ForecastPoint, actuals []domain.DailyPoint) (time.Time, time.Time) {
	var from, to time.Time
	see := func(d time.Time) {
		if from.IsZero() || d.Before(from) {
			from = d
		}
		if to.IsZero() || d.After(to) {
			to = d
		}
	}
	for _, p := range fc {
		see(p.Date)
	}
	for _, a := range actuals {
		see(a.Date)
	}
	return from, to
}

// dateTicks spreads about target whole-day ticks over [from, to]
func dateTicks(from, to time.Time, target int) []time.Time {
	if to.Before(from) {
		return nil
	}
	days := int(to.Sub(from).Hours() / 24)
	step := (days + target - 1) / target
	if step < 1 {
		step = 1
	}
	var ticks []time.Time
	for d := 0; d <= days; d += step {
		ticks = append(ticks, from.AddDate(0, 0, d))
	}
	return ticks
}

// valueTicks returns ticks at a 1, 2 or 5 times power-of-ten step, and the step
func valueTicks(lo, hi float64, target int) ([]float64, float64) {
	if hi <= lo || target < 1 {
		return []float64{lo}, 1
	}
	raw := (hi - lo) / float64(target)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := 10 * mag
	for _, m := range []float64{1, 2, 5} {
		if m*mag >= raw {
			step = m * mag
			break
		}
	}
	var ticks []float64
	for k := math.Ceil(lo / step); k*step <= hi+step*1e-9; k++ {
		ticks = append(ticks, k*step)
	}
	return ticks, step
}

// formatValue prints v with as many decimals as step needs
func formatValue(v, step float64) string {
	decimals := 0
	if step > 0 && step < 1 {
		decimals = int(math.Ceil(-math.Log10(step) - 1e-9))
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if s == "-0" {
		return "0"
	}
	return s
}
