package charts

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

var day0 = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func decode(t *testing.T, buf *bytes.Buffer) image.Image {
	t.Helper()
	img, err := png.Decode(buf)
	require.NoError(t, err)
	return img
}

func isDark(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r < 0x4000 && g < 0x4000 && b < 0x4000
}

func TestRenderHistory(t *testing.T) {
	series := make(domain.DailySeries, 40)
	for i := range series {
		series[i] = domain.DailyPoint{Date: day0.AddDate(0, 0, i), Quantity: float64(5 + i%7)}
	}

	var buf bytes.Buffer
	require.NoError(t, RenderHistory(&buf, series, DefaultOptions()))

	img := decode(t, &buf)
	assert.Equal(t, image.Rect(0, 0, 900, 420), img.Bounds())
}

func TestRenderForecastDrawsActualDots(t *testing.T) {
	last := day0.AddDate(0, 0, 30)
	var fc []domain.ForecastPoint
	for i := 0; i <= 60; i++ {
		fc = append(fc, domain.ForecastPoint{
			Date: day0.AddDate(0, 0, i), Yhat: 10, YhatLower: 8, YhatUpper: 12,
		})
	}
	actual := domain.DailyPoint{Date: day0.AddDate(0, 0, 15), Quantity: 2}
	window := domain.DisplayWindow{
		LastObserved: last,
		Start:        day0,
		End:          day0.AddDate(0, 0, 60),
		Forecast:     fc,
		Actuals:      []domain.DailyPoint{actual},
	}

	var buf bytes.Buffer
	opts := Options{Width: 600, Height: 300, Title: "A1"}
	require.NoError(t, RenderForecast(&buf, window, opts))
	img := decode(t, &buf)
	require.Equal(t, image.Rect(0, 0, 600, 300), img.Bounds())

	// recompute the dot's pixel with the same scales
	c := &canvas{
		left: marginLeft, right: 600 - marginRight, top: marginTop, bottom: 300 - marginBottom,
		x0: window.Start, x1: window.End,
	}
	c.y0, c.y1 = valueRange([]float64{10, 8, 12, 2})
	assert.True(t, isDark(img, int(c.x(actual.Date)), int(c.y(actual.Quantity))))
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHistory(&buf, nil, Options{}))
	assert.Equal(t, image.Rect(0, 0, 900, 420), decode(t, &buf).Bounds())

	buf.Reset()
	require.NoError(t, RenderForecast(&buf, domain.DisplayWindow{}, Options{}))
	decode(t, &buf)
}

func TestRenderSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	series := domain.DailySeries{{Date: day0, Quantity: 4}}
	require.NoError(t, RenderHistory(&buf, series, DefaultOptions()))
	decode(t, &buf)
}

func TestRenderInvalidSize(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHistory(&buf, nil, Options{Width: 50, Height: 50})
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.Zero(t, buf.Len())
}

func TestDateTicks(t *testing.T) {
	ticks := dateTicks(day0, day0.AddDate(0, 0, 60), 6)
	require.NotEmpty(t, ticks)
	assert.Equal(t, day0, ticks[0])
	assert.Equal(t, "03-01", ticks[0].Format(AxisDateLayout))
	assert.Len(t, ticks, 7)
	assert.Equal(t, "04-30", ticks[6].Format(AxisDateLayout))

	assert.Len(t, dateTicks(day0, day0, 6), 1)
	assert.Empty(t, dateTicks(day0, day0.AddDate(0, 0, -1), 6))
}

func TestValueTicks(t *testing.T) {
	ticks, step := valueTicks(0, 12.6, 5)
	assert.Equal(t, 5.0, step)
	assert.Equal(t, []float64{0, 5, 10}, ticks)

	ticks, step = valueTicks(0, 1.05, 5)
	assert.InDelta(t, 0.5, step, 1e-12)
	assert.Len(t, ticks, 3)
	assert.Equal(t, "0.5", formatValue(ticks[1], step))

	assert.Equal(t, "0.2", formatValue(0.6-0.4, 0.1))
	assert.Equal(t, "1200", formatValue(1200, 200))
}

func TestValueRange(t *testing.T) {
	lo, hi := valueRange([]float64{5, 10})
	assert.Equal(t, 0.0, lo)
	assert.InDelta(t, 10.5, hi, 1e-12)

	lo, hi = valueRange(nil)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = valueRange([]float64{0, 0})
	assert.Equal(t, 0.0, lo)
	assert.InDelta(t, 1.05, hi, 1e-12)
}
