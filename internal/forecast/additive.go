package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// BackendAdditive names the default backend in diagnostics
const BackendAdditive = "additive"

const (
	weeklyPeriodDays = 7.0
	yearlyPeriodDays = 365.25
)

// AdditiveConfig tunes the additive model. Zero fields take the defaults.
type AdditiveConfig struct {
	IntervalWidth      float64
	WeeklyOrder        int
	YearlyOrder        int
	WeeklyMinSpanDays  int
	YearlyMinSpanDays  int
	SeasonalityPenalty float64
}

// DefaultAdditiveConfig mirrors the usual defaults of additive forecasting
// tools: an 80% interval, weekly order 3 once two weeks of history exist and
// yearly order 10 once two years exist.
func DefaultAdditiveConfig() AdditiveConfig {
	return AdditiveConfig{
		IntervalWidth:      0.80,
		WeeklyOrder:        3,
		YearlyOrder:        10,
		WeeklyMinSpanDays:  14,
		YearlyMinSpanDays:  730,
		SeasonalityPenalty: 0.1,
	}
}

// AdditiveBackend fits y = trend + weekly + yearly by penalized least squares.
// The trend is linear in time scaled to [0, 1] over the history; seasonal
// components are Fourier series on absolute calendar time. Only seasonal
// coefficients are penalized.
type AdditiveBackend struct {
	cfg AdditiveConfig
}

// NewAdditiveBackend creates the default backend
func NewAdditiveBackend(cfg AdditiveConfig) *AdditiveBackend {
	def := DefaultAdditiveConfig()
	if cfg.IntervalWidth <= 0 || cfg.IntervalWidth >= 1 {
		cfg.IntervalWidth = def.IntervalWidth
	}
	if cfg.WeeklyOrder <= 0 {
		cfg.WeeklyOrder = def.WeeklyOrder
	}
	if cfg.YearlyOrder <= 0 {
		cfg.YearlyOrder = def.YearlyOrder
	}
	if cfg.WeeklyMinSpanDays <= 0 {
		cfg.WeeklyMinSpanDays = def.WeeklyMinSpanDays
	}
	if cfg.YearlyMinSpanDays <= 0 {
		cfg.YearlyMinSpanDays = def.YearlyMinSpanDays
	}
	if cfg.SeasonalityPenalty <= 0 {
		cfg.SeasonalityPenalty = def.SeasonalityPenalty
	}
	return &AdditiveBackend{cfg: cfg}
}

// Name implements Backend
func (b *AdditiveBackend) Name() string {
	return BackendAdditive
}

// MinObservations implements Backend. Intercept and trend need two points.
func (b *AdditiveBackend) MinObservations() int {
	return 2
}

// Fit implements Backend
func (b *AdditiveBackend) Fit(ctx context.Context, dates []time.Time, values []float64) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(dates) != len(values) {
		return nil, fmt.Errorf("got %d dates and %d values", len(dates), len(values))
	}
	if len(dates) < b.MinObservations() {
		return nil, &InsufficientHistoryError{Have: len(dates), Need: b.MinObservations()}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("value %d is not finite", i)
		}
	}

	origin := dates[0]
	span := daysBetween(origin, dates[len(dates)-1])

	m := &additiveModel{
		origin: origin,
		tscale: span,
		z:      normalQuantile(b.cfg.IntervalWidth),
		width:  b.cfg.IntervalWidth,
	}
	if m.tscale <= 0 {
		m.tscale = 1
	}
	if span >= float64(b.cfg.WeeklyMinSpanDays) {
		m.weekly = b.cfg.WeeklyOrder
	}
	if span >= float64(b.cfg.YearlyMinSpanDays) {
		m.yearly = b.cfg.YearlyOrder
	}

	p := m.parameters()
	design := mat.NewDense(len(dates), p, nil)
	for i, d := range dates {
		design.SetRow(i, m.features(d))
	}
	y := mat.NewVecDense(len(values), append([]float64(nil), values...))

	beta, chol, err := ridgeFit(design, y, 2, b.cfg.SeasonalityPenalty)
	if err != nil {
		return nil, err
	}
	m.beta = beta
	m.chol = chol

	var fitted, resid mat.VecDense
	fitted.MulVec(design, beta)
	resid.SubVec(y, &fitted)
	sse := mat.Dot(&resid, &resid)

	dof := len(dates) - p
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(sse / float64(dof))
	m.n = len(dates)

	return m, nil
}

type additiveModel struct {
	origin time.Time
	tscale float64
	weekly int
	yearly int
	beta   *mat.VecDense
	chol   *mat.Cholesky
	sigma  float64
	z      float64
	width  float64
	n      int
}

func (m *additiveModel) parameters() int {
	return 2 + 2*m.weekly + 2*m.yearly
}

// features returns the design row for d: intercept, trend, then sin/cos
// pairs for each weekly and yearly order.
func (m *additiveModel) features(d time.Time) []float64 {
	x := make([]float64, 0, m.parameters())
	x = append(x, 1, daysBetween(m.origin, d)/m.tscale)

	abs := float64(d.Unix()) / 86400
	for k := 1; k <= m.weekly; k++ {
		a := 2 * math.Pi * float64(k) * abs / weeklyPeriodDays
		x = append(x, math.Sin(a), math.Cos(a))
	}
	for k := 1; k <= m.yearly; k++ {
		a := 2 * math.Pi * float64(k) * abs / yearlyPeriodDays
		x = append(x, math.Sin(a), math.Cos(a))
	}
	return x
}

// Predict implements Model. The interval is yhat ± z·σ·sqrt(1 + leverage).
func (m *additiveModel) Predict(ctx context.Context, dates []time.Time) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Prediction, len(dates))
	for i, d := range dates {
		x := mat.NewVecDense(m.parameters(), m.features(d))
		yhat := mat.Dot(x, m.beta)
		lev := math.Max(leverage(m.chol, x), 0)
		half := m.z * m.sigma * math.Sqrt(1+lev)
		out[i] = Prediction{Date: d, Yhat: yhat, Lower: yhat - half, Upper: yhat + half}
	}
	return out, nil
}

// Diagnostics implements Model
func (m *additiveModel) Diagnostics() domain.FitDiagnostics {
	return domain.FitDiagnostics{
		Backend:           BackendAdditive,
		Observations:      m.n,
		Parameters:        m.parameters(),
		WeeklySeasonality: m.weekly > 0,
		YearlySeasonality: m.yearly > 0,
		ResidualStdDev:    m.sigma,
		IntervalWidth:     m.width,
	}
}

// normalQuantile returns z such that P(|Z| <= z) = width for a standard normal
func normalQuantile(width float64) float64 {
	return distuv.UnitNormal.Quantile(0.5 + width/2)
}

// ridgeFit solves (XᵀX + λP)β = Xᵀy by Cholesky, where P is the identity on
// the columns from penalizeFrom onwards. The factorization is returned for
// leverage computations.
func ridgeFit(x *mat.Dense, y *mat.VecDense, penalizeFrom int, lambda float64) (*mat.VecDense, *mat.Cholesky, error) {
	_, p := x.Dims()

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	for j := penalizeFrom; j < p; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+lambda)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, nil, errSingular
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	beta := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(beta, &xty); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errSingular, err)
	}
	return beta, &chol, nil
}

// leverage returns xᵀ(XᵀX + λP)⁻¹x, or NaN when the solve is ill-conditioned
func leverage(chol *mat.Cholesky, x *mat.VecDense) float64 {
	var s mat.VecDense
	if err := chol.SolveVecTo(&s, x); err != nil {
		return math.NaN()
	}
	return mat.Dot(x, &s)
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}
