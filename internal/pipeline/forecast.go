package pipeline

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
)

var (
	forecastBase   = decimal.RequireFromString("1.05")
	forecastSpread = decimal.RequireFromString("0.1")
)

// Rand is the uniform [0, 1) source used by Forecast.
type Rand interface {
	Float64() float64
}

// NewRand returns a reproducible generator for the given seed.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Forecast projects each bucket's sales as s*1.05 + U*s*0.1 with U drawn
// from rng, once per currency. The result is one point per bucket in the
// same order. A nil rng uses the unseeded global generator, so repeated
// calls give different projections within [1.05s, 1.15s).
func Forecast(buckets []model.Bucket, rng Rand) []model.ForecastPoint {
	if rng == nil {
		rng = globalRand{}
	}

	points := make([]model.ForecastPoint, len(buckets))
	for i, b := range buckets {
		points[i] = model.ForecastPoint{
			Bucket:           b,
			ForecastSalesUSD: project(b.SalesUSD, rng.Float64()),
			ForecastSalesNPR: project(b.SalesNPR, rng.Float64()),
		}
	}
	return points
}

func project(sales decimal.Decimal, u float64) decimal.Decimal {
	noise := decimal.NewFromFloat(u).Mul(sales).Mul(forecastSpread)
	return sales.Mul(forecastBase).Add(noise)
}
