package pipeline

import "github.com/theirongolddev/salesdash/internal/model"

type computeOptions struct {
	rng Rand
}

// Option customizes Compute.
type Option func(*computeOptions)

// WithRand injects the forecast generator. Pass NewRand(seed) for
// reproducible projections.
func WithRand(r Rand) Option {
	return func(o *computeOptions) { o.rng = r }
}

// Compute runs filter, aggregation and forecast over an immutable record
// set and returns the complete dashboard snapshot. Agency and month
// options are drawn from the unfiltered records so the choices do not
// shrink as filters are applied.
func Compute(records []model.TransactionRecord, criteria model.FilterCriteria, mode model.Mode, opts ...Option) model.DashboardView {
	var o computeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if mode == "" {
		mode = model.Monthly
	}

	filtered := Filter(records, criteria)
	totals, buckets := Aggregate(filtered, mode)

	return model.DashboardView{
		Criteria:      criteria,
		Mode:          mode,
		Totals:        totals,
		Buckets:       buckets,
		Forecast:      Forecast(buckets, o.rng),
		AgencyOptions: AgencyOptions(records),
		MonthOptions:  MonthOptions(records),
		Transactions:  filtered,
	}
}
