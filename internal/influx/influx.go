// Package influx exports dashboard buckets to InfluxDB v2 as time series.
package influx

import (
	"context"
	"errors"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/theirongolddev/salesdash/internal/model"
)

// Measurement is the InfluxDB measurement name for bucket points.
const Measurement = "sales"

// Config locates the target bucket.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Validate reports the first missing setting.
func (c Config) Validate() error {
	switch {
	case c.URL == "":
		return errors.New("influx url is not set (influx.url or INFLUX_URL)")
	case c.Token == "":
		return errors.New("influx token is not set (influx.token or INFLUX_TOKEN)")
	case c.Org == "":
		return errors.New("influx org is not set")
	case c.Bucket == "":
		return errors.New("influx bucket is not set")
	}
	return nil
}

// Exporter writes points with the blocking write API.
type Exporter struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
}

// New connects and verifies the server is healthy.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	return &Exporter{client: client, writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket)}, nil
}

// Close releases the client.
func (e *Exporter) Close() {
	e.client.Close()
}

// Export writes one point per forecast bucket and returns the count.
func (e *Exporter) Export(ctx context.Context, view model.DashboardView, year int) (int, error) {
	points := Points(view, year)
	if len(points) == 0 {
		return 0, nil
	}
	if err := e.writer.WritePoint(ctx, points...); err != nil {
		return 0, fmt.Errorf("writing points: %w", err)
	}
	return len(points), nil
}

// Points converts the view's buckets into line-protocol points stamped
// at each bucket's start.
func Points(view model.DashboardView, year int) []*write.Point {
	points := make([]*write.Point, 0, len(view.Forecast))
	for _, f := range view.Forecast {
		tags := map[string]string{
			"mode":  string(view.Mode),
			"label": f.Label,
			"month": view.Criteria.Month,
		}
		if !view.Criteria.AllAgencies() && len(view.Criteria.Agencies) == 1 {
			tags["agency"] = view.Criteria.Agencies[0]
		}
		fields := map[string]any{
			"pax_usd":            f.PaxUSD.InexactFloat64(),
			"sales_usd":          f.SalesUSD.InexactFloat64(),
			"pax_npr":            f.PaxNPR.InexactFloat64(),
			"sales_npr":          f.SalesNPR.InexactFloat64(),
			"forecast_sales_usd": f.ForecastSalesUSD.InexactFloat64(),
			"forecast_sales_npr": f.ForecastSalesNPR.InexactFloat64(),
			"records":            f.Records,
		}
		points = append(points, write.NewPoint(Measurement, tags, fields, f.Key.Start(year)))
	}
	return points
}
