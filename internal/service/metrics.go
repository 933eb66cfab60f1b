package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"carepulse/pkg/model"
)

// ErrUnknownMetric is returned for series queries naming no known metric
var ErrUnknownMetric = errors.New("unknown metric")

// Baseline vitals scaled per source to produce the snapshot.
const (
	baseHeartRate       = 72
	baseSystolic        = 120
	baseDiastolic       = 80
	baseSpO2            = 98
	baseRespiratoryRate = 16
	baseSteps           = 6500
	baseCalories        = 1850
)

// sourceScale gives each provider a slightly different reading so
// switching sources visibly changes the dashboard
var sourceScale = map[model.SourceType]float64{
	model.SourceLocal:       1.0,
	model.SourceGoogleFit:   1.05,
	model.SourceAppleHealth: 0.98,
	model.SourceSamsung:     1.02,
	model.SourceFitbit:      1.03,
}

// Metric names accepted by series queries.
const (
	MetricHeartRate     = "heartRate"
	MetricBloodPressure = "bloodPressure"
	MetricSpO2          = "spO2"
	MetricSteps         = "steps"
	MetricCalories      = "calories"
)

var seriesMetrics = []string{MetricHeartRate, MetricBloodPressure, MetricSpO2, MetricSteps, MetricCalories}

const stepsTarget = 10000

// MetricsService computes vitals snapshots and mock time series for
// the dashboard. Snapshots are pure functions of the active source;
// series data is generated until real provider queries exist.
type MetricsService struct {
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(logger *zap.Logger) *MetricsService {
	return &MetricsService{
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Snapshot computes the six displayed vitals for one source. Every
// value is the floor of its baseline times the source's scale factor.
func (s *MetricsService) Snapshot(source model.SourceType) model.MetricSnapshot {
	factor, ok := sourceScale[source]
	if !ok {
		factor = 1.0
	}

	scale := func(base int) int {
		return int(math.Floor(float64(base) * factor))
	}

	return model.MetricSnapshot{
		HeartRate:       scale(baseHeartRate),
		BloodPressure:   fmt.Sprintf("%d/%d", scale(baseSystolic), scale(baseDiastolic)),
		SpO2:            scale(baseSpO2),
		RespiratoryRate: scale(baseRespiratoryRate),
		Steps:           scale(baseSteps),
		Calories:        scale(baseCalories),
	}
}

// Series returns one mock data point per day of the past week, oldest
// first, labeled with the weekday abbreviation.
func (s *MetricsService) Series(ctx context.Context, source model.SourceType, metric string, end time.Time) ([]model.SeriesPoint, error) {
	low, high, target, err := seriesRange(metric)
	if err != nil {
		return nil, err
	}

	points := make([]model.SeriesPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		day := end.AddDate(0, 0, -i)
		point := model.SeriesPoint{
			Label: day.Format("Mon"),
			Value: s.randomBetween(low, high),
		}
		if target > 0 {
			t := target
			point.Target = &t
		}
		points = append(points, point)
	}

	s.logger.Debug("generated metric series",
		zap.String("source", string(source)),
		zap.String("metric", metric),
		zap.Int("points", len(points)),
	)

	return points, nil
}

// SeriesBundle fetches several metrics concurrently and collects them
// by metric name. Unknown metric names fail the whole bundle.
func (s *MetricsService) SeriesBundle(ctx context.Context, source model.SourceType, metrics []string, end time.Time) (map[string][]model.SeriesPoint, error) {
	if len(metrics) == 0 {
		metrics = seriesMetrics
	}

	var (
		resultMu sync.Mutex
		results  = make(map[string][]model.SeriesPoint, len(metrics))
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for _, metric := range metrics {
		metric := metric
		p.Go(func(ctx context.Context) error {
			points, err := s.Series(ctx, source, metric, end)
			if err != nil {
				return err
			}

			resultMu.Lock()
			results[metric] = points
			resultMu.Unlock()

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build series bundle: %w", err)
	}

	return results, nil
}

// seriesRange mirrors the mock weekly chart ranges; target is zero
// for metrics with no goal line
func seriesRange(metric string) (low, high, target int, err error) {
	switch metric {
	case MetricHeartRate:
		return 65, 85, 0, nil
	case MetricBloodPressure:
		return 110, 130, 0, nil
	case MetricSpO2:
		return 95, 100, 0, nil
	case MetricSteps:
		return 5000, 12000, stepsTarget, nil
	case MetricCalories:
		return 1000, 2000, 0, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
}

func (s *MetricsService) randomBetween(low, high int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return low + s.rng.Intn(high-low)
}
