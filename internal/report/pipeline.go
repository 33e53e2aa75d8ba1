package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-babylog-bot/internal/models"
)

// ErrNoData marks a request whose window contains no usable records.
var ErrNoData = errors.New("no data in reporting window")

// RecordStore supplies the raw records and subject profiles the pipeline
// reads. The pipeline never writes through it.
type RecordStore interface {
	GetRecordsInRange(ctx context.Context, identity string, from, to int64) ([]models.IntakeRecord, error)
	GetHistory(ctx context.Context, identity string, category models.Category, limit int) ([]models.IntakeRecord, error)
	GetChildProfile(ctx context.Context, identity string) (*models.ChildProfile, error)
}

// Service runs the daily intake aggregation and rendering pipeline. All
// transformations are pure over their inputs; concurrent requests share no
// mutable state.
type Service struct {
	store        RecordStore
	exporter     *Exporter
	loc          *time.Location
	asiKcalPerML float64
	now          func() time.Time
}

// NewService creates the reporting pipeline
func NewService(store RecordStore, exporter *Exporter, loc *time.Location, asiKcalPerML float64) *Service {
	return &Service{
		store:        store,
		exporter:     exporter,
		loc:          loc,
		asiKcalPerML: asiKcalPerML,
		now:          time.Now,
	}
}

// Exporter returns the artifact exporter used by this pipeline
func (s *Service) Exporter() *Exporter {
	return s.exporter
}

// IntakeBuckets aggregates an identity's records into daily buckets for
// the window of the given length ending today.
func (s *Service) IntakeBuckets(ctx context.Context, identity string, days int) ([]DailyBucket, Window, error) {
	w := NewWindow(s.now().In(s.loc), days, s.loc)
	from := w.Start.Unix()
	to := w.End.AddDate(0, 0, 1).Add(-time.Second).Unix()

	records, err := s.store.GetRecordsInRange(ctx, identity, from, to)
	if err != nil {
		return nil, w, fmt.Errorf("failed to load records: %w", err)
	}
	s.applyMilkCalorieDefaults(records)

	buckets, err := Aggregate(records, w, s.loc)
	if err != nil {
		return nil, w, err
	}
	return buckets, w, nil
}

// applyMilkCalorieDefaults fills missing milk calorie estimates from the
// configured kcal-per-ml factor. ASI volumes are logged without explicit
// calories; formula entries carry their own estimate.
func (s *Service) applyMilkCalorieDefaults(records []models.IntakeRecord) {
	for i := range records {
		if records[i].Category == models.CategoryMilk && records[i].CalorieEstimate == nil {
			kcal := records[i].Quantity * s.asiKcalPerML
			records[i].CalorieEstimate = &kcal
		}
	}
}

// IntakeChart renders the 7-day stacked-bar intake chart as PNG bytes.
// The returned buckets let the caller detect an all-zero window.
func (s *Service) IntakeChart(ctx context.Context, identity string, days int) ([]byte, []DailyBucket, error) {
	buckets, w, err := s.IntakeBuckets(ctx, identity, days)
	if err != nil {
		return nil, nil, err
	}

	png, err := Compose(intakeChartSpec(buckets, identity, w))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compose intake chart: %w", err)
	}
	return png, buckets, nil
}

// IntakeReport renders the PDF intake report for the window.
func (s *Service) IntakeReport(ctx context.Context, identity string, days int) ([]byte, []DailyBucket, error) {
	buckets, w, err := s.IntakeBuckets(ctx, identity, days)
	if err != nil {
		return nil, nil, err
	}

	chart, err := Compose(intakeChartSpec(buckets, identity, w))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compose report chart: %w", err)
	}

	subject := Subject{Identity: identity}
	if profile, err := s.store.GetChildProfile(ctx, identity); err == nil && profile != nil {
		subject.Name = profile.Name
	}

	pdf, err := Assemble(chart, buckets, subject, w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to assemble report: %w", err)
	}
	return pdf, buckets, nil
}

// GrowthChart renders the longitudinal growth chart: a weight panel and,
// below it, a height panel when height records exist. Returns ErrNoData
// when the identity has no growth records yet.
func (s *Service) GrowthChart(ctx context.Context, identity string) ([]byte, int, error) {
	weights, err := s.store.GetHistory(ctx, identity, models.CategoryWeight, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load weight records: %w", err)
	}
	heights, err := s.store.GetHistory(ctx, identity, models.CategoryHeight, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load height records: %w", err)
	}
	if len(weights) == 0 && len(heights) == 0 {
		return nil, 0, ErrNoData
	}

	title := "Grafik Pertumbuhan"
	if profile, err := s.store.GetChildProfile(ctx, identity); err == nil && profile != nil && profile.Name != "" {
		title = "Grafik Pertumbuhan - " + profile.Name
	}

	var panels [][]byte
	if len(weights) > 0 {
		labels, values := growthSeries(weights, s.loc)
		panel, err := Compose(ChartSpec{
			Title:            title,
			Subtitle:         "Perkembangan Berat Badan",
			Labels:           labels,
			PrimaryAxisLabel: "Berat (kg)",
			Series: []SeriesDef{
				{Label: "Berat Badan", Values: values, Style: Line, Axis: AxisPrimary, Color: "#2E86AB", Marker: MarkerCircle},
			},
		})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to compose weight panel: %w", err)
		}
		panels = append(panels, panel)
	}
	if len(heights) > 0 {
		labels, values := growthSeries(heights, s.loc)
		spec := ChartSpec{
			Title:            "Perkembangan Tinggi Badan",
			Labels:           labels,
			PrimaryAxisLabel: "Tinggi (cm)",
			Series: []SeriesDef{
				{Label: "Tinggi Badan", Values: values, Style: Line, Axis: AxisPrimary, Color: "#E67E22", Marker: MarkerSquare},
			},
		}
		if len(panels) == 0 {
			spec.Title = title
			spec.Subtitle = "Perkembangan Tinggi Badan"
		}
		panel, err := Compose(spec)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to compose height panel: %w", err)
		}
		panels = append(panels, panel)
	}

	png, err := stackPanels(panels)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to compose growth chart: %w", err)
	}
	return png, len(weights) + len(heights), nil
}

// growthSeries converts newest-first history into chronological chart
// labels and values.
func growthSeries(records []models.IntakeRecord, loc *time.Location) ([]string, []float64) {
	labels := make([]string, len(records))
	values := make([]float64, len(records))
	for i, rec := range records {
		j := len(records) - 1 - i
		labels[j] = time.Unix(rec.CreatedAt, 0).In(loc).Format("02/01")
		values[j] = rec.Quantity
	}
	return labels, values
}

// intakeChartSpec builds the stacked-bar + calorie-line chart spec from the
// bucket sequence. Quantities share the primary axis; calories overlay on
// the secondary axis.
func intakeChartSpec(buckets []DailyBucket, identity string, w Window) ChartSpec {
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Date.Format("01/02")
	}

	return ChartSpec{
		Title:              "MPASI & Milk Intake Chart",
		Subtitle:           fmt.Sprintf("User: %s | Period: %s", identity, w),
		Labels:             labels,
		PrimaryAxisLabel:   "Quantity (ml)",
		SecondaryAxisLabel: "Calories",
		ShowValueLabels:    true,
		Series: []SeriesDef{
			{Label: "MPASI (ml)", Values: QuantitySeries(buckets, models.CategoryMPASI), Style: StackedBar, Axis: AxisPrimary, Color: "#FF9999"},
			{Label: "Milk (ml)", Values: QuantitySeries(buckets, models.CategoryMilk), Style: StackedBar, Axis: AxisPrimary, Color: "#66B2FF"},
			{Label: "MPASI Calories", Values: CalorieSeries(buckets, models.CategoryMPASI), Style: Line, Axis: AxisSecondary, Color: "#D62728", Marker: MarkerCircle},
			{Label: "Milk Calories", Values: CalorieSeries(buckets, models.CategoryMilk), Style: Line, Axis: AxisSecondary, Color: "#00008B", Marker: MarkerSquare},
		},
	}
}
