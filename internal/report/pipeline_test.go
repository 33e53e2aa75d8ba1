package report

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"telegram-babylog-bot/internal/models"
)

type fakeStore struct {
	records []models.IntakeRecord
	history map[models.Category][]models.IntakeRecord
	profile *models.ChildProfile
	err     error
}

func (f *fakeStore) GetRecordsInRange(ctx context.Context, identity string, from, to int64) ([]models.IntakeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.IntakeRecord
	for _, r := range f.records {
		if r.CreatedAt >= from && r.CreatedAt <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetHistory(ctx context.Context, identity string, category models.Category, limit int) ([]models.IntakeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history[category], nil
}

func (f *fakeStore) GetChildProfile(ctx context.Context, identity string) (*models.ChildProfile, error) {
	return f.profile, nil
}

func testService(store *fakeStore) *Service {
	svc := NewService(store, NewExporter("", "http://localhost:8000"), testLoc, 0.67)
	svc.now = func() time.Time {
		fixed, _ := time.ParseInLocation("2006-01-02 15:04", "2024-01-07 10:00", testLoc)
		return fixed
	}
	return svc
}

func TestIntakeBuckets_WindowEndsToday(t *testing.T) {
	store := &fakeStore{records: []models.IntakeRecord{
		testRecord("1", "2024-01-05", 9, models.CategoryMPASI, 120, 96),
	}}
	svc := testService(store)

	buckets, w, err := svc.IntakeBuckets(context.Background(), "1001", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(buckets))
	}
	if w.End.Format("2006-01-02") != "2024-01-07" {
		t.Errorf("expected window ending today, got %s", w.End.Format("2006-01-02"))
	}
	if got := buckets[4].Totals[models.CategoryMPASI]; got != 120 {
		t.Errorf("expected 120 ml on Jan 5 bucket, got %v", got)
	}
}

func TestIntakeBuckets_DefaultsMilkCalories(t *testing.T) {
	explicit := 150.0
	store := &fakeStore{records: []models.IntakeRecord{
		testRecord("1", "2024-01-06", 9, models.CategoryMilk, 100, -1),
		{ID: "2", Identity: "1001", Category: models.CategoryMilk, Quantity: 200,
			CalorieEstimate: &explicit,
			CreatedAt:       mustTime("2024-01-06", 14).Unix()},
	}}
	svc := testService(store)

	buckets, _, err := svc.IntakeBuckets(context.Background(), "1001", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100 ml * 0.67 kcal/ml defaulted plus the explicit 150.
	if got := buckets[5].Calories[models.CategoryMilk]; got != 67+150 {
		t.Errorf("expected 217 kcal on Jan 6, got %v", got)
	}
}

func mustTime(day string, hour int) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", day, testLoc)
	return t.Add(time.Duration(hour) * time.Hour)
}

func TestIntakeBuckets_StoreError(t *testing.T) {
	svc := testService(&fakeStore{err: errors.New("connection reset")})

	if _, _, err := svc.IntakeBuckets(context.Background(), "1001", 7); err == nil {
		t.Fatal("expected error when store fails")
	}
}

func TestIntakeChart_AllZeroDetection(t *testing.T) {
	svc := testService(&fakeStore{})

	png, buckets, err := svc.IntakeChart(context.Background(), "1001", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(png) == 0 {
		t.Error("expected a rendered chart even for empty windows")
	}
	if !AllZero(buckets) {
		t.Error("expected all-zero buckets for empty store")
	}
}

func TestIntakeReport_UsesProfileName(t *testing.T) {
	store := &fakeStore{
		records: []models.IntakeRecord{testRecord("1", "2024-01-05", 9, models.CategoryMPASI, 120, 96)},
		profile: &models.ChildProfile{Identity: "1001", Name: "Raka"},
	}
	svc := testService(store)

	pdf, buckets, err := svc.IntakeReport(context.Background(), "1001", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("expected PDF output")
	}
	if AllZero(buckets) {
		t.Error("expected non-zero buckets")
	}
}

func TestGrowthChart_NoData(t *testing.T) {
	svc := testService(&fakeStore{})

	_, _, err := svc.GrowthChart(context.Background(), "1001")
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestGrowthChart_RendersBothPanels(t *testing.T) {
	// Newest first, as the store returns history.
	store := &fakeStore{history: map[models.Category][]models.IntakeRecord{
		models.CategoryWeight: {
			testRecord("3", "2024-01-06", 9, models.CategoryWeight, 8.4, -1),
			testRecord("2", "2023-12-20", 9, models.CategoryWeight, 8.1, -1),
			testRecord("1", "2023-12-01", 9, models.CategoryWeight, 7.8, -1),
		},
		models.CategoryHeight: {
			testRecord("3_h", "2024-01-06", 9, models.CategoryHeight, 69, -1),
			testRecord("2_h", "2023-12-20", 9, models.CategoryHeight, 68, -1),
		},
	}}
	svc := testService(store)

	out, n, err := svc.GrowthChart(context.Background(), "1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 points, got %d", n)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	// Weight panel on top, height panel below.
	if img.Bounds().Dy() != 2*chartHeight {
		t.Errorf("expected stacked panels of height %d, got %d", 2*chartHeight, img.Bounds().Dy())
	}
	if img.Bounds().Dx() != chartWidth {
		t.Errorf("expected width %d, got %d", chartWidth, img.Bounds().Dx())
	}
}

func TestGrowthChart_WeightOnly(t *testing.T) {
	store := &fakeStore{history: map[models.Category][]models.IntakeRecord{
		models.CategoryWeight: {
			testRecord("1", "2024-01-06", 9, models.CategoryWeight, 8.4, -1),
		},
	}}
	svc := testService(store)

	out, n, err := svc.GrowthChart(context.Background(), "1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 point, got %d", n)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	if img.Bounds().Dy() != chartHeight {
		t.Errorf("expected single panel of height %d, got %d", chartHeight, img.Bounds().Dy())
	}
}

func TestGrowthChart_HeightOnly(t *testing.T) {
	store := &fakeStore{history: map[models.Category][]models.IntakeRecord{
		models.CategoryHeight: {
			testRecord("1", "2024-01-06", 9, models.CategoryHeight, 69, -1),
		},
	}}
	svc := testService(store)

	out, n, err := svc.GrowthChart(context.Background(), "1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 point, got %d", n)
	}
	if len(out) == 0 {
		t.Error("expected rendered chart bytes")
	}
}
