package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"telegram-babylog-bot/internal/access"
	"telegram-babylog-bot/internal/models"
	"telegram-babylog-bot/internal/report"
)

type fakeRecordStore struct {
	records []models.IntakeRecord
	history []models.IntakeRecord
}

func (f *fakeRecordStore) GetRecordsInRange(ctx context.Context, identity string, from, to int64) ([]models.IntakeRecord, error) {
	var out []models.IntakeRecord
	for _, r := range f.records {
		if r.CreatedAt >= from && r.CreatedAt <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) GetHistory(ctx context.Context, identity string, category models.Category, limit int) ([]models.IntakeRecord, error) {
	return f.history, nil
}

func (f *fakeRecordStore) GetChildProfile(ctx context.Context, identity string) (*models.ChildProfile, error) {
	return nil, nil
}

type fakeSubStore struct {
	sub *models.Subscription
}

func (f *fakeSubStore) GetSubscription(ctx context.Context, identity string) (*models.Subscription, error) {
	return f.sub, nil
}

func testRouter(t *testing.T, records *fakeRecordStore, subs *fakeSubStore) http.Handler {
	t.Helper()
	exporter := report.NewExporter(t.TempDir(), "http://localhost:8000")
	svc := report.NewService(records, exporter, time.UTC, 0.67)
	return New(svc, access.NewGate(subs), t.TempDir(), 7)
}

func premiumSub() *models.Subscription {
	return &models.Subscription{
		Identity: "1001",
		Tier:     models.TierPremium,
		End:      time.Now().Add(24 * time.Hour).Unix(),
	}
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestServer_Index(t *testing.T) {
	router := testRouter(t, &fakeRecordStore{}, &fakeSubStore{})

	rec := get(t, router, "/")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestServer_IntakeChart(t *testing.T) {
	store := &fakeRecordStore{records: []models.IntakeRecord{{
		ID: "1", Identity: "1001", Category: models.CategoryMPASI,
		Quantity: 120, CreatedAt: time.Now().Add(-24 * time.Hour).Unix(),
	}}}
	router := testRouter(t, store, &fakeSubStore{})

	rec := get(t, router, "/mpasi-milk-graph/1001")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
}

func TestServer_IntakeChart_EmptyWindow(t *testing.T) {
	router := testRouter(t, &fakeRecordStore{}, &fakeSubStore{})

	rec := get(t, router, "/mpasi-milk-graph/1001")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No intake data") {
		t.Errorf("expected empty-window message, got %q", rec.Body.String())
	}
}

func TestServer_IntakeChart_MalformedIdentity(t *testing.T) {
	router := testRouter(t, &fakeRecordStore{}, &fakeSubStore{})

	rec := get(t, router, "/mpasi-milk-graph/bad..identity")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_Report_RequiresPremium(t *testing.T) {
	router := testRouter(t, &fakeRecordStore{}, &fakeSubStore{})

	rec := get(t, router, "/report-mpasi-milk/1001")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "premium") {
		t.Errorf("expected premium upsell, got %q", rec.Body.String())
	}
}

func TestServer_Report_Premium(t *testing.T) {
	store := &fakeRecordStore{records: []models.IntakeRecord{{
		ID: "1", Identity: "1001", Category: models.CategoryMilk,
		Quantity: 200, CreatedAt: time.Now().Add(-2 * time.Hour).Unix(),
	}}}
	router := testRouter(t, store, &fakeSubStore{sub: premiumSub()})

	rec := get(t, router, "/report-mpasi-milk/1001")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("expected PDF body")
	}
}

func TestServer_GrowthChart_NoData(t *testing.T) {
	router := testRouter(t, &fakeRecordStore{}, &fakeSubStore{sub: premiumSub()})

	rec := get(t, router, "/growth-chart/1001")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No growth records") {
		t.Errorf("expected no-data message, got %q", rec.Body.String())
	}
}

func TestServer_GrowthChart_Premium(t *testing.T) {
	store := &fakeRecordStore{history: []models.IntakeRecord{{
		ID: "1", Identity: "1001", Category: models.CategoryWeight,
		Quantity: 8.4, CreatedAt: time.Now().Add(-48 * time.Hour).Unix(),
	}}}
	router := testRouter(t, store, &fakeSubStore{sub: premiumSub()})

	rec := get(t, router, "/growth-chart/1001")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
}
