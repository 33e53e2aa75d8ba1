package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExport_WritesDeterministicName(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "http://localhost:8000/")

	path, url, err := e.Export([]byte("first"), "1001", "intake_chart", "png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "intake_chart_1001.png" {
		t.Errorf("expected deterministic filename, got %s", filepath.Base(path))
	}
	if url != "http://localhost:8000/static/intake_chart_1001.png" {
		t.Errorf("unexpected URL: %s", url)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read exported file: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("expected content %q, got %q", "first", data)
	}
}

func TestExport_OverwritesOnRepeat(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "http://localhost:8000")

	if _, _, err := e.Export([]byte("first"), "1001", "intake_chart", "png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path, _, err := e.Export([]byte("second"), "1001", "intake_chart", "png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("expected second write to win, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list export root: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file after repeat export, got %d", len(entries))
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("leftover temp file: %s", entry.Name())
		}
	}
}

func TestExport_SanitizesIdentity(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "http://localhost:8000")

	path, _, err := e.Export([]byte("x"), "whatsapp:+6281234/..", "growth_chart", "png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("expected export to stay in root, got %s", path)
	}
	base := filepath.Base(path)
	if strings.ContainsAny(base, ":/") {
		t.Errorf("expected unsafe characters replaced, got %s", base)
	}
	if base != "growth_chart_whatsapp_3a+6281234_2f_2e_2e.png" {
		t.Errorf("unexpected sanitized name: %s", base)
	}
}

func TestExport_DistinctIdentitiesDistinctPaths(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "http://localhost:8000")

	pathA, urlA, err := e.Export([]byte("data of user:1"), "user:1", "intake_chart", "png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pathB, urlB, err := e.Export([]byte("data of user_1"), "user_1", "intake_chart", "png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pathA == pathB {
		t.Fatalf("distinct identities share export path %s", pathA)
	}
	if urlA == urlB {
		t.Errorf("distinct identities share download URL %s", urlA)
	}

	data, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatalf("failed to read first identity's artifact: %v", err)
	}
	if string(data) != "data of user:1" {
		t.Errorf("first identity's artifact was replaced: got %q", data)
	}
}

func TestSanitizeIdentity(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"1001", "1001"},
		{"whatsapp:+62812", "whatsapp_3a+62812"},
		{"user_1", "user_5f1"},
		{"user:1", "user_3a1"},
		{"../../etc/passwd", "_2e_2e_2f_2e_2e_2fetc_2fpasswd"},
		{"a b", "a_20b"},
	}
	for _, c := range cases {
		if got := sanitizeIdentity(c.in); got != c.want {
			t.Errorf("sanitizeIdentity(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}
