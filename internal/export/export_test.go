package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/trackview/internal/clock"
	"github.com/sadopc/trackview/internal/timeline"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func sampleReport() Report {
	start := now.Add(-2 * time.Hour)
	end1 := start.Add(time.Hour)
	idle := int64(600)
	ratio := 0.5

	s := &timeline.Session{
		ID:           7,
		StartedAt:    start,
		TotalSeconds: 7200,
		TimeBlocks: []timeline.TimeBlock{
			{
				ID:          1,
				StartedAt:   start,
				EndedAt:     &end1,
				IdleSeconds: &idle,
				Windows: []timeline.Window{
					{ID: 1, WindowTitle: "Editor", Screenshots: []timeline.Screenshot{{ID: 10, Image: "a.png"}, {ID: 11, Image: "b.png"}}},
					{ID: 2, Screenshots: []timeline.Screenshot{{ID: 12, Image: "c.png"}}},
				},
			},
			{
				ID:        2,
				StartedAt: end1,
				IdleRatio: &ratio,
				IsFlagged: true,
			},
		},
	}
	r := Build(s, timeline.NewCalculator(clock.Fixed(now)))
	r.Explanations = map[int64]string{2: "submitted"}
	return r
}

// ============================================================
// Report
// ============================================================

func TestBuild(t *testing.T) {
	r := sampleReport()
	if len(r.Blocks) != 2 {
		t.Fatalf("expected 2 block metrics, got %d", len(r.Blocks))
	}
	if r.Blocks[0].Worked != 3000 || r.Blocks[0].Productivity != 83 {
		t.Fatalf("unexpected first block: %+v", r.Blocks[0])
	}
	// ongoing block measured against the fixed clock
	if r.Blocks[1].Total != 3600 || r.Blocks[1].Idle != 1800 {
		t.Fatalf("unexpected ongoing block: %+v", r.Blocks[1])
	}
	if r.Summary.WorkedSeconds != 4800 || r.Summary.Productivity != 67 {
		t.Fatalf("unexpected summary: %+v", r.Summary)
	}
	if !r.GeneratedAt.Equal(now) {
		t.Fatalf("GeneratedAt = %v, want %v", r.GeneratedAt, now)
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")
	if err := ToCSV(sampleReport(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 2 data rows
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}
	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "1" {
		t.Fatalf("Block ID = %q, want 1", row[0])
	}
	if row[4] != "Editor; Unknown Window" {
		t.Fatalf("Windows = %q", row[4])
	}
	if row[5] != "3" {
		t.Fatalf("Screenshots = %q, want 3", row[5])
	}
	if row[6] != "3000" || row[7] != "600" || row[8] != "3600" {
		t.Fatalf("seconds columns = %v", row[6:9])
	}
	if row[9] != "00:50:00" {
		t.Fatalf("Worked = %q, want 00:50:00", row[9])
	}
	if row[10] != "83" {
		t.Fatalf("Productivity = %q, want 83", row[10])
	}

	ongoing := records[2]
	if ongoing[2] != "" {
		t.Fatalf("ongoing block should have empty end time, got %q", ongoing[2])
	}
	if ongoing[3] != "true" || ongoing[11] != "submitted" {
		t.Fatalf("flag/explanation columns = %q, %q", ongoing[3], ongoing[11])
	}
}

func TestToCSVEmptySession(t *testing.T) {
	s := &timeline.Session{ID: 1, StartedAt: now, TimeBlocks: []timeline.TimeBlock{}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Build(s, timeline.NewCalculator(clock.Fixed(now)))); err != nil {
		t.Fatal(err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(sampleReport(), "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	r := sampleReport()
	r.Session.TimeBlocks[0].Windows[0].WindowTitle = `main.go - "trackview", vim`

	var buf bytes.Buffer
	if err := WriteCSV(&buf, r); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("csv with special characters did not parse: %v", err)
	}
	if !strings.HasPrefix(records[1][4], `main.go - "trackview", vim`) {
		t.Fatalf("special characters not preserved: %q", records[1][4])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := ToJSON(sampleReport(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got jsonExport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}

	if got.ExportedAt != "2026-03-02T12:00:00Z" {
		t.Fatalf("exported_at = %q", got.ExportedAt)
	}
	if got.Count != 2 || len(got.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got count=%d len=%d", got.Count, len(got.Blocks))
	}
	if got.Session.ID != 7 || got.Session.WorkedSeconds != 4800 || got.Session.Productivity != 67 {
		t.Fatalf("unexpected session: %+v", got.Session)
	}
	if got.Session.EndedAt != "" {
		t.Fatalf("open session should omit ended_at, got %q", got.Session.EndedAt)
	}
	b := got.Blocks[1]
	if !b.Flagged || b.Explanation != "submitted" || b.IdleSeconds != 1800 {
		t.Fatalf("unexpected block: %+v", b)
	}
}

func TestToJSONEmptyBlocksIsArray(t *testing.T) {
	s := &timeline.Session{ID: 1, StartedAt: now, TimeBlocks: []timeline.TimeBlock{}}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Build(s, timeline.NewCalculator(clock.Fixed(now)))); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"blocks": []`) {
		t.Fatalf("expected empty blocks array, got %s", buf.String())
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(sampleReport(), "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}
