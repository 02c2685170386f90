package actionlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
	"github.com/d0ssh1/Auto-Aquarium/internal/retry"
)

func TestList_ReturnsMostRecentFirst(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	base := time.Date(2026, 8, 6, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"d1", "d2", "d3"} {
		sink.Append(devicemgr.ActionRecord{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			DeviceID:  id,
			Outcome:   retry.Success,
		})
	}

	result, err := sink.List(Filter{Date: "2026-08-06"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(result.Records))
	}
	if result.Records[0].DeviceID != "d3" || result.Records[2].DeviceID != "d1" {
		t.Errorf("not most-recent-first: %+v", result.Records)
	}
}

func TestList_FiltersByLevel(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	ts := time.Date(2026, 8, 6, 8, 0, 0, 0, time.UTC)
	sink.Append(devicemgr.ActionRecord{Timestamp: ts, DeviceID: "d1", Outcome: retry.Success})
	sink.Append(devicemgr.ActionRecord{Timestamp: ts, DeviceID: "d2", Outcome: retry.Fail})

	result, err := sink.List(Filter{Date: "2026-08-06", Level: "FAIL"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].DeviceID != "d2" {
		t.Errorf("got %+v, want only d2/FAIL", result.Records)
	}
}

func TestList_MissingDateFileReturnsEmptyResult(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	result, err := sink.List(Filter{Date: "2020-01-01"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Records) != 0 {
		t.Errorf("got %d records, want 0", len(result.Records))
	}
}

func TestList_RequiresDate(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	if _, err := sink.List(Filter{}); err == nil {
		t.Fatal("List() with no Date: want error, got nil")
	}
}

func TestList_Pagination(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	base := time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		sink.Append(devicemgr.ActionRecord{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			DeviceID:  "d1",
			Outcome:   retry.Success,
		})
	}

	page1, err := sink.List(Filter{Date: "2026-08-06", Page: 1})
	if err != nil {
		t.Fatalf("List() page 1 error = %v", err)
	}
	if len(page1.Records) != pageSize {
		t.Errorf("page 1 got %d records, want %d", len(page1.Records), pageSize)
	}
	if page1.Total != 150 {
		t.Errorf("Total = %d, want 150", page1.Total)
	}

	page2, err := sink.List(Filter{Date: "2026-08-06", Page: 2})
	if err != nil {
		t.Fatalf("List() page 2 error = %v", err)
	}
	if len(page2.Records) != 50 {
		t.Errorf("page 2 got %d records, want 50", len(page2.Records))
	}
}

func TestList_TolerantOfTrailingMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actions-2026-08-06.log")
	good := `{"timestamp":"2026-08-06T08:00:00Z","device_id":"d1","action":"TURN_ON","outcome":"SUCCESS"}` + "\n"
	bad := `{"timestamp":"2026-08-06T08:01:00Z","device_id":"d2",` // truncated mid-write
	if err := os.WriteFile(path, []byte(good+bad), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	result, err := sink.List(Filter{Date: "2026-08-06"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("got %d records, want 1 (malformed trailing line discarded)", len(result.Records))
	}
	if result.Records[0].DeviceID != "d1" {
		t.Errorf("got %+v, want the well-formed d1 record", result.Records[0])
	}
}

func TestList_DiscardsOnlyTheMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actions-2026-08-06.log")
	lines := []string{
		`{"timestamp":"2026-08-06T08:00:00Z","device_id":"d1","action":"TURN_ON","outcome":"SUCCESS"}`,
		`not valid json at all`,
		`{"timestamp":"2026-08-06T08:02:00Z","device_id":"d3","action":"TURN_ON","outcome":"SUCCESS"}`,
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	result, err := sink.List(Filter{Date: "2026-08-06"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2 (only the malformed middle line dropped)", len(result.Records))
	}
	ids := map[string]bool{result.Records[0].DeviceID: true, result.Records[1].DeviceID: true}
	if !ids["d1"] || !ids["d3"] {
		t.Errorf("got %+v, want d1 and d3 present", result.Records)
	}
}

func TestExport_ReturnsRawNDJSON(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	ts := time.Date(2026, 8, 6, 8, 0, 0, 0, time.UTC)
	sink.Append(devicemgr.ActionRecord{Timestamp: ts, DeviceID: "d1", Outcome: retry.Success})

	data, err := sink.Export("2026-08-06")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Export() returned empty data")
	}
}

func TestExport_MissingDateReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sink.Close()

	data, err := sink.Export("2020-01-01")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Export() on missing date = %d bytes, want 0", len(data))
	}
}
