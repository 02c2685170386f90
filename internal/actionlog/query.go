package actionlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// List reads one calendar day's log file and returns a page of records,
// most recent first, optionally filtered by exact Outcome match. A
// partially written trailing line (the process crashed mid-write) is
// discarded rather than failing the whole read, matching the Report
// Store's same tolerance applied here for consistency.
func (s *Sink) List(filter Filter) (*ListResult, error) {
	if filter.Date == "" {
		return nil, fmt.Errorf("actionlog: date is required")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	records, err := readRecords(s.path(filter.Date))
	if err != nil {
		if os.IsNotExist(err) {
			return &ListResult{Records: []Record{}, Page: page, PerPage: pageSize}, nil
		}
		return nil, err
	}

	var matched []Record
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if filter.Level != "" && r.Outcome != filter.Level {
			continue
		}
		matched = append(matched, r)
	}

	total := len(matched)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &ListResult{
		Records: matched[start:end],
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	}, nil
}

// Export returns the raw newline-delimited JSON content of one
// calendar day's log file, for GET /logs/export.
func (s *Sink) Export(date string) ([]byte, error) {
	data, err := os.ReadFile(s.path(date))
	if err != nil {
		if os.IsNotExist(err) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("actionlog: exporting %s: %w", date, err)
	}
	return data, nil
}

func (s *Sink) path(date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("actions-%s.log", date))
}

func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			// A malformed line is assumed to be a trailing partial write
			// from a crash mid-append; discard and keep reading rather
			// than failing the whole file.
			continue
		}
		records = append(records, r)
	}
	return records, scanner.Err()
}
