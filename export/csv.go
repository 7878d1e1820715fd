// Package export writes scrape results to the CSV file served by GET /download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/use-agent/scrapeconsole/models"
)

// CSVExporter rewrites a single CSV file per job. It is safe for concurrent
// use; the last finished job wins.
type CSVExporter struct {
	path string
	mu   sync.Mutex
}

// NewCSVExporter creates an exporter that writes to path.
func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

// Path returns the export file location.
func (e *CSVExporter) Path() string { return e.path }

// Filename returns the base name offered to downloaders.
func (e *CSVExporter) Filename() string { return filepath.Base(e.path) }

// Exists reports whether an export has been written.
func (e *CSVExporter) Exists() bool {
	info, err := os.Stat(e.path)
	return err == nil && !info.IsDir()
}

// Write replaces the export with one header row of keys followed by one row
// per record. The file is written to a temp file first and renamed into
// place, so readers never see a partial export.
func (e *CSVExporter) Write(keys []string, records []models.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ensureDir(e.path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".export-*.csv")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(keys); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(keys))
	for _, rec := range records {
		for i, k := range keys {
			row[i] = FormatValue(rec[k])
		}
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp csv: %w", err)
	}

	if err := os.Rename(tmpName, e.path); err != nil {
		return fmt.Errorf("replace csv export: %w", err)
	}
	return nil
}

// FormatValue renders one record value as a CSV cell.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
