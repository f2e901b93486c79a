package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"pricehound/internal/types"
)

// --- JSON Storage ---

// JSONStorage buffers records and writes them as a pretty-printed JSON
// array on Close.
type JSONStorage struct {
	path    string
	records []types.PriceRecord
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &types.ExportError{Backend: "json", Err: fmt.Errorf("create output dir: %w", err)}
	}

	return &JSONStorage{
		path:    outputPath,
		records: make([]types.PriceRecord, 0),
		logger:  logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(records []types.PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	s.logger.Debug("records buffered", "count", len(records), "total", len(s.records))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.ExportError{Backend: "json", Err: fmt.Errorf("create output file: %w", err)}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return &types.ExportError{Backend: "json", Err: fmt.Errorf("encode JSON: %w", err)}
	}

	s.logger.Info("JSON written", "path", s.path, "records", len(s.records))
	return nil
}

// --- CSV Storage ---

// CSVStorage buffers records and writes them on Close. The header is
// the sorted union of keys present across every record, so optional
// columns (unit, change_24h) appear whenever any record carries them;
// records without a column get an empty cell.
type CSVStorage struct {
	path    string
	records []types.PriceRecord
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &types.ExportError{Backend: "csv", Err: fmt.Errorf("create output dir: %w", err)}
	}

	return &CSVStorage{
		path:   outputPath,
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(records []types.PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.ExportError{Backend: "csv", Err: fmt.Errorf("create output file: %w", err)}
	}
	defer f.Close()

	flats := make([]map[string]string, len(s.records))
	headerSet := make(map[string]bool)
	for i := range s.records {
		flats[i] = s.records[i].ToFlatMap()
		for k := range flats[i] {
			headerSet[k] = true
		}
	}

	headers := make([]string, 0, len(headerSet))
	for k := range headerSet {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return &types.ExportError{Backend: "csv", Err: fmt.Errorf("write CSV header: %w", err)}
	}
	for _, flat := range flats {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = flat[h]
		}
		if err := w.Write(row); err != nil {
			return &types.ExportError{Backend: "csv", Err: fmt.Errorf("write CSV row: %w", err)}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &types.ExportError{Backend: "csv", Err: err}
	}

	s.logger.Info("CSV written", "path", s.path, "records", len(s.records))
	return nil
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputDir string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "json":
		return NewJSONStorage(filepath.Join(outputDir, "prices.json"), logger)
	case "csv":
		return NewCSVStorage(filepath.Join(outputDir, "prices.csv"), logger)
	default:
		return nil, fmt.Errorf("unsupported export type: %s", storageType)
	}
}
