package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/flemzord/github-compliance-sub000/internal/runner"
)

// JSONSink writes the full report as indented JSON to a file.
type JSONSink struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func NewJSONSink(path string) (*JSONSink, error) {
	f, err := createReportFile(path)
	if err != nil {
		return nil, err
	}
	return &JSONSink{path: path, file: f}, nil
}

func (s *JSONSink) Write(report *runner.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report == nil {
		return fmt.Errorf("report is nil")
	}
	encoder := json.NewEncoder(s.file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (s *JSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func createReportFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
