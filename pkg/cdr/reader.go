package cdr

import (
	"fmt"
	"os"
	"strings"
)

// FileAccessError wraps a failed read of a CDR file.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("read cdr file %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// ReadLines loads a file as UTF-8 text and splits it into raw field slices,
// one per retained line. Genuinely empty lines are dropped; a line of only
// whitespace is kept and becomes a single whitespace field. An empty file
// yields no lines.
func ReadLines(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}

	var lines [][]string
	for _, raw := range strings.Split(string(data), "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if raw == "" {
			continue
		}
		lines = append(lines, strings.Split(raw, "|"))
	}
	return lines, nil
}
