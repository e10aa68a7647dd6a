// Package writers opens the destination named by the --log-output flag.
package writers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriterType represents the type of writer to create
type WriterType string

const (
	WriterTypeStdout WriterType = "stdout"
	WriterTypeStderr WriterType = "stderr"
	WriterTypeFile   WriterType = "file"
)

// nopCloser is returned for the standard streams, which must stay open.
func nopCloser() error { return nil }

// Open returns the writer for an output specification together with its close function.
// Supported formats:
//   - "stderr" or "" - the diagnostic stream (default)
//   - "stdout"
//   - "file:///path/to/file" or any path containing a separator - appends to that file,
//     creating parent directories as needed
func Open(output string) (io.Writer, func() error, error) {
	switch ParseWriterType(output) {
	case WriterTypeStderr:
		return os.Stderr, nopCloser, nil
	case WriterTypeStdout:
		return os.Stdout, nopCloser, nil
	}

	if strings.Contains(output, "://") && !strings.HasPrefix(output, "file://") {
		return nil, nil, fmt.Errorf("unsupported log output: %s", output)
	}
	path := strings.TrimPrefix(output, "file://")
	if !strings.ContainsAny(path, `/\`) {
		return nil, nil, fmt.Errorf("unsupported log output: %s", output)
	}

	f, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// openFile opens path for appending, ensuring the directory exists
func openFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return f, nil
}

// ParseWriterType determines the writer type from an output string
func ParseWriterType(output string) WriterType {
	switch output {
	case "", "stderr":
		return WriterTypeStderr
	case "stdout":
		return WriterTypeStdout
	default:
		return WriterTypeFile
	}
}
