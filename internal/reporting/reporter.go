// File: internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/bidlens/bidlens-cli/api/schemas"
)

// Reporter renders one canonical analysis result to an output.
type Reporter interface {
	// Write renders the result.
	Write(result *schemas.AnalysisResult) error
	// Close finalizes the report and releases any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error { return nil }

// New creates a reporter for the given format. An empty or "stdout" output
// path writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdout := outputPath == "" || outputPath == "stdout"

	if isStdout {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "", "table":
		return NewTableReporter(writer), nil
	case "json":
		return NewJSONReporter(writer), nil
	default:
		if !isStdout {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
