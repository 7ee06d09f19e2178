// File: internal/reporting/json.go
package reporting

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/bidlens/bidlens-cli/api/schemas"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonReporter writes the canonical result as indented JSON, suitable for
// piping into other tooling.
type jsonReporter struct {
	writer io.WriteCloser
}

// NewJSONReporter creates a JSON reporter. It takes ownership of the writer.
func NewJSONReporter(writer io.WriteCloser) Reporter {
	return &jsonReporter{writer: writer}
}

func (r *jsonReporter) Write(result *schemas.AnalysisResult) error {
	data, err := jsonAPI.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *jsonReporter) Close() error { return r.writer.Close() }
