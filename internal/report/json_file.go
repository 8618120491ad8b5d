package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"pmpayout/internal/fileutil"
	"pmpayout/internal/services"
)

// Document is the serialized shape of a run: the run fields plus its date
// range as YYYY-MM-DD strings.
type Document struct {
	Start string `json:"start"`
	End   string `json:"end"`
	*Run
}

// NewDocument wraps run for encoding.
func NewDocument(run *Run) Document {
	start, end := run.Range()
	return Document{Start: start, End: end, Run: run}
}

// JSONFile writes payout_<start>_to_<end>.json under Dir. A later run over the
// same range replaces the earlier file.
type JSONFile struct {
	Dir string

	// written records the last path produced, for CLI output.
	written string
}

// NewJSONFile creates a sink rooted at dir.
func NewJSONFile(dir string) *JSONFile {
	return &JSONFile{Dir: dir}
}

// PathFor returns the report path for the run's date range.
func (j *JSONFile) PathFor(run *Run) string {
	start, end := run.Range()
	return filepath.Join(j.Dir, fmt.Sprintf("payout_%s_to_%s.json", start, end))
}

// LastPath returns the path of the most recent successful write.
func (j *JSONFile) LastPath() string {
	return j.written
}

// Write implements Sink.
func (j *JSONFile) Write(ctx context.Context, run *Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run == nil {
		return services.Wrap(services.ErrValidation, "report", "json", "nil run", nil)
	}
	payload, err := json.MarshalIndent(NewDocument(run), "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "report", "json", "encode report", err)
	}
	payload = append(payload, '\n')

	path := j.PathFor(run)
	if err := fileutil.WriteFileAtomic(path, payload, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "report", "json", "write "+path, err)
	}
	j.written = path
	return nil
}
