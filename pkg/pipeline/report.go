package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "shape-recognition/pkg/errors"
)

// ReportLine renders one outcome as a line of the similarity report.
func ReportLine(o Outcome) string {
	if o.Err != nil || o.Result == nil {
		return fmt.Sprintf("The %dth test object could not be evaluated: %v", o.Index, o.Err)
	}
	return o.Result.Sentence()
}

// WriteReport writes one line per outcome, in test order, to path and to
// mirror.
func WriteReport(path string, mirror io.Writer, outcomes []Outcome) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewIOError("failed to create report directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError("failed to create report "+path, err)
	}

	w := io.Writer(f)
	if mirror != nil {
		w = io.MultiWriter(f, mirror)
	}

	for _, o := range outcomes {
		if _, err := fmt.Fprintln(w, ReportLine(o)); err != nil {
			f.Close()
			return apperrors.NewIOError("failed to write report "+path, err)
		}
	}

	if err := f.Close(); err != nil {
		return apperrors.NewIOError("failed to close report "+path, err)
	}
	return nil
}
