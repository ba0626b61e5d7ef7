package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xhad/langdetect/internal/models"
)

const (
	// FileName keeps the historical .csv name even though the content is
	// plain text blocks.
	FileName    = "language_detection_results.csv"
	ContentType = "text/csv"
)

// Artifact is a downloadable export of one results collection.
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// Export serializes results into an Artifact.
func Export(results models.Results) (*Artifact, error) {
	if results.Empty() {
		return nil, models.ErrNothingToExport
	}
	return &Artifact{
		Name:        FileName,
		ContentType: ContentType,
		Body:        Format(results),
	}, nil
}

// Format renders every result as a block of four lines, matching the order
// of the results view.
func Format(results models.Results) []byte {
	var b bytes.Buffer
	for _, r := range results {
		fmt.Fprintf(&b, "%s - %s\n", r.Filename, r.Language)
		fmt.Fprintf(&b, "%s - %s\n", models.LabelClassic, r.ClassicSummary)
		fmt.Fprintf(&b, "%s - %s\n\n", models.LabelKeywords, r.KeywordsSummary)
		fmt.Fprintf(&b, "%s - %s\n\n", models.LabelNeural, r.NeuralSummary)
	}
	return b.Bytes()
}

func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.Body)
	return int64(n), err
}

// Disposition is the Content-Disposition header value for a download.
func (a *Artifact) Disposition() string {
	return fmt.Sprintf("attachment; filename=%q", a.Name)
}

// Save writes the artifact into dir and returns the file path.
func (a *Artifact) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
