package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/fatih/color"

	"github.com/xhad/langdetect/internal/models"
	"github.com/xhad/langdetect/internal/types"
)

//go:embed templates/results.html
var templateFS embed.FS

var resultsTemplate = template.Must(Templates())

// Templates parses a fresh set holding the "results" fragment. Callers may
// add their own templates to it.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/results.html")
}

// Entry is one rendered result line.
type Entry struct {
	Filename string
	Language string
	Classic  string
	Keywords string
	Neural   string
	Href     string
	Linked   bool
	Times    *models.Timings
}

type Labels struct {
	Classic  string
	Keywords string
	Neural   string
}

var DefaultLabels = Labels{
	Classic:  models.LabelClassic,
	Keywords: models.LabelKeywords,
	Neural:   models.LabelNeural,
}

// Model is the data handed to the "results" template.
type Model struct {
	Present bool
	Entries []Entry
	Labels  Labels
}

// Build binds every result to the link of its source file. A nil resolver
// or an unknown name leaves the entry unlinked.
func Build(results models.Results, resolver types.Resolver) []Entry {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		e := Entry{
			Filename: r.Filename,
			Language: r.Language,
			Classic:  r.ClassicSummary,
			Keywords: r.KeywordsSummary,
			Neural:   r.NeuralSummary,
			Times:    r.Times,
		}
		if resolver != nil {
			if ref, ok := resolver.Resolve(r.Filename); ok {
				e.Href = ref.URL
				e.Linked = true
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func NewModel(results models.Results, resolver types.Resolver) Model {
	return Model{
		Present: results != nil,
		Entries: Build(results, resolver),
		Labels:  DefaultLabels,
	}
}

// RenderHTML writes the results fragment. Nothing is written when results
// are absent.
func RenderHTML(w io.Writer, results models.Results, resolver types.Resolver) error {
	if err := resultsTemplate.ExecuteTemplate(w, "results", NewModel(results, resolver)); err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}
	return nil
}

type TextOptions struct {
	NoColor bool
	Timings bool
}

// RenderText writes the results for a terminal.
func RenderText(w io.Writer, results models.Results, resolver types.Resolver, opts TextOptions) error {
	if results == nil {
		return nil
	}

	name := color.New(color.FgCyan, color.Bold)
	lang := color.New(color.FgGreen)
	label := color.New(color.FgYellow)
	faint := color.New(color.Faint)
	for _, c := range []*color.Color{name, lang, label, faint} {
		if opts.NoColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}

	if _, err := fmt.Fprintln(w, "Results:"); err != nil {
		return err
	}
	for _, e := range Build(results, resolver) {
		location := ""
		if e.Linked {
			location = faint.Sprintf(" (%s)", e.Href)
		}
		lines := []string{
			fmt.Sprintf("%s%s - %s", name.Sprint(e.Filename), location, lang.Sprint(e.Language)),
			fmt.Sprintf("  %s - %s", label.Sprint(DefaultLabels.Classic), e.Classic),
			fmt.Sprintf("  %s - %s", label.Sprint(DefaultLabels.Keywords), e.Keywords),
			fmt.Sprintf("  %s - %s", label.Sprint(DefaultLabels.Neural), e.Neural),
		}
		if opts.Timings && e.Times != nil {
			lines = append(lines, faint.Sprintf("  extraction %.2fs, keywords %.2fs, classic %.2fs, neural %.2fs",
				e.Times.Extraction, e.Times.Keywords, e.Times.Classic, e.Times.Neural))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
