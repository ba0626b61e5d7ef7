package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/xhad/langdetect/internal/models"
)

type ExtractorConfig struct {
	// SnippetLength is the maximum snippet length in runes.
	SnippetLength int
	// Selectors are tried in order to locate the main content of an HTML
	// document; body is the fallback.
	Selectors []string
}

// Preview is a short description of an uploaded document.
type Preview struct {
	Title   string
	Snippet string
}

type Extractor struct {
	config ExtractorConfig
}

func NewWithConfig(config ExtractorConfig) *Extractor {
	if config.SnippetLength <= 0 {
		config.SnippetLength = 160
	}
	if len(config.Selectors) == 0 {
		config.Selectors = []string{
			"main",
			"article",
			".content",
			"#content",
		}
	}
	return &Extractor{config: config}
}

func New() *Extractor {
	return NewWithConfig(ExtractorConfig{})
}

// Describe builds a preview of f. It never rejects a file: content that is
// neither HTML nor UTF-8 text yields an empty preview.
func (e *Extractor) Describe(f models.UploadedFile) Preview {
	if f.IsHTML() {
		if p, ok := e.describeHTML(f.Data); ok {
			return p
		}
	}
	if !utf8.Valid(f.Data) {
		return Preview{}
	}
	return Preview{Snippet: e.truncate(cleanContent(string(f.Data)))}
}

func (e *Extractor) describeHTML(data []byte) (Preview, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Preview{}, false
	}

	return Preview{
		Title:   cleanContent(doc.Find("title").First().Text()),
		Snippet: e.truncate(e.extractMainContent(doc)),
	}, true
}

func (e *Extractor) extractMainContent(doc *goquery.Document) string {
	var content string
	for _, selector := range e.config.Selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.First().Text()
			break
		}
	}

	// Fallback to body if no main content found
	if strings.TrimSpace(content) == "" {
		body := doc.Find("body").Clone()
		body.Find("script, style, noscript").Remove()
		content = body.Text()
	}

	return cleanContent(content)
}

func cleanContent(content string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(content), " "))
}

func (e *Extractor) truncate(s string) string {
	if utf8.RuneCountInString(s) <= e.config.SnippetLength {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:e.config.SnippetLength])) + "…"
}
