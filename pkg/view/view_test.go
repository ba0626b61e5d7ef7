package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/langdetect/internal/models"
	"github.com/xhad/langdetect/internal/types"
	"github.com/xhad/langdetect/pkg/registry"
)

func sampleResults() models.Results {
	return models.Results{
		{
			Filename:        "a.txt",
			Language:        "en",
			ClassicSummary:  "C",
			KeywordsSummary: "K",
			NeuralSummary:   "N",
		},
	}
}

func render(t *testing.T, results models.Results, resolver types.Resolver) (*goquery.Document, string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, results, resolver))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	return doc, buf.String()
}

func TestRenderHTML(t *testing.T) {
	t.Run("renders nothing when results are absent", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderHTML(&buf, nil, nil))
		assert.Empty(t, strings.TrimSpace(buf.String()))
	})

	t.Run("renders a linked entry", func(t *testing.T) {
		reg := registry.New("/files")
		reg.SetFiles([]models.UploadedFile{models.NewUploadedFile("a.txt", "", []byte("a"))})
		ref, _ := reg.Resolve("a.txt")

		doc, _ := render(t, sampleResults(), reg)

		items := doc.Find("#results li")
		require.Equal(t, 1, items.Length())

		link := items.Find("a.file-link")
		require.Equal(t, 1, link.Length())
		href, _ := link.Attr("href")
		assert.Equal(t, ref.URL, href)
		target, _ := link.Attr("target")
		assert.Equal(t, "_blank", target)

		text := strings.Join(strings.Fields(items.Text()), " ")
		assert.Contains(t, text, "a.txt - en")

		classic := strings.Index(text, models.LabelClassic+" - C")
		keywords := strings.Index(text, models.LabelKeywords+" - K")
		neural := strings.Index(text, models.LabelNeural+" - N")
		require.True(t, classic >= 0 && keywords >= 0 && neural >= 0, text)
		assert.True(t, classic < keywords && keywords < neural)
	})

	t.Run("falls back to plain text when the file is unknown", func(t *testing.T) {
		reg := registry.New("/files")
		reg.SetFiles([]models.UploadedFile{models.NewUploadedFile("other.txt", "", nil)})

		doc, _ := render(t, sampleResults(), reg)

		assert.Equal(t, 0, doc.Find("#results a").Length())
		assert.Equal(t, "a.txt", doc.Find("#results span.file-name").Text())
	})

	t.Run("keeps collection order", func(t *testing.T) {
		results := models.Results{
			{Filename: "z.html", Language: "ru"},
			{Filename: "a.html", Language: "en"},
		}

		doc, _ := render(t, results, nil)

		var names []string
		doc.Find("#results li .file-name").Each(func(_ int, s *goquery.Selection) {
			names = append(names, s.Text())
		})
		assert.Equal(t, []string{"z.html", "a.html"}, names)
	})

	t.Run("escapes service output", func(t *testing.T) {
		results := models.Results{{Filename: "<b>x</b>", Language: "en", NeuralSummary: "<script>alert(1)</script>"}}

		doc, raw := render(t, results, nil)

		assert.NotContains(t, raw, "<script>")
		assert.Equal(t, 0, doc.Find("#results b").Length())
	})

	t.Run("present but empty collection renders an empty list", func(t *testing.T) {
		doc, _ := render(t, models.Results{}, nil)
		assert.Equal(t, 1, doc.Find("#results ul").Length())
		assert.Equal(t, 0, doc.Find("#results li").Length())
	})
}

func TestBuild(t *testing.T) {
	reg := registry.New("/files")
	reg.SetFiles([]models.UploadedFile{models.NewUploadedFile("a.txt", "", nil)})

	entries := Build(models.Results{{Filename: "a.txt"}, {Filename: "b.txt"}}, reg)

	require.Len(t, entries, 2)
	assert.True(t, entries[0].Linked)
	assert.NotEmpty(t, entries[0].Href)
	assert.False(t, entries[1].Linked)
	assert.Empty(t, entries[1].Href)
}

func TestRenderText(t *testing.T) {
	results := sampleResults()
	results[0].Times = &models.Timings{Extraction: 0.1, Keywords: 0.2, Classic: 0.3, Neural: 1.25}

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, results, nil, TextOptions{NoColor: true, Timings: true}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Results:", lines[0])
	assert.Equal(t, "a.txt - en", lines[1])
	assert.Equal(t, "  "+models.LabelClassic+" - C", lines[2])
	assert.Equal(t, "  "+models.LabelKeywords+" - K", lines[3])
	assert.Equal(t, "  "+models.LabelNeural+" - N", lines[4])
	assert.Contains(t, lines[5], "neural 1.25s")

	buf.Reset()
	require.NoError(t, RenderText(&buf, nil, nil, TextOptions{NoColor: true}))
	assert.Empty(t, buf.String())
}
