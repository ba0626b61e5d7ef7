package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xhad/langdetect/internal/models"
	"github.com/xhad/langdetect/pkg/export"
	"github.com/xhad/langdetect/pkg/view"
)

type methodView struct {
	Value    string
	Label    string
	Selected bool
}

type fileView struct {
	Name    string
	Href    string
	Linked  bool
	Size    string
	Title   string
	Snippet string
}

type pageData struct {
	Title       string
	Notice      string
	Methods     []methodView
	Files       []fileView
	Results     view.Model
	CanExport   bool
	InFlight    bool
	LiveUpdates bool
}

func (s *Server) pageData(notice string) pageData {
	st := s.session.State()

	methods := make([]methodView, 0, len(models.Methods()))
	for _, m := range models.Methods() {
		methods = append(methods, methodView{
			Value:    m.String(),
			Label:    m.Label(),
			Selected: st.HasMethod && st.Method == m,
		})
	}

	var results models.Results
	if st.HasResults {
		results = st.Results
	}

	return pageData{
		Title:       s.config.Title,
		Notice:      notice,
		Methods:     methods,
		Files:       s.fileViews(),
		Results:     view.NewModel(results, s.session.Files()),
		CanExport:   !results.Empty(),
		InFlight:    st.InFlight > 0,
		LiveUpdates: s.config.LiveUpdates,
	}
}

func (s *Server) fileViews() []fileView {
	files := s.session.CurrentFiles()
	resolver := s.session.Files()

	out := make([]fileView, 0, len(files))
	for _, f := range files {
		preview := s.extractor.Describe(f)
		fv := fileView{
			Name:    f.Name,
			Size:    formatSize(f.Size()),
			Title:   preview.Title,
			Snippet: preview.Snippet,
		}
		if ref, ok := resolver.Resolve(f.Name); ok {
			fv.Href = ref.URL
			fv.Linked = true
		}
		out = append(out, fv)
	}
	return out
}

func (s *Server) render(c *gin.Context, status int, notice string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := s.page.ExecuteTemplate(c.Writer, "page", s.pageData(notice)); err != nil {
		s.log.Error("Failed to render page", zap.Error(err))
		_ = c.Error(err)
	}
}

func (s *Server) redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleIndex(c *gin.Context) {
	s.render(c, http.StatusOK, "")
}

func (s *Server) handleMethod(c *gin.Context) {
	method, err := models.ParseMethod(c.PostForm("method"))
	if err == nil {
		err = s.session.SelectMethod(method)
	}
	if err != nil {
		s.render(c, http.StatusBadRequest, "Unknown method. Choose N-Gram, Alphabet or Neural.")
		return
	}
	s.redirectHome(c)
}

func (s *Server) handleFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.log.Warn("Failed to read upload", zap.Error(err))
		s.render(c, http.StatusBadRequest, "Failed to read the uploaded files.")
		return
	}

	var files []models.UploadedFile
	if form != nil {
		for _, fh := range form.File["files"] {
			f, err := fh.Open()
			if err != nil {
				s.render(c, http.StatusBadRequest, fmt.Sprintf("Failed to read %s.", fh.Filename))
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				s.render(c, http.StatusBadRequest, fmt.Sprintf("Failed to read %s.", fh.Filename))
				return
			}
			files = append(files, models.NewUploadedFile(fh.Filename, fh.Header.Get("Content-Type"), data))
		}
	}

	s.session.SetFiles(files)
	s.redirectHome(c)
}

// handleSubmit validates synchronously and runs the upload in the background.
// The submission is never cancelled once issued.
func (s *Server) handleSubmit(c *gin.Context) {
	if err := s.session.Ready(); err != nil {
		s.render(c, http.StatusBadRequest, "Please select a method and upload files.")
		return
	}

	go func() {
		// failures are logged and published by the session
		_, _ = s.session.Submit(context.Background())
	}()
	s.redirectHome(c)
}

func (s *Server) handleFile(c *gin.Context) {
	f, ok := s.session.Files().Open(c.Param("id"))
	if !ok {
		c.String(http.StatusNotFound, "file reference has been released")
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": f.Name}))
	c.Data(http.StatusOK, f.ContentType, f.Data)
}

func (s *Server) handleExport(c *gin.Context) {
	results, _ := s.session.Results()
	artifact, err := export.Export(results)
	if errors.Is(err, models.ErrNothingToExport) {
		s.render(c, http.StatusConflict, "No results to save.")
		return
	}
	if err != nil {
		s.log.Error("Export failed", zap.Error(err))
		s.render(c, http.StatusInternalServerError, "Failed to save results.")
		return
	}

	c.Header("Content-Disposition", artifact.Disposition())
	c.Header("Content-Type", artifact.ContentType)
	c.Status(http.StatusOK)
	if _, err := artifact.WriteTo(c.Writer); err != nil {
		s.log.Warn("Export download interrupted", zap.Error(err))
	}
}

type fileState struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
}

type resultState struct {
	Filename        string      `json:"filename"`
	Language        string      `json:"language"`
	ClassicSummary  string      `json:"classic_summary"`
	KeywordsSummary string      `json:"keywords_summary"`
	NeuralSummary   string      `json:"neural_summary"`
	URL             string      `json:"url,omitempty"`
	Times           *timesState `json:"times,omitempty"`
}

// timesState uses the same keys as the analysis service.
type timesState struct {
	ExtractionTime float64 `json:"extraction_time"`
	KeywordsTime   float64 `json:"keywords_time"`
	ClassicTime    float64 `json:"classic_time"`
	NeuralTime     float64 `json:"neural_time"`
}

func newTimesState(t *models.Timings) *timesState {
	if t == nil {
		return nil
	}
	return &timesState{
		ExtractionTime: t.Extraction,
		KeywordsTime:   t.Keywords,
		ClassicTime:    t.Classic,
		NeuralTime:     t.Neural,
	}
}

type stateResponse struct {
	Method   string        `json:"method,omitempty"`
	Files    []fileState   `json:"files"`
	Results  []resultState `json:"results"`
	InFlight int           `json:"in_flight"`
}

func (s *Server) handleState(c *gin.Context) {
	st := s.session.State()
	resp := stateResponse{
		Files:    make([]fileState, 0, len(st.Files)),
		InFlight: st.InFlight,
	}
	if st.HasMethod {
		resp.Method = st.Method.String()
	}

	for _, f := range s.session.CurrentFiles() {
		preview := s.extractor.Describe(f)
		fs := fileState{
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        f.Size(),
			Title:       preview.Title,
			Snippet:     preview.Snippet,
		}
		if ref, ok := s.session.Files().Resolve(f.Name); ok {
			fs.URL = ref.URL
		}
		resp.Files = append(resp.Files, fs)
	}

	if st.HasResults {
		resp.Results = make([]resultState, 0, len(st.Results))
		for _, e := range view.Build(st.Results, s.session.Files()) {
			resp.Results = append(resp.Results, resultState{
				Filename:        e.Filename,
				Language:        e.Language,
				ClassicSummary:  e.Classic,
				KeywordsSummary: e.Keywords,
				NeuralSummary:   e.Neural,
				URL:             e.Href,
				Times:           newTimesState(e.Times),
			})
		}
	}

	c.JSON(http.StatusOK, resp)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
