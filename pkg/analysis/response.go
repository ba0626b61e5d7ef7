package analysis

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xhad/langdetect/internal/models"
)

// UploadResponse is the body returned by the upload endpoint.
type UploadResponse struct {
	Results *[]ResultPayload `json:"results"`
}

// ResultPayload is one per-file entry of UploadResponse. Pointer fields let
// decoding tell a missing key from an empty string.
type ResultPayload struct {
	Filename        *string       `json:"filename"`
	Language        *string       `json:"language"`
	ClassicSummary  *string       `json:"classic_summary"`
	KeywordsSummary *string       `json:"keywords_summary"`
	NeuralSummary   *string       `json:"neural_summary"`
	Times           *TimesPayload `json:"times,omitempty"`
}

type TimesPayload struct {
	ExtractionTime float64 `json:"extraction_time"`
	KeywordsTime   float64 `json:"keywords_time"`
	ClassicTime    float64 `json:"classic_time"`
	NeuralTime     float64 `json:"neural_time"`
}

func decodeResults(r io.Reader) (models.Results, error) {
	var resp UploadResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", models.ErrMalformedResponse, err)
	}
	if resp.Results == nil {
		return nil, fmt.Errorf("%w: missing results field", models.ErrMalformedResponse)
	}

	results := make(models.Results, 0, len(*resp.Results))
	for i, p := range *resp.Results {
		result, err := p.toModel()
		if err != nil {
			return nil, fmt.Errorf("%w: result %d: %v", models.ErrMalformedResponse, i, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (p ResultPayload) toModel() (models.AnalysisResult, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"filename", p.Filename},
		{"language", p.Language},
		{"classic_summary", p.ClassicSummary},
		{"keywords_summary", p.KeywordsSummary},
		{"neural_summary", p.NeuralSummary},
	}
	for _, f := range fields {
		if f.value == nil {
			return models.AnalysisResult{}, fmt.Errorf("missing field %s", f.name)
		}
	}

	result := models.AnalysisResult{
		Filename:        *p.Filename,
		Language:        *p.Language,
		ClassicSummary:  *p.ClassicSummary,
		KeywordsSummary: *p.KeywordsSummary,
		NeuralSummary:   *p.NeuralSummary,
	}
	if p.Times != nil {
		result.Times = &models.Timings{
			Extraction: p.Times.ExtractionTime,
			Keywords:   p.Times.KeywordsTime,
			Classic:    p.Times.ClassicTime,
			Neural:     p.Times.NeuralTime,
		}
	}
	return result, nil
}
