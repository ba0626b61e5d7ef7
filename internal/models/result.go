package models

import (
	"fmt"
	"strings"
)

type Method string

const (
	MethodNgram    Method = "ngram"
	MethodAlphabet Method = "alphabet"
	MethodNeural   Method = "neural"
)

// Methods returns the supported methods in display order.
func Methods() []Method {
	return []Method{MethodNgram, MethodAlphabet, MethodNeural}
}

func ParseMethod(s string) (Method, error) {
	m := Method(strings.TrimSpace(s))
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown method %q", ErrValidation, s)
	}
	return m, nil
}

func (m Method) Valid() bool {
	switch m {
	case MethodNgram, MethodAlphabet, MethodNeural:
		return true
	}
	return false
}

func (m Method) Label() string {
	switch m {
	case MethodNgram:
		return "N-Gram"
	case MethodAlphabet:
		return "Alphabet"
	case MethodNeural:
		return "Neural"
	}
	return string(m)
}

func (m Method) String() string {
	return string(m)
}

// Labels for the three summary variants, shared by the view and the export.
const (
	LabelClassic  = "Классический реферат"
	LabelKeywords = "Реферат в виде ключевых слов"
	LabelNeural   = "Реферат при помощи нейронных сетей"
)

// Timings holds the per-stage processing times reported by the service, in
// seconds.
type Timings struct {
	Extraction float64
	Keywords   float64
	Classic    float64
	Neural     float64
}

func (t Timings) Total() float64 {
	return t.Extraction + t.Keywords + t.Classic + t.Neural
}

type AnalysisResult struct {
	Filename        string
	Language        string
	ClassicSummary  string
	KeywordsSummary string
	NeuralSummary   string
	Times           *Timings
}

// Results is the ordered collection returned by one submission. A nil
// Results means no submission has succeeded yet.
type Results []AnalysisResult

func (r Results) Empty() bool {
	return len(r) == 0
}

// Clone returns a deep copy of r, timings included.
func (r Results) Clone() Results {
	if r == nil {
		return nil
	}
	out := make(Results, len(r))
	copy(out, r)
	for i := range out {
		if out[i].Times != nil {
			t := *out[i].Times
			out[i].Times = &t
		}
	}
	return out
}
