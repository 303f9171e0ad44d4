// Package ai analyzes uploaded medical documents with a generative model
// and normalises the model's output into a fixed result shape.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Urgency levels a Result may carry. Anything else from the model is
// coerced to UrgencyLow.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// ErrUnavailable indicates the analysis service could not produce a usable
// result. Callers substitute the deterministic fallback instead of
// surfacing this to users.
var ErrUnavailable = errors.New("analysis unavailable")

// Document is the input to an analysis: the raw uploaded file plus its
// metadata.
type Document struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// Result is the structured extraction produced for a document.
type Result struct {
	Summary         string   `json:"summary"`
	KeyFindings     []string `json:"keyFindings"`
	Medications     []string `json:"medications"`
	Recommendations []string `json:"recommendations"`
	UrgencyLevel    string   `json:"urgencyLevel"`
	DocumentType    string   `json:"documentType"`
}

// Analyzer produces a structured Result for a document.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, doc Document) (*Result, error)
}

// Fallback builds the deterministic substitute used whenever analysis
// fails. The summary embeds the file name, type, and size in KB rounded
// to the nearest whole number.
func Fallback(doc Document) *Result {
	return &Result{
		Summary:         fmt.Sprintf("Analysis of %s (%s) - %dKB", doc.FileName, doc.ContentType, (doc.Size+512)/1024),
		KeyFindings:     []string{"Document uploaded for review"},
		Medications:     []string{},
		Recommendations: []string{},
		UrgencyLevel:    UrgencyLow,
		DocumentType:    "other",
	}
}

// Degraded is the result returned when no AI credentials are configured.
// The endpoint still answers 200 with this payload.
func Degraded() *Result {
	return &Result{
		Summary:         "Document analysis unavailable - AI credentials not configured",
		KeyFindings:     []string{"Document uploaded successfully"},
		Medications:     []string{},
		Recommendations: []string{"Configure GEMINI_API_KEY to enable document analysis"},
		UrgencyLevel:    UrgencyLow,
		DocumentType:    "other",
	}
}

// CoerceUrgency validates a model-supplied urgency level, reporting whether
// the value had to be replaced with the low default.
func CoerceUrgency(level string) (string, bool) {
	switch level {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return level, false
	default:
		return UrgencyLow, true
	}
}

// ExtractJSON returns the first balanced {...} span in the text. Models
// routinely wrap their JSON in prose or markdown fences.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrUnavailable
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}
	return "", ErrUnavailable
}

// DecodeResult parses a model response body into a Result. The JSON span
// is extracted from surrounding prose and validated: the summary must be a
// non-empty string, list fields are normalised to empty slices, and the
// urgency level is coerced into the allowed set.
func DecodeResult(text string) (*Result, bool, error) {
	span, err := ExtractJSON(text)
	if err != nil {
		return nil, false, err
	}

	var r Result
	if err := json.Unmarshal([]byte(span), &r); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return nil, false, fmt.Errorf("%w: empty summary", ErrUnavailable)
	}

	if r.KeyFindings == nil {
		r.KeyFindings = []string{}
	}
	if r.Medications == nil {
		r.Medications = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	if r.DocumentType == "" {
		r.DocumentType = "other"
	}

	level, coerced := CoerceUrgency(r.UrgencyLevel)
	r.UrgencyLevel = level

	return &r, coerced, nil
}
