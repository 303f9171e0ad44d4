package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const analysisPrompt = `You are a medical AI assistant. Analyze this medical document and provide a structured response in the following JSON format:

{
  "summary": "Brief 2-3 sentence summary of the document",
  "keyFindings": ["finding1", "finding2", "finding3"],
  "medications": ["medication1", "medication2"],
  "recommendations": ["recommendation1", "recommendation2"],
  "urgencyLevel": "low|medium|high"
}

Important guidelines:
- Be accurate and only extract information that is clearly present
- If information is not available, use empty arrays or appropriate default values
- Urgency levels: low (routine), medium (follow-up needed), high (immediate attention)
- Focus on medical relevance and patient safety

Document to analyze: `

// GeminiConfig configures the Gemini REST client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient calls the Gemini generateContent API over REST.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewGeminiClient builds a Gemini-backed Analyzer.
func NewGeminiClient(cfg GeminiConfig, logger zerolog.Logger) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AnalyzeDocument sends the document to Gemini and decodes the structured
// result. Images travel as inline base64 data; everything else as text.
func (g *GeminiClient) AnalyzeDocument(ctx context.Context, doc Document) (*Result, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: buildParts(doc)}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.2,
			TopP:            0.8,
			TopK:            40,
			MaxOutputTokens: 1000,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("gemini returned non-200")
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}

	text := candidateText(out)
	if text == "" {
		return nil, fmt.Errorf("%w: empty candidate text", ErrUnavailable)
	}

	result, coerced, err := DecodeResult(text)
	if err != nil {
		return nil, err
	}
	if coerced {
		g.logger.Warn().
			Str("file_name", doc.FileName).
			Msg("model returned unknown urgency level, defaulting to low")
	}
	return result, nil
}

// buildParts dispatches on content type: images go inline, text files are
// decoded, PDFs get a placeholder until extraction is implemented, and
// everything else is described by name, type, and size.
func buildParts(doc Document) []geminiPart {
	if strings.HasPrefix(doc.ContentType, "image/") {
		return []geminiPart{
			{Text: analysisPrompt},
			{InlineData: &geminiInlineData{
				MimeType: doc.ContentType,
				Data:     base64.StdEncoding.EncodeToString(doc.Data),
			}},
		}
	}

	var content string
	switch {
	case strings.HasPrefix(doc.ContentType, "text/"):
		content = string(doc.Data)
	case doc.ContentType == "application/pdf":
		content = "PDF content extraction not implemented yet. Please analyze based on file name and type."
	default:
		content = fmt.Sprintf("File: %s, Type: %s, Size: %d bytes", doc.FileName, doc.ContentType, doc.Size)
	}

	return []geminiPart{
		{Text: fmt.Sprintf("%s\n\nFile content:\n%s", analysisPrompt, content)},
	}
}

func candidateText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
