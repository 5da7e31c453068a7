package engine

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

	"github.com/docufin/docufin/internal/document"
)

// PaddleName is the engine identifier for the PaddleOCR adapter.
const PaddleName = "paddle"

// PaddleConfig holds configuration for the PaddleOCR server adapter.
type PaddleConfig struct {
	BaseURL   string
	Languages []string
	Timeout   time.Duration
	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// Paddle calls a locally deployed PaddleOCR serving endpoint. The server
// reports recognition confidence natively (0-1 per region); the adapter
// uses the server's aggregate score directly.
type Paddle struct {
	baseURL   string
	languages []string
	client    *http.Client
}

// NewPaddle creates the PaddleOCR server adapter.
func NewPaddle(cfg PaddleConfig) *Paddle {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"en", "ru"}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Paddle{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		languages: langs,
		client:    client,
	}
}

func (p *Paddle) Name() string { return PaddleName }

func (p *Paddle) Languages() []string { return p.languages }

// Available pings the server's health endpoint.
func (p *Paddle) Available(ctx context.Context) error {
	return checkServerHealth(ctx, p.client, PaddleName, p.baseURL)
}

// ExtractText sends the page image to the PaddleOCR server.
func (p *Paddle) ExtractText(ctx context.Context, img document.PageImage, lang string) (document.PageText, error) {
	if p.baseURL == "" {
		return document.PageText{}, newError(PaddleName, "no server URL configured", nil)
	}
	if !supportsLanguage(p.languages, lang) {
		return document.PageText{}, newError(PaddleName, fmt.Sprintf("unsupported language %q", lang), nil)
	}

	reqBody := paddleRequest{
		Image:    base64.StdEncoding.EncodeToString(img.PNG),
		Language: lang,
	}

	resp, err := p.doRequest(ctx, "/ocr", reqBody)
	if err != nil {
		return document.PageText{}, newError(PaddleName, "request failed", err)
	}

	text := strings.TrimSpace(resp.Text)
	return document.PageText{
		Page:       img.Index,
		Text:       text,
		Confidence: clampConfidence(resp.Confidence),
		Engine:     PaddleName,
	}, nil
}

func (p *Paddle) doRequest(ctx context.Context, path string, body any) (*paddleResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp paddleErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("paddle server error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("paddle server error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var ocrResp paddleResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &ocrResp, nil
}

// PaddleOCR serving API types.

type paddleRequest struct {
	Image    string `json:"image"` // base64 PNG
	Language string `json:"language,omitempty"`
}

type paddleResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // aggregate rec confidence, 0-1
	Regions    []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"regions,omitempty"`
}

type paddleErrorResponse struct {
	Error string `json:"error"`
}
