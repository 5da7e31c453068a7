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

// TrOCRName is the engine identifier for the TrOCR adapter.
const TrOCRName = "trocr"

// TrOCRConfig holds configuration for the TrOCR server adapter.
type TrOCRConfig struct {
	BaseURL   string
	Languages []string
	Timeout   time.Duration
	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// TrOCR calls a locally deployed TrOCR inference server. TrOCR returns
// no token-level scores, so confidence is a synthesized proxy: the
// printable-character ratio of the output scaled by text volume against
// a modest page expectation, capped at 0.9 (see proxyConfidence).
type TrOCR struct {
	baseURL   string
	languages []string
	client    *http.Client
}

// NewTrOCR creates the TrOCR server adapter.
func NewTrOCR(cfg TrOCRConfig) *TrOCR {
	langs := cfg.Languages
	if len(langs) == 0 {
		// The stock printed-text TrOCR checkpoints are English-only.
		langs = []string{"en"}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &TrOCR{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		languages: langs,
		client:    client,
	}
}

func (t *TrOCR) Name() string { return TrOCRName }

func (t *TrOCR) Languages() []string { return t.languages }

// Available pings the server's health endpoint.
func (t *TrOCR) Available(ctx context.Context) error {
	return checkServerHealth(ctx, t.client, TrOCRName, t.baseURL)
}

// ExtractText sends the page image to the TrOCR server.
func (t *TrOCR) ExtractText(ctx context.Context, img document.PageImage, lang string) (document.PageText, error) {
	if t.baseURL == "" {
		return document.PageText{}, newError(TrOCRName, "no server URL configured", nil)
	}
	if !supportsLanguage(t.languages, lang) {
		return document.PageText{}, newError(TrOCRName, fmt.Sprintf("unsupported language %q", lang), nil)
	}

	bodyBytes, err := json.Marshal(trocrRequest{
		Image: base64.StdEncoding.EncodeToString(img.PNG),
	})
	if err != nil {
		return document.PageText{}, newError(TrOCRName, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/recognize", bytes.NewReader(bodyBytes))
	if err != nil {
		return document.PageText{}, newError(TrOCRName, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return document.PageText{}, newError(TrOCRName, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return document.PageText{}, newError(TrOCRName, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return document.PageText{}, newError(TrOCRName,
			fmt.Sprintf("server error (status %d)", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(respBody))))
	}

	var trResp trocrResponse
	if err := json.Unmarshal(respBody, &trResp); err != nil {
		return document.PageText{}, newError(TrOCRName, "unmarshal response", err)
	}

	text := strings.TrimSpace(trResp.Text)
	return document.PageText{
		Page:       img.Index,
		Text:       text,
		Confidence: proxyConfidence(text),
		Engine:     TrOCRName,
	}, nil
}

// TrOCR inference server API types.

type trocrRequest struct {
	Image string `json:"image"` // base64 PNG
}

type trocrResponse struct {
	Text string `json:"text"`
}
