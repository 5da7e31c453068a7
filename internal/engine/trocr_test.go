package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docufin/docufin/internal/document"
)

func TestTrOCRExtractText(t *testing.T) {
	longText := strings.Repeat("The quick brown fox. ", 20)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recognize" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(trocrResponse{Text: longText})
	}))
	defer server.Close()

	tr := NewTrOCR(TrOCRConfig{BaseURL: server.URL, HTTPClient: server.Client()})
	result, err := tr.ExtractText(context.Background(), document.PageImage{Index: 0, PNG: []byte("png")}, "en")
	if err != nil {
		t.Fatalf("ExtractText() error: %v", err)
	}
	if result.Engine != TrOCRName {
		t.Errorf("engine = %q", result.Engine)
	}
	// TrOCR has no native scores; the proxy caps at 0.9.
	if result.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9 for long clean text", result.Confidence)
	}
}

func TestTrOCRProxyScalesWithLength(t *testing.T) {
	texts := make(chan string, 2)
	texts <- "short"
	texts <- strings.Repeat("long enough text to fill a page expectation. ", 10)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(trocrResponse{Text: <-texts})
	}))
	defer server.Close()

	tr := NewTrOCR(TrOCRConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	short, err := tr.ExtractText(context.Background(), document.PageImage{}, "en")
	if err != nil {
		t.Fatalf("ExtractText() error: %v", err)
	}
	long, err := tr.ExtractText(context.Background(), document.PageImage{}, "en")
	if err != nil {
		t.Fatalf("ExtractText() error: %v", err)
	}
	if short.Confidence >= long.Confidence {
		t.Errorf("short text confidence %v should be below long text %v", short.Confidence, long.Confidence)
	}
}

func TestTrOCRServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cuda out of memory", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tr := NewTrOCR(TrOCRConfig{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := tr.ExtractText(context.Background(), document.PageImage{}, "en")
	if err == nil {
		t.Fatal("ExtractText() should fail on server error")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestTrOCRDefaultsEnglishOnly(t *testing.T) {
	tr := NewTrOCR(TrOCRConfig{BaseURL: "http://localhost:1"})
	_, err := tr.ExtractText(context.Background(), document.PageImage{}, "ru")
	if err == nil {
		t.Fatal("ExtractText() should reject ru with default languages")
	}
}
