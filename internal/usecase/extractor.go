package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/frontdeskhq/receptionist-core/internal/model"
)

const maxExtractBytes = 4 << 20

// BasicExtractor is the default TextExtractor: it reads stored files from
// disk and fetches URLs over HTTP. PDF binary parsing is delegated to the
// upstream pipeline; here the stored file is expected to already be text.
type BasicExtractor struct {
	client *http.Client
}

// NewBasicExtractor creates an extractor with a bounded HTTP client.
func NewBasicExtractor() *BasicExtractor {
	return &BasicExtractor{client: &http.Client{}}
}

// Extract implements TextExtractor.
func (e *BasicExtractor) Extract(ctx context.Context, ks *model.KnowledgeSource) (string, error) {
	switch ks.Type {
	case model.KnowledgeSourceTypeURL:
		return e.fetchURL(ctx, ks.OriginalURL)
	case model.KnowledgeSourceTypePDF:
		return e.readFile(ks.StoragePath)
	case model.KnowledgeSourceTypeText:
		return ks.ExtractedText, nil
	default:
		return "", fmt.Errorf("unknown knowledge source type %q", ks.Type)
	}
}

func (e *BasicExtractor) fetchURL(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("no URL to fetch")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExtractBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return strings.TrimSpace(string(body)), nil
}

func (e *BasicExtractor) readFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no storage path to read")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxExtractBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(content)), nil
}
