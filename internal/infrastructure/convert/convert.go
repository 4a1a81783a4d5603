package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"PressWatch/internal/ports"
)

// Service converts saved documents into normalized text. PDF payloads go
// through poppler's pdftotext; anything else is treated as an HTML page and
// reduced to its readable text.
type Service struct {
	pdftotext string
	logger    *slog.Logger
}

var _ ports.Converter = (*Service)(nil)

// NewService builds the converter; pdftotextPath defaults to the binary on
// PATH when empty.
func NewService(pdftotextPath string, logger *slog.Logger) *Service {
	if pdftotextPath == "" {
		pdftotextPath = "pdftotext"
	}
	return &Service{pdftotext: pdftotextPath, logger: logger}
}

// Convert reads the file at path and returns its text plus content type.
func (s *Service) Convert(ctx context.Context, path string) (string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read document %s: %w", path, err)
	}

	if bytes.HasPrefix(raw, []byte("%PDF")) {
		return s.convertPDF(ctx, path)
	}
	return s.convertHTML(raw, path)
}

func (s *Service) convertPDF(ctx context.Context, path string) (string, string, error) {
	out, err := exec.CommandContext(ctx, s.pdftotext, "-layout", path, "-").Output()
	if err != nil {
		return "", "", fmt.Errorf("pdftotext %s: %w", path, err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", "", fmt.Errorf("pdftotext %s: empty output", path)
	}
	return text, "text/plain", nil
}

func (s *Service) convertHTML(raw []byte, path string) (string, string, error) {
	pageURL, _ := url.Parse("file://" + path)
	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err != nil {
		return "", "", fmt.Errorf("extract readable text from %s: %w", path, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", "", fmt.Errorf("no readable text in %s", path)
	}
	return text, "text/plain", nil
}
