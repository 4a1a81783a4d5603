package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"PressWatch/internal/ports"
)

const timestampLayout = "20060102150405"

// FileDownloader streams linked documents to the download directory under
// collision-free names, one file per retrieval.
type FileDownloader struct {
	destDir string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.Downloader = (*FileDownloader)(nil)

// NewFileDownloader builds a downloader writing into destDir.
func NewFileDownloader(destDir string, timeout time.Duration, logger *slog.Logger) *FileDownloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FileDownloader{
		destDir: destDir,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		now:     time.Now,
	}
}

// Download fetches the document and saves it as
// download-<SYMBOL>-<timestamp>.pdf, appending _1, _2, ... before the
// extension when the name is taken, so repeated retrievals never overwrite
// an earlier file.
func (d *FileDownloader) Download(ctx context.Context, docURL, symbol string) (string, error) {
	d.logger.Info("downloading document", "url", docURL, "symbol", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("document endpoint returned %s", resp.Status)
	}

	if err := os.MkdirAll(d.destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	name := fmt.Sprintf("download-%s-%s.pdf", strings.ToUpper(symbol), d.now().Format(timestampLayout))
	dest := uniquePath(filepath.Join(d.destDir, name))

	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(dest)
		return "", fmt.Errorf("save %s: %w", dest, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dest, err)
	}

	d.logger.Info("document saved", "url", docURL, "path", dest)
	return dest, nil
}

// uniquePath appends an incrementing numeric suffix before the extension
// until the path does not exist.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
