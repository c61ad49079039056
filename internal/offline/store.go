package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TokenProvider yields the current bearer token, if one is stored.
type TokenProvider interface {
	Token() (string, bool)
}

// Store manages the local directory of downloaded EPUB files, one file per
// book identifier. Membership is determined purely by per-file probes and
// directory listing; there is no manifest. A file counts as downloaded only
// if it exists with nonzero size, so interrupted writes are never visible.
type Store struct {
	booksDir   string
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	logger     *zap.Logger
}

func NewStore(booksDir, baseURL string, tokens TokenProvider, timeout time.Duration, logger *zap.Logger) *Store {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		booksDir: booksDir,
		baseURL:  baseURL,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// LocalPath derives the on-device path for a book. Pure and deterministic:
// the same id always maps to the same path, distinct ids never collide.
func (s *Store) LocalPath(bookID string) string {
	return filepath.Join(s.booksDir, bookID+".epub")
}

// IsDownloaded reports whether a complete local copy of the book exists.
// The books directory is created lazily; MkdirAll tolerates concurrent
// callers and existing directories.
func (s *Store) IsDownloaded(bookID string) (bool, error) {
	if err := s.ensureDir(); err != nil {
		return false, err
	}

	info, err := os.Stat(s.LocalPath(bookID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to probe local file: %w", err)
	}
	return info.Mode().IsRegular() && info.Size() > 0, nil
}

// Download fetches the book's EPUB with the current session token and
// persists it at LocalPath(bookID). The body is written to a .part file and
// renamed into place only after a 200 response with a non-empty body, so a
// failed or interrupted download never leaves a file that IsDownloaded
// reports true for. The store never retries; the caller owns retry policy.
func (s *Store) Download(ctx context.Context, bookID string) (string, error) {
	if err := validateBookID(bookID); err != nil {
		return "", err
	}
	if err := s.ensureDir(); err != nil {
		return "", err
	}

	token, ok := s.tokens.Token()
	if !ok {
		return "", ErrUnauthenticated
	}

	downloadURL := fmt.Sprintf("%s/api/Downloads/%s/ebook", s.baseURL, url.PathEscape(bookID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "*/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Download request failed",
			zap.String("book_id", bookID),
			zap.Error(err))
		return "", &DownloadError{BookID: bookID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("Download rejected by server",
			zap.String("book_id", bookID),
			zap.Int("status_code", resp.StatusCode))
		return "", &DownloadError{BookID: bookID, Status: resp.StatusCode}
	}

	localPath := s.LocalPath(bookID)
	partPath := localPath + ".part"

	file, err := os.Create(partPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(partPath)
		return "", &DownloadError{BookID: bookID, Status: resp.StatusCode, Err: err}
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if written == 0 {
		_ = os.Remove(partPath)
		return "", &DownloadError{BookID: bookID, Status: resp.StatusCode, Err: errEmptyBody}
	}

	if err := os.Rename(partPath, localPath); err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("failed to finalize download: %w", err)
	}

	s.logger.Info("Book downloaded",
		zap.String("book_id", bookID),
		zap.String("path", localPath),
		zap.Int64("size", written))

	return localPath, nil
}

// Evict removes the local copy of a book. Removing an absent file is not
// an error.
func (s *Store) Evict(bookID string) error {
	if err := validateBookID(bookID); err != nil {
		return err
	}
	if err := os.Remove(s.LocalPath(bookID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to evict local file: %w", err)
	}
	s.logger.Info("Book evicted",
		zap.String("book_id", bookID))
	return nil
}

// Downloaded lists the book ids with a complete local copy, by scanning
// the books directory.
func (s *Store) Downloaded() ([]string, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.booksDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list books directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".epub") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".epub"))
	}
	return ids, nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.booksDir, 0755); err != nil {
		return fmt.Errorf("failed to create books directory: %w", err)
	}
	return nil
}

// validateBookID rejects ids that would escape the books directory and
// break the one-id-one-path invariant.
func validateBookID(bookID string) error {
	if bookID == "" {
		return fmt.Errorf("empty book id")
	}
	if strings.ContainsAny(bookID, `/\`) || bookID == "." || bookID == ".." {
		return fmt.Errorf("invalid book id %q", bookID)
	}
	return nil
}
