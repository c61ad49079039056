package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/simp-lee/epub"
)

// document is one opened EPUB package: the parsed book plus its linear
// reading order. Both engines read through it.
type document struct {
	book     *epub.Book
	chapters []epub.Chapter
}

// openDocument opens the given source as an EPUB. Local sources are opened
// in place; remote sources are fetched fully into memory with the injected
// headers and parsed from there, so the engine always works from a complete
// byte stream.
func openDocument(ctx context.Context, src Source, client *http.Client) (*document, error) {
	var (
		book *epub.Book
		err  error
	)

	switch src.Kind {
	case SourceLocal:
		book, err = epub.Open(src.Path)
	case SourceRemote:
		var data []byte
		data, err = fetchRemote(ctx, src, client)
		if err == nil {
			book, err = epub.NewReader(bytes.NewReader(data), int64(len(data)))
		}
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
	if err != nil {
		return nil, err
	}

	chapters := book.Chapters()
	if len(chapters) == 0 {
		_ = book.Close()
		return nil, fmt.Errorf("epub package has no readable chapters: %w", epub.ErrInvalidEPub)
	}

	return &document{book: book, chapters: chapters}, nil
}

func (d *document) close() error {
	return d.book.Close()
}

func fetchRemote(ctx context.Context, src Source, client *http.Client) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range src.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote book fetch failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote book: %w", err)
	}
	return data, nil
}

// locationMarker builds a CFI-style spine position marker for the chapter
// at the given index. /6 addresses the spine; spine steps are even.
func locationMarker(index int) string {
	return fmt.Sprintf("epubcfi(/6/%d!/4/1:0)", 2*(index+1))
}
