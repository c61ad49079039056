package reader

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/simp-lee/epub"
	"go.uber.org/zap"
)

// NativeEngine renders EPUB content in-process: it opens the package with
// the epub parser, paginates along the spine, and applies font scale and
// theme when chapters are rendered. It is the reader component embedding;
// WebSandboxEngine is the alternative web embedding.
type NativeEngine struct {
	httpClient *http.Client
	logger     *zap.Logger
	events     chan Event

	mu          sync.Mutex
	doc         *document
	index       int
	fontPercent int
	theme       Theme
	closed      bool
}

func NewNativeEngine(logger *zap.Logger) *NativeEngine {
	return &NativeEngine{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		events:      make(chan Event, 16),
		fontPercent: FontDefault,
		theme:       DarkTheme,
	}
}

func (e *NativeEngine) Events() <-chan Event {
	return e.events
}

// Load opens the source and positions the reader at the first chapter. Any
// previously loaded document is closed first.
func (e *NativeEngine) Load(ctx context.Context, src Source) error {
	e.emit(Event{Kind: EventStarted})
	e.emit(Event{Kind: EventLoadStart})

	doc, err := openDocument(ctx, src, e.httpClient)
	if err != nil {
		e.emit(Event{Kind: EventDisplayError, Detail: err.Error()})
		return fmt.Errorf("native engine: %w", err)
	}

	e.mu.Lock()
	if e.doc != nil {
		_ = e.doc.close()
	}
	e.doc = doc
	e.index = 0
	e.fontPercent = FontDefault
	e.theme = src.Theme
	e.mu.Unlock()

	e.emit(Event{Kind: EventLoadEnd})
	e.emit(Event{Kind: EventReady})
	e.emit(Event{Kind: EventLocationChanged, Location: locationMarker(0)})

	e.logger.Info("Native engine loaded document",
		zap.Int("chapters", len(doc.chapters)))
	return nil
}

// ChangeFontSize sets the font scale applied by CurrentChapterHTML.
func (e *NativeEngine) ChangeFontSize(percent int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fontPercent = percent
	return nil
}

// ChangeTheme sets the style payload applied by CurrentChapterHTML.
func (e *NativeEngine) ChangeTheme(theme Theme) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.theme = theme
	return nil
}

// GoNext advances to the next spine item. No-op on the last one.
func (e *NativeEngine) GoNext() error {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return ErrNoDocument
	}
	moved := e.index < len(e.doc.chapters)-1
	if moved {
		e.index++
	}
	index := e.index
	e.mu.Unlock()

	if moved {
		e.emit(Event{Kind: EventLocationChanged, Location: locationMarker(index)})
	}
	return nil
}

// GoPrevious steps back one spine item. No-op on the first one.
func (e *NativeEngine) GoPrevious() error {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return ErrNoDocument
	}
	moved := e.index > 0
	if moved {
		e.index--
	}
	index := e.index
	e.mu.Unlock()

	if moved {
		e.emit(Event{Kind: EventLocationChanged, Location: locationMarker(index)})
	}
	return nil
}

// CurrentChapterTitle returns the title of the chapter at the current
// position, falling back to its href when the TOC has no entry for it.
func (e *NativeEngine) CurrentChapterTitle() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return "", ErrNoDocument
	}
	ch := e.doc.chapters[e.index]
	if ch.Title != "" {
		return ch.Title, nil
	}
	return ch.Href, nil
}

// CurrentChapterHTML renders the current chapter's body with the active
// theme and font scale applied.
func (e *NativeEngine) CurrentChapterHTML() (string, error) {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return "", ErrNoDocument
	}
	ch := e.doc.chapters[e.index]
	theme := e.theme
	font := e.fontPercent
	e.mu.Unlock()

	body, err := ch.BodyHTML()
	if err != nil {
		e.emit(Event{Kind: EventDisplayError, Detail: err.Error()})
		return "", fmt.Errorf("native engine: render chapter %s: %w", ch.Href, err)
	}

	return fmt.Sprintf(`<div style="background:%s;color:%s;font-size:%d%%">%s</div>`,
		theme.Body.Background, theme.Body.Color, font, body), nil
}

// CurrentChapterText extracts the current chapter as plain text.
func (e *NativeEngine) CurrentChapterText() (string, error) {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return "", ErrNoDocument
	}
	ch := e.doc.chapters[e.index]
	e.mu.Unlock()

	text, err := ch.TextContent()
	if err != nil {
		e.emit(Event{Kind: EventDisplayError, Detail: err.Error()})
		return "", fmt.Errorf("native engine: extract chapter %s: %w", ch.Href, err)
	}
	return text, nil
}

// Metadata returns the Dublin Core metadata of the loaded package.
func (e *NativeEngine) Metadata() (epub.Metadata, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return epub.Metadata{}, ErrNoDocument
	}
	return e.doc.book.Metadata(), nil
}

func (e *NativeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.doc != nil {
		err = e.doc.close()
		e.doc = nil
	}
	close(e.events)
	return err
}

// emit delivers an event without ever blocking. The send happens under the
// same lock that guards the closed flag, so it cannot race Close; when the
// buffer is full the event is dropped rather than stalling a command.
func (e *NativeEngine) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.logger.Debug("Dropping event, buffer full",
			zap.String("kind", string(ev.Kind)))
	}
}
