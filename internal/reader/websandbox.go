package reader

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WebSandboxEngine renders EPUB content inside a sandboxed web content view.
// It unpacks the book and serves its chapters over a loopback HTTP listener;
// every served page carries the active theme/font CSS and an injected script
// that translates swipe gestures into next/previous navigation, posted back
// to the gesture endpoint. The controller-facing contract is identical to
// NativeEngine's.
type WebSandboxEngine struct {
	httpClient *http.Client
	logger     *zap.Logger
	events     chan Event

	mu          sync.Mutex
	doc         *document
	index       int
	fontPercent int
	theme       Theme
	closed      bool

	listener net.Listener
	server   *http.Server
}

func NewWebSandboxEngine(logger *zap.Logger) *WebSandboxEngine {
	return &WebSandboxEngine{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		events:      make(chan Event, 16),
		fontPercent: FontDefault,
		theme:       DarkTheme,
	}
}

func (e *WebSandboxEngine) Events() <-chan Event {
	return e.events
}

// Load opens the source and starts the loopback content server on first use.
func (e *WebSandboxEngine) Load(ctx context.Context, src Source) error {
	e.emit(Event{Kind: EventStarted})
	e.emit(Event{Kind: EventLoadStart})

	doc, err := openDocument(ctx, src, e.httpClient)
	if err != nil {
		e.emit(Event{Kind: EventDisplayError, Detail: err.Error()})
		return fmt.Errorf("web sandbox engine: %w", err)
	}

	e.mu.Lock()
	if e.doc != nil {
		_ = e.doc.close()
	}
	e.doc = doc
	e.index = 0
	e.fontPercent = FontDefault
	e.theme = src.Theme
	needServer := e.listener == nil
	e.mu.Unlock()

	if needServer {
		if err := e.startServer(); err != nil {
			e.emit(Event{Kind: EventError, Detail: err.Error()})
			return fmt.Errorf("web sandbox engine: %w", err)
		}
	}

	e.emit(Event{Kind: EventLoadEnd})
	e.emit(Event{Kind: EventReady})
	e.emit(Event{Kind: EventLocationChanged, Location: locationMarker(0)})

	e.logger.Info("Web sandbox engine loaded document",
		zap.Int("chapters", len(doc.chapters)),
		zap.String("content_url", e.ContentURL()))
	return nil
}

// ContentURL is the loopback address the web view should load.
func (e *WebSandboxEngine) ContentURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s/book/current", e.listener.Addr())
}

func (e *WebSandboxEngine) chapterURL(index int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s/book/chapter/%d", e.listener.Addr(), index)
}

func (e *WebSandboxEngine) gestureURL(direction string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s/gesture/%s", e.listener.Addr(), direction)
}

func (e *WebSandboxEngine) startServer() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to bind loopback listener: %w", err)
	}

	r := chi.NewRouter()
	r.Get("/book/current", e.handleCurrent)
	r.Get("/book/chapter/{index}", e.handleChapter)
	r.Get("/book/asset/*", e.handleAsset)
	r.Post("/gesture/{direction}", e.handleGesture)

	server := &http.Server{Handler: r}

	e.mu.Lock()
	e.listener = listener
	e.server = server
	e.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			e.logger.Error("Content server stopped",
				zap.Error(err))
		}
	}()
	return nil
}

func (e *WebSandboxEngine) handleCurrent(w http.ResponseWriter, req *http.Request) {
	e.mu.Lock()
	index := e.index
	e.mu.Unlock()
	e.serveChapter(w, index)
}

func (e *WebSandboxEngine) handleChapter(w http.ResponseWriter, req *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(req, "index"))
	if err != nil {
		http.Error(w, "bad chapter index", http.StatusBadRequest)
		return
	}
	e.serveChapter(w, index)
}

// handleAsset serves raw files (images, stylesheets) from the archive.
func (e *WebSandboxEngine) handleAsset(w http.ResponseWriter, req *http.Request) {
	e.mu.Lock()
	doc := e.doc
	e.mu.Unlock()
	if doc == nil {
		http.Error(w, "no document loaded", http.StatusNotFound)
		return
	}

	name := chi.URLParam(req, "*")
	data, err := doc.book.ReadFile(name)
	if err != nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}
	_, _ = w.Write(data)
}

// handleGesture is the target of the injected script: swipe left advances,
// swipe right goes back.
func (e *WebSandboxEngine) handleGesture(w http.ResponseWriter, req *http.Request) {
	switch chi.URLParam(req, "direction") {
	case "left":
		_ = e.GoNext()
	case "right":
		_ = e.GoPrevious()
	default:
		http.Error(w, "unknown gesture", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *WebSandboxEngine) serveChapter(w http.ResponseWriter, index int) {
	e.mu.Lock()
	doc := e.doc
	theme := e.theme
	font := e.fontPercent
	e.mu.Unlock()

	if doc == nil {
		http.Error(w, "no document loaded", http.StatusNotFound)
		return
	}
	if index < 0 || index >= len(doc.chapters) {
		http.Error(w, "chapter out of range", http.StatusNotFound)
		return
	}

	body, err := doc.chapters[index].BodyHTML()
	if err != nil {
		e.emit(Event{Kind: EventDisplayError, Detail: err.Error()})
		http.Error(w, "failed to render chapter", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageTemplate, theme.Body.Background, theme.Body.Color, font, body)
}

// pageTemplate wraps a chapter body with the active style and the swipe
// translation script.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>body{background:%s;color:%s;font-size:%d%%;margin:1em}</style>
<script>
(function () {
  var startX = null;
  document.addEventListener("touchstart", function (ev) {
    startX = ev.changedTouches[0].clientX;
  });
  document.addEventListener("touchend", function (ev) {
    if (startX === null) return;
    var dx = ev.changedTouches[0].clientX - startX;
    startX = null;
    if (Math.abs(dx) < 40) return;
    var dir = dx < 0 ? "left" : "right";
    fetch("/gesture/" + dir, { method: "POST" }).then(function () {
      window.location.reload();
    });
  });
})();
</script>
</head>
<body>%s</body>
</html>
`

func (e *WebSandboxEngine) ChangeFontSize(percent int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fontPercent = percent
	return nil
}

func (e *WebSandboxEngine) ChangeTheme(theme Theme) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.theme = theme
	return nil
}

func (e *WebSandboxEngine) GoNext() error {
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

func (e *WebSandboxEngine) GoPrevious() error {
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

func (e *WebSandboxEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	server := e.server
	doc := e.doc
	e.doc = nil
	e.server = nil
	e.listener = nil
	// Closing under the lock: emit holds it for the send, so no producer
	// can still be writing here.
	close(e.events)
	e.mu.Unlock()

	var err error
	if server != nil {
		err = server.Close()
	}
	if doc != nil {
		if cerr := doc.close(); err == nil {
			err = cerr
		}
	}
	return err
}

// emit delivers an event without ever blocking. The send happens under the
// same lock that guards the closed flag, so it cannot race Close even with
// gesture handlers running concurrently; when the buffer is full the event
// is dropped rather than stalling a handler.
func (e *WebSandboxEngine) emit(ev Event) {
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
