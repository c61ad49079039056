package reader

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mequqqe1/kazbooks-app/internal/api"
)

// ErrNoAccess means the access decision denies ebook entitlement. It is a
// "purchase required" condition, not a technical failure.
var ErrNoAccess = errors.New("no ebook access, purchase required")

// ContentStore is the offline store capability the controller drives.
type ContentStore interface {
	LocalPath(bookID string) string
	IsDownloaded(bookID string) (bool, error)
	Download(ctx context.Context, bookID string) (string, error)
}

// TokenProvider yields the current bearer token, if one is stored.
type TokenProvider interface {
	Token() (string, bool)
}

// Controller owns the lifecycle of "open this book for reading": it decides
// the content source (offline file wins over online stream), drives the
// rendering engine's pagination/theme/font commands, and forwards engine
// events to the UI unchanged. It never interprets engine errors and never
// force-closes a session on them.
type Controller struct {
	store   ContentStore
	engine  RenderingEngine
	tokens  TokenProvider
	baseURL string
	width   int
	height  int
	logger  *zap.Logger

	// downloads coalesces concurrent downloads per book id so at most one
	// writer touches a given local path at a time.
	downloads singleflight.Group

	mu      sync.Mutex
	current *Session

	events   chan Event
	pumpOnce sync.Once
}

func NewController(store ContentStore, engine RenderingEngine, baseURL string, tokens TokenProvider, width, height int, logger *zap.Logger) *Controller {
	return &Controller{
		store:   store,
		engine:  engine,
		tokens:  tokens,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		width:   width,
		height:  height,
		logger:  logger,
		events:  make(chan Event, 32),
	}
}

// Events exposes the engine event stream, with each event tagged with the
// session it belongs to. The channel closes when the engine closes.
func (c *Controller) Events() <-chan Event {
	c.startPump()
	return c.events
}

// OpenForReading resolves a content source for the book and opens a session
// on it. An existing offline copy always wins; otherwise the access decision
// gates online streaming. Resolution never triggers a download - that is an
// explicit separate action (DownloadAndOpen).
func (c *Controller) OpenForReading(ctx context.Context, bookID, title string, access *api.AccessDecision) (*Session, error) {
	downloaded, err := c.store.IsDownloaded(bookID)
	if err != nil {
		return nil, err
	}

	var src Source
	switch {
	case downloaded:
		src = Source{
			Kind: SourceLocal,
			Path: c.store.LocalPath(bookID),
		}
	case access != nil && access.HasLicense && access.AllowEbook && access.EbookURL != "":
		src = Source{
			Kind:    SourceRemote,
			URL:     c.resolveURL(access.EbookURL),
			Headers: c.authHeaders(),
		}
	default:
		return nil, ErrNoAccess
	}

	return c.open(ctx, bookID, title, src)
}

// DownloadAndOpen acquires the offline artifact (reusing a complete existing
// copy) and opens a local session on it. Unauthenticated and download
// failures propagate unchanged. Concurrent calls for the same book attach to
// one in-flight download instead of racing on the file.
func (c *Controller) DownloadAndOpen(ctx context.Context, bookID, title string) (*Session, error) {
	v, err, shared := c.downloads.Do(bookID, func() (any, error) {
		downloaded, err := c.store.IsDownloaded(bookID)
		if err != nil {
			return "", err
		}
		if downloaded {
			return c.store.LocalPath(bookID), nil
		}
		return c.store.Download(ctx, bookID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Info("Joined in-flight download",
			zap.String("book_id", bookID))
	}

	src := Source{
		Kind: SourceLocal,
		Path: v.(string),
	}
	return c.open(ctx, bookID, title, src)
}

func (c *Controller) open(ctx context.Context, bookID, title string, src Source) (*Session, error) {
	sess := &Session{
		ID:              uuid.NewString(),
		BookID:          bookID,
		Title:           title,
		FontSizePercent: FontDefault,
		Theme:           ThemeDark,
	}
	src.Width = c.width
	src.Height = c.height
	src.Theme = ThemeFor(sess.Theme)
	sess.Source = src

	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()

	c.startPump()

	if err := c.engine.Load(ctx, src); err != nil {
		// The session was never handed to the caller; later events must
		// not carry its id.
		c.mu.Lock()
		if c.current != nil && c.current.ID == sess.ID {
			c.current = nil
		}
		c.mu.Unlock()
		return nil, err
	}

	c.logger.Info("Reader session opened",
		zap.String("session_id", sess.ID),
		zap.String("book_id", bookID),
		zap.String("source", string(src.Kind)))
	return sess, nil
}

// SetFontSize adjusts the session font by delta percent, saturating at the
// [80,160] bounds, and forwards the new scale to the engine. The clamped
// size is returned even when the engine rejects the command.
func (c *Controller) SetFontSize(sess *Session, delta int) (int, error) {
	next := clampFont(sess.FontSizePercent + delta)
	sess.FontSizePercent = next
	if err := c.engine.ChangeFontSize(next); err != nil {
		return next, err
	}
	return next, nil
}

// SetTheme switches the session theme and forwards the corresponding style
// payload to the engine.
func (c *Controller) SetTheme(sess *Session, name ThemeName) error {
	sess.Theme = name
	return c.engine.ChangeTheme(ThemeFor(name))
}

// GoNext advances one page/chapter. Edge behavior belongs to the engine.
func (c *Controller) GoNext() error {
	return c.engine.GoNext()
}

// GoPrevious goes back one page/chapter. Edge behavior belongs to the engine.
func (c *Controller) GoPrevious() error {
	return c.engine.GoPrevious()
}

// CloseSession ends a reading session. The engine outlives the session and
// can load the next book.
func (c *Controller) CloseSession(sess *Session) {
	c.mu.Lock()
	if c.current != nil && c.current.ID == sess.ID {
		c.current = nil
	}
	c.mu.Unlock()

	c.logger.Info("Reader session closed",
		zap.String("session_id", sess.ID),
		zap.String("book_id", sess.BookID))
}

// Close shuts the engine down. The event channel closes once the engine's
// stream drains.
func (c *Controller) Close() error {
	return c.engine.Close()
}

func (c *Controller) startPump() {
	c.pumpOnce.Do(func() {
		go func() {
			for ev := range c.engine.Events() {
				ev.SessionID = c.currentSessionID()
				c.logEvent(ev)
				c.events <- ev
			}
			close(c.events)
		}()
	})
}

func (c *Controller) currentSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

// logEvent records the event without interpreting it; the UI decides
// user-visible behavior.
func (c *Controller) logEvent(ev Event) {
	switch ev.Kind {
	case EventDisplayError, EventError:
		c.logger.Warn("Engine reported error",
			zap.String("session_id", ev.SessionID),
			zap.String("kind", string(ev.Kind)),
			zap.String("detail", ev.Detail))
	case EventLocationChanged:
		c.logger.Debug("Location changed",
			zap.String("session_id", ev.SessionID),
			zap.String("location", ev.Location))
	default:
		c.logger.Debug("Engine event",
			zap.String("session_id", ev.SessionID),
			zap.String("kind", string(ev.Kind)))
	}
}

func (c *Controller) resolveURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return c.baseURL + u
}

func (c *Controller) authHeaders() map[string]string {
	token, ok := c.tokens.Token()
	if !ok {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
