package reader

import (
	"context"
	"errors"
)

// SourceKind says where the EPUB bytes come from.
type SourceKind string

const (
	// SourceLocal reads a downloaded file from the books directory.
	SourceLocal SourceKind = "local"
	// SourceRemote streams the book from the server (online reading).
	SourceRemote SourceKind = "remote"
)

// Source describes the content handed to a rendering engine: a local path
// or a remote URL, plus the viewport and initial theme. Headers are injected
// for remote sources only.
type Source struct {
	Kind    SourceKind
	Path    string
	URL     string
	Headers map[string]string
	Width   int
	Height  int
	Theme   Theme
}

// Theme is the style payload forwarded to the engine, matching the
// {body:{background,color}} shape the embeddings expect.
type Theme struct {
	Body ThemeBody `json:"body"`
}

type ThemeBody struct {
	Background string `json:"background"`
	Color      string `json:"color"`
}

// ThemeName is the user-facing theme selector.
type ThemeName string

const (
	ThemeDark  ThemeName = "dark"
	ThemeLight ThemeName = "light"
)

var (
	DarkTheme  = Theme{Body: ThemeBody{Background: "#000", Color: "#fff"}}
	LightTheme = Theme{Body: ThemeBody{Background: "#fff", Color: "#000"}}
)

// ThemeFor maps a theme name to its style payload. Unknown names fall back
// to dark, the reader default.
func ThemeFor(name ThemeName) Theme {
	if name == ThemeLight {
		return LightTheme
	}
	return DarkTheme
}

// EventKind enumerates the engine lifecycle events.
type EventKind string

const (
	EventStarted         EventKind = "started"
	EventReady           EventKind = "ready"
	EventLoadStart       EventKind = "loadStart"
	EventLoadEnd         EventKind = "loadEnd"
	EventLocationChanged EventKind = "locationChanged"
	EventDisplayError    EventKind = "displayError"
	EventError           EventKind = "error"
)

// Event is one engine lifecycle/error/location event. The controller tags
// it with the session id and forwards it unchanged.
type Event struct {
	Kind      EventKind
	SessionID string
	// Location carries the position marker (CFI-style) for locationChanged.
	Location string
	// Detail carries diagnostics for displayError/error.
	Detail string
}

// ErrNoDocument is returned by engine commands issued before a successful
// Load.
var ErrNoDocument = errors.New("no document loaded")

// RenderingEngine is the capability boundary to an EPUB embedding. The
// controller is written once against this interface; NativeEngine and
// WebSandboxEngine both satisfy it.
//
// Load replaces any previously loaded document. Pagination commands are
// no-ops at the first/last position; the engine owns edge behavior. Events
// delivers lifecycle, location and error events until Close.
type RenderingEngine interface {
	Load(ctx context.Context, src Source) error
	ChangeFontSize(percent int) error
	ChangeTheme(theme Theme) error
	GoNext() error
	GoPrevious() error
	Events() <-chan Event
	Close() error
}
