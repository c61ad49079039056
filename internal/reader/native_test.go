package reader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadedNativeEngine(t *testing.T, paragraphs ...string) *NativeEngine {
	t.Helper()
	e := NewNativeEngine(zap.NewNop())
	t.Cleanup(func() { _ = e.Close() })

	err := e.Load(context.Background(), Source{
		Kind:  SourceLocal,
		Path:  writeTestEpub(t, paragraphs...),
		Theme: DarkTheme,
	})
	require.NoError(t, err)
	return e
}

func TestNativeEngine_LoadEmitsLifecycleEvents(t *testing.T) {
	e := loadedNativeEngine(t, "Chapter one.", "Chapter two.")

	events := drainEvents(e.Events())
	var kinds []EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{
		EventStarted, EventLoadStart, EventLoadEnd, EventReady, EventLocationChanged,
	}, kinds)
	assert.Equal(t, "epubcfi(/6/2!/4/1:0)", events[len(events)-1].Location)
}

func TestNativeEngine_Pagination(t *testing.T) {
	e := loadedNativeEngine(t, "Chapter one.", "Chapter two.", "Chapter three.")
	drainEvents(e.Events())

	text, err := e.CurrentChapterText()
	require.NoError(t, err)
	assert.Contains(t, text, "Chapter one.")

	require.NoError(t, e.GoNext())
	text, err = e.CurrentChapterText()
	require.NoError(t, err)
	assert.Contains(t, text, "Chapter two.")

	events := drainEvents(e.Events())
	require.Len(t, events, 1)
	assert.Equal(t, EventLocationChanged, events[0].Kind)
	assert.Equal(t, "epubcfi(/6/4!/4/1:0)", events[0].Location)

	// The engine owns edge behavior: past the last chapter is a no-op.
	require.NoError(t, e.GoNext())
	require.NoError(t, e.GoNext())
	text, err = e.CurrentChapterText()
	require.NoError(t, err)
	assert.Contains(t, text, "Chapter three.")

	// And before the first one too.
	require.NoError(t, e.GoPrevious())
	require.NoError(t, e.GoPrevious())
	require.NoError(t, e.GoPrevious())
	text, err = e.CurrentChapterText()
	require.NoError(t, err)
	assert.Contains(t, text, "Chapter one.")
}

func TestNativeEngine_FontAndThemeAppliedToHTML(t *testing.T) {
	e := loadedNativeEngine(t, "Chapter one.")
	drainEvents(e.Events())

	require.NoError(t, e.ChangeFontSize(120))
	require.NoError(t, e.ChangeTheme(LightTheme))

	html, err := e.CurrentChapterHTML()
	require.NoError(t, err)
	assert.Contains(t, html, "font-size:120%")
	assert.Contains(t, html, "background:#fff")
	assert.Contains(t, html, "color:#000")
	assert.Contains(t, html, "Chapter one.")
}

func TestNativeEngine_LoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.epub")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0644))

	e := NewNativeEngine(zap.NewNop())
	defer e.Close()

	err := e.Load(context.Background(), Source{Kind: SourceLocal, Path: path, Theme: DarkTheme})
	require.Error(t, err)

	events := drainEvents(e.Events())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventDisplayError, last.Kind)
	assert.NotEmpty(t, last.Detail)
}

func TestNativeEngine_RemoteSourceWithHeaders(t *testing.T) {
	epubData := testEpubBytes(t, "Streamed chapter.")
	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		_, _ = w.Write(epubData)
	}))
	defer srv.Close()

	e := NewNativeEngine(zap.NewNop())
	defer e.Close()

	err := e.Load(context.Background(), Source{
		Kind:    SourceRemote,
		URL:     srv.URL + "/api/Downloads/abc123/ebook",
		Headers: map[string]string{"Authorization": "Bearer tok"},
		Theme:   DarkTheme,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", sawAuth)

	text, err := e.CurrentChapterText()
	require.NoError(t, err)
	assert.Contains(t, text, "Streamed chapter.")
}

func TestNativeEngine_Metadata(t *testing.T) {
	e := loadedNativeEngine(t, "Chapter one.")

	md, err := e.Metadata()
	require.NoError(t, err)
	require.NotEmpty(t, md.Titles)
	assert.Equal(t, "Steppe Wind", md.Titles[0])
}

func TestNativeEngine_CloseWithBackloggedEvents(t *testing.T) {
	chapters := make([]string, 30)
	for i := range chapters {
		chapters[i] = fmt.Sprintf("Chapter %d.", i+1)
	}

	e := NewNativeEngine(zap.NewNop())
	err := e.Load(context.Background(), Source{
		Kind:  SourceLocal,
		Path:  writeTestEpub(t, chapters...),
		Theme: DarkTheme,
	})
	require.NoError(t, err)

	// Overflow the event buffer with nobody draining, then close. Surplus
	// events are dropped; closing must not crash a producer.
	for i := 0; i < 25; i++ {
		require.NoError(t, e.GoNext())
	}
	require.NoError(t, e.Close())

	events := drainEvents(e.Events())
	assert.NotEmpty(t, events)
	_, open := <-e.Events()
	assert.False(t, open, "event channel must be closed after Close")
}

func TestNativeEngine_CommandsBeforeLoad(t *testing.T) {
	e := NewNativeEngine(zap.NewNop())
	defer e.Close()

	assert.ErrorIs(t, e.GoNext(), ErrNoDocument)
	assert.ErrorIs(t, e.GoPrevious(), ErrNoDocument)
	_, err := e.CurrentChapterText()
	assert.ErrorIs(t, err, ErrNoDocument)
}
