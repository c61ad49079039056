package reader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadedWebEngine(t *testing.T, paragraphs ...string) *WebSandboxEngine {
	t.Helper()
	e := NewWebSandboxEngine(zap.NewNop())
	t.Cleanup(func() { _ = e.Close() })

	err := e.Load(context.Background(), Source{
		Kind:  SourceLocal,
		Path:  writeTestEpub(t, paragraphs...),
		Theme: DarkTheme,
	})
	require.NoError(t, err)
	return e
}

func fetchPage(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestWebSandboxEngine_ServesCurrentChapter(t *testing.T) {
	e := loadedWebEngine(t, "Chapter one.", "Chapter two.")
	require.NotEmpty(t, e.ContentURL())

	page := fetchPage(t, e.ContentURL())
	assert.Contains(t, page, "Chapter one.")
	assert.Contains(t, page, "background:#000")
	assert.Contains(t, page, "font-size:100%")
	// The swipe translation script must be injected.
	assert.Contains(t, page, "touchstart")
	assert.Contains(t, page, "/gesture/")
}

func TestWebSandboxEngine_GestureTranslatesToNavigation(t *testing.T) {
	e := loadedWebEngine(t, "Chapter one.", "Chapter two.")
	drainEvents(e.Events())

	// Swipe left = next page.
	resp, err := http.Post(e.gestureURL("left"), "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	page := fetchPage(t, e.ContentURL())
	assert.Contains(t, page, "Chapter two.")

	events := drainEvents(e.Events())
	require.Len(t, events, 1)
	assert.Equal(t, EventLocationChanged, events[0].Kind)

	// Swipe right = previous page.
	resp, err = http.Post(e.gestureURL("right"), "", nil)
	require.NoError(t, err)
	resp.Body.Close()

	page = fetchPage(t, e.ContentURL())
	assert.Contains(t, page, "Chapter one.")
}

func TestWebSandboxEngine_ThemeAndFontInjection(t *testing.T) {
	e := loadedWebEngine(t, "Chapter one.")

	require.NoError(t, e.ChangeTheme(LightTheme))
	require.NoError(t, e.ChangeFontSize(130))

	page := fetchPage(t, e.ContentURL())
	assert.Contains(t, page, "background:#fff")
	assert.Contains(t, page, "color:#000")
	assert.Contains(t, page, "font-size:130%")
}

func TestWebSandboxEngine_ChapterOutOfRange(t *testing.T) {
	e := loadedWebEngine(t, "Chapter one.")

	resp, err := http.Get(e.chapterURL(5))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSandboxEngine_CloseWithBackloggedGestures(t *testing.T) {
	chapters := make([]string, 30)
	for i := range chapters {
		chapters[i] = fmt.Sprintf("Chapter %d.", i+1)
	}

	e := NewWebSandboxEngine(zap.NewNop())
	err := e.Load(context.Background(), Source{
		Kind:  SourceLocal,
		Path:  writeTestEpub(t, chapters...),
		Theme: DarkTheme,
	})
	require.NoError(t, err)

	// Gesture handlers keep producing events with nobody draining; closing
	// afterwards must not crash a producer.
	url := e.gestureURL("left")
	for i := 0; i < 25; i++ {
		resp, err := http.Post(url, "", nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.NoError(t, e.Close())

	events := drainEvents(e.Events())
	assert.NotEmpty(t, events)
	_, open := <-e.Events()
	assert.False(t, open, "event channel must be closed after Close")
}

func TestWebSandboxEngine_LifecycleEvents(t *testing.T) {
	e := loadedWebEngine(t, "Chapter one.")

	events := drainEvents(e.Events())
	var kinds []EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{
		EventStarted, EventLoadStart, EventLoadEnd, EventReady, EventLocationChanged,
	}, kinds)
}
