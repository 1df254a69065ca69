package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storypark/internal/downloader"
	"storypark/pkg/logger"
	"storypark/pkg/metadata"
	"storypark/pkg/retry"
	"storypark/pkg/storage"
	"storypark/pkg/storypark"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type mediaJSON struct {
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
	OriginalURL string `json:"original_url"`
}

type storyJSON struct {
	Date  string      `json:"date"`
	Title string      `json:"title"`
	Media []mediaJSON `json:"media"`
}

type pageJSON struct {
	Stories       []storyJSON `json:"stories"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

// mockStorypark serves a fixed account. pages maps child id to its feed,
// keyed by the page_token that requests it ("" for the first page).
type mockStorypark struct {
	server        *httptest.Server
	children      []string
	pages         map[string]map[string]pageJSON
	failChildren  map[string]int
	failMedia     map[string]int
	userCalls     int32
	storyCalls    int32
	mediaCalls    int32
	mu            sync.Mutex
	storyRequests []string
}

func newMockStorypark(t *testing.T) *mockStorypark {
	m := &mockStorypark{
		pages:        make(map[string]map[string]pageJSON),
		failChildren: make(map[string]int),
		failMedia:    make(map[string]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockStorypark) mediaURL(name string) string {
	return m.server.URL + "/media/" + name
}

func (m *mockStorypark) handle(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(storypark.SessionCookie); err != nil || c.Value != "sess" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/users/me":
		atomic.AddInt32(&m.userCalls, 1)
		children := make([]map[string]string, len(m.children))
		for i, id := range m.children {
			children[i] = map[string]string{"id": id}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": map[string]interface{}{"children": children},
		})

	case strings.HasPrefix(r.URL.Path, "/children/"):
		atomic.AddInt32(&m.storyCalls, 1)
		childID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/children/"), "/stories")
		token := r.URL.Query().Get("page_token")

		m.mu.Lock()
		m.storyRequests = append(m.storyRequests, childID+"?"+r.URL.RawQuery)
		m.mu.Unlock()

		if status, ok := m.failChildren[childID]; ok {
			w.WriteHeader(status)
			return
		}
		page, ok := m.pages[childID][token]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(page)

	case strings.HasPrefix(r.URL.Path, "/media/"):
		atomic.AddInt32(&m.mediaCalls, 1)
		name := strings.TrimPrefix(r.URL.Path, "/media/")
		if status, ok := m.failMedia[name]; ok {
			w.WriteHeader(status)
			return
		}
		w.Write(append(append([]byte{}, jpegBytes...), name...))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestArchiver(t *testing.T, m *mockStorypark, root string, log logger.Logger, recorder metadata.Recorder) *Archiver {
	t.Helper()

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 1

	client, err := storypark.NewClient("sess", storypark.Options{
		BaseURL: m.server.URL,
		Retry:   retryCfg,
	}, logger.NewNopLogger())
	require.NoError(t, err)

	store, err := storage.NewManager(root)
	require.NoError(t, err)

	return New(client, store, recorder, Options{
		Root:                root,
		ConcurrentDownloads: 3,
		ConcurrentChildren:  2,
		RunID:               "test-run",
	}, log)
}

func TestRunDownloadsStoryMedia(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"42"}
	m.pages["42"] = map[string]pageJSON{
		"": {Stories: []storyJSON{{
			Date:  "2025-07-11",
			Title: "Park Day",
			Media: []mediaJSON{
				{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL("a.jpg")},
				{Type: "video", ContentType: "video/mp4", OriginalURL: m.mediaURL("b.mp4")},
			},
		}}},
	}

	root := t.TempDir()
	summary, err := newTestArchiver(t, m, root, logger.NewNopLogger(), nil).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "2025-07-11 - Park Day", "00.jpg"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "a.jpg"))
	assert.FileExists(t, filepath.Join(root, "2025-07-11 - Park Day", "01.mp4"))

	assert.Equal(t, "test-run", summary.RunID)
	assert.Equal(t, 1, summary.Children)
	assert.Equal(t, 1, summary.Pages)
	assert.Equal(t, 1, summary.Stories)
	assert.Equal(t, 2, summary.Queued)
	assert.Equal(t, 2, summary.Saved)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.HasFailures())
}

func TestRunFollowsPageTokens(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"7"}
	m.pages["7"] = map[string]pageJSON{
		"":    {Stories: []storyJSON{{Date: "2025-01-01", Title: "One", Media: []mediaJSON{}}}, NextPageToken: "abc"},
		"abc": {Stories: []storyJSON{{Date: "2025-01-02", Title: "Two", Media: []mediaJSON{}}}, NextPageToken: "def"},
		"def": {Stories: []storyJSON{{Date: "2025-01-03", Title: "Three", Media: []mediaJSON{}}}},
	}

	summary, err := newTestArchiver(t, m, t.TempDir(), logger.NewNopLogger(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&m.storyCalls), "two tokens mean three requests")
	assert.Equal(t, 3, summary.Pages)
	assert.Equal(t, 3, summary.Stories)
	require.Len(t, m.storyRequests, 3)
	assert.Contains(t, m.storyRequests[1], "page_token=abc")
	assert.True(t, strings.HasPrefix(m.storyRequests[1], "7?"))
	assert.Contains(t, m.storyRequests[2], "page_token=def")
}

func TestSecondRunDownloadsNothing(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"42"}
	m.pages["42"] = map[string]pageJSON{
		"": {Stories: []storyJSON{{
			Date:  "2025-07-11",
			Title: "Park Day",
			Media: []mediaJSON{
				{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL("a.jpg")},
				{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL("c.jpg")},
			},
		}}},
	}

	root := t.TempDir()
	_, err := newTestArchiver(t, m, root, logger.NewNopLogger(), nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&m.mediaCalls))

	target := filepath.Join(root, "2025-07-11 - Park Day", "00.jpg")
	before, err := os.Stat(target)
	require.NoError(t, err)

	summary, err := newTestArchiver(t, m, root, logger.NewNopLogger(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&m.mediaCalls), "no media fetched on the second run")
	assert.Zero(t, summary.Queued)
	assert.Zero(t, summary.Saved)
	assert.Equal(t, 2, summary.SkippedExisting)

	after, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestUnsupportedEntriesAreSkippedWithWarning(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"42"}
	m.pages["42"] = map[string]pageJSON{
		"": {Stories: []storyJSON{{
			Date:  "2025-07-11",
			Title: "Music",
			Media: []mediaJSON{
				{Type: "audio", ContentType: "audio/mpeg", OriginalURL: m.mediaURL("song.mp3")},
			},
		}}},
	}

	testLogger := logger.NewTestLogger()
	root := t.TempDir()
	summary, err := newTestArchiver(t, m, root, testLogger, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, atomic.LoadInt32(&m.mediaCalls))
	assert.Zero(t, summary.Queued)
	assert.Equal(t, 1, summary.SkippedUnsupported)

	warnings := testLogger.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 1)
	assert.Equal(t, "unknown media type", warnings[0].Fields["reason"])

	_, err = os.Stat(filepath.Join(root, "2025-07-11 - Music"))
	assert.True(t, os.IsNotExist(err), "no directory for a story with nothing to save")
}

func TestUnknownContentTypeIsSkipped(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"42"}
	m.pages["42"] = map[string]pageJSON{
		"": {Stories: []storyJSON{{
			Date:  "2025-07-11",
			Title: "Painting",
			Media: []mediaJSON{
				{Type: "image", ContentType: "image/png", OriginalURL: m.mediaURL("p.png")},
				{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL("q.jpg")},
			},
		}}},
	}

	testLogger := logger.NewTestLogger()
	root := t.TempDir()
	summary, err := newTestArchiver(t, m, root, testLogger, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SkippedUnsupported)
	assert.Equal(t, 1, summary.Saved)
	assert.FileExists(t, filepath.Join(root, "2025-07-11 - Painting", "01.jpg"))
	assert.NoFileExists(t, filepath.Join(root, "2025-07-11 - Painting", "00.jpg"))
	assert.True(t, testLogger.HasMessage("skipping media"))
}

func TestFailingChildDoesNotStopSiblings(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"1", "2"}
	m.failChildren["1"] = http.StatusInternalServerError
	m.pages["2"] = map[string]pageJSON{
		"": {Stories: []storyJSON{{
			Date:  "2025-03-03",
			Title: "Sandpit",
			Media: []mediaJSON{{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL("s.jpg")}},
		}}},
	}

	root := t.TempDir()
	summary, err := newTestArchiver(t, m, root, logger.NewNopLogger(), nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "child 1")

	assert.Equal(t, 1, summary.FailedChildren)
	assert.Equal(t, 1, summary.Saved)
	assert.True(t, summary.HasFailures())
	assert.FileExists(t, filepath.Join(root, "2025-03-03 - Sandpit", "00.jpg"))
}

func TestFailingMediaDoesNotStopStory(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"42"}
	m.failMedia["broken.jpg"] = http.StatusNotFound
	m.pages["42"] = map[string]pageJSON{
		"": {Stories: []storyJSON{{
			Date:  "2025-07-11",
			Title: "Park Day",
			Media: []mediaJSON{
				{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL("broken.jpg")},
				{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL("fine.jpg")},
			},
		}}},
	}

	root := t.TempDir()
	summary, err := newTestArchiver(t, m, root, logger.NewNopLogger(), nil).Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Saved)
	assert.NoFileExists(t, filepath.Join(root, "2025-07-11 - Park Day", "00.jpg"))
	assert.FileExists(t, filepath.Join(root, "2025-07-11 - Park Day", "01.jpg"))
}

func TestAuthenticationFailureStopsRun(t *testing.T) {
	m := newMockStorypark(t)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 1
	client, err := storypark.NewClient("wrong", storypark.Options{BaseURL: m.server.URL, Retry: retryCfg}, logger.NewNopLogger())
	require.NoError(t, err)
	root := t.TempDir()
	store, err := storage.NewManager(root)
	require.NoError(t, err)

	_, err = New(client, store, nil, Options{Root: root}, logger.NewNopLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&m.storyCalls))
}

func TestManifestRecordsSavedItems(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"42"}
	m.pages["42"] = map[string]pageJSON{
		"": {Stories: []storyJSON{{
			Date:  "2025-07-11",
			Title: "Park Day",
			Media: []mediaJSON{{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL("a.jpg")}},
		}}},
	}

	root := t.TempDir()
	manifestPath := filepath.Join(t.TempDir(), "manifest.jsonl")
	manifest, err := metadata.OpenManifest(manifestPath)
	require.NoError(t, err)

	_, err = newTestArchiver(t, m, root, logger.NewNopLogger(), manifest).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, manifest.Close())

	items, err := metadata.Load(manifestPath)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, filepath.Join(root, "2025-07-11 - Park Day", "00.jpg"), items[0].Path)
	assert.Equal(t, m.mediaURL("a.jpg"), items[0].URL)
	assert.Equal(t, "42", items[0].ChildID)
	assert.Equal(t, "image/jpeg", items[0].ContentType)
}

func TestCancelledRunReturnsContextError(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"42"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestArchiver(t, m, t.TempDir(), logger.NewNopLogger(), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type progressRecorder struct {
	queued    int32
	completed int32
}

func (p *progressRecorder) Queued(n int)                 { atomic.AddInt32(&p.queued, int32(n)) }
func (p *progressRecorder) Completed(r downloader.Result) { atomic.AddInt32(&p.completed, 1) }

func TestProgressObserver(t *testing.T) {
	m := newMockStorypark(t)
	m.children = []string{"42"}
	var media []mediaJSON
	for i := 0; i < 5; i++ {
		media = append(media, mediaJSON{Type: "image", ContentType: "image/jpeg", OriginalURL: m.mediaURL(fmt.Sprintf("%d.jpg", i))})
	}
	m.pages["42"] = map[string]pageJSON{
		"": {Stories: []storyJSON{{Date: "2025-07-11", Title: "Many", Media: media}}},
	}

	p := &progressRecorder{}
	a := newTestArchiver(t, m, t.TempDir(), logger.NewNopLogger(), nil)
	a.SetProgress(p)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := a.Run(context.Background())
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}

	assert.Equal(t, int32(5), atomic.LoadInt32(&p.queued))
	assert.Equal(t, int32(5), atomic.LoadInt32(&p.completed))
}
