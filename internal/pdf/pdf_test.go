package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mdreader/internal/convert"
	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/testutils"
)

// fakeRenderer records what it was asked to print.
type fakeRenderer struct {
	mu       sync.Mutex
	files    []string
	contents []string
	err      error
	closed   bool
	inspect  func(path string)
}

func (f *fakeRenderer) RenderFromFile(_ context.Context, filePath string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.files = append(f.files, filePath)
	if f.inspect != nil {
		f.inspect(filePath)
	}
	data, readErr := os.ReadFile(filePath)
	if readErr == nil {
		f.contents = append(f.contents, string(data))
	}
	if f.err != nil {
		return nil, f.err
	}

	return []byte("%PDF-1.4 fake"), nil
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

func fixedClock() time.Time { return time.UnixMilli(1700000000000) }

func TestExportWritesPDFAndRemovesTempHTML(t *testing.T) {
	src := testutils.CreateTempMarkdown(t, "guide", "# Guide\nSome **bold** text")
	tmp := t.TempDir()
	out := filepath.Join(t.TempDir(), "guide.pdf")
	r := &fakeRenderer{}

	e := NewExporter(convert.New(), "", time.Second,
		WithRenderer(r), WithTempDir(tmp), WithClock(fixedClock))

	got, err := e.Export(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))

	require.Len(t, r.files, 1)
	assert.Equal(t, filepath.Join(tmp, "md-reader-guide-1700000000000.html"), r.files[0])
	assert.Contains(t, r.contents[0], "<title>Guide</title>")
	assert.Contains(t, r.contents[0], "<strong>bold</strong>")
	assert.NotContains(t, r.contents[0], "<script>")

	_, err = os.Stat(r.files[0])
	assert.True(t, os.IsNotExist(err), "temp html must be removed")

	require.NoError(t, e.Close())
	assert.True(t, r.closed)
}

func TestExportTempHTMLIsPrivate(t *testing.T) {
	src := testutils.CreateTempMarkdown(t, "secret", "# Secret")
	r := &fakeRenderer{inspect: func(path string) {
		testutils.AssertFilePermissions(t, path, 0o600)
	}}

	e := NewExporter(convert.New(), "", time.Second, WithRenderer(r), WithTempDir(t.TempDir()))
	_, err := e.Export(context.Background(), src, filepath.Join(t.TempDir(), "secret.pdf"))
	require.NoError(t, err)
	require.Len(t, r.files, 1)
}

func TestExportOverwritesStalePDF(t *testing.T) {
	src := testutils.CreateTempMarkdown(t, "guide", "# Guide")
	out := filepath.Join(t.TempDir(), "guide.pdf")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(out, stale, stale))

	e := NewExporter(convert.New(), "", time.Second, WithRenderer(&fakeRenderer{}), WithTempDir(t.TempDir()))
	_, err := e.Export(context.Background(), src, out)
	require.NoError(t, err)

	testutils.WaitForFileChange(t, out, stale, time.Second)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestExportDefaultOutputPath(t *testing.T) {
	src := testutils.CreateTempMarkdown(t, "notes", "plain")
	e := NewExporter(nil, "", time.Second, WithRenderer(&fakeRenderer{}), WithTempDir(t.TempDir()))

	got, err := e.Export(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(src), "notes.pdf"), got)
	assert.FileExists(t, got)
}

func TestExportRendererFailure(t *testing.T) {
	src := testutils.CreateTempMarkdown(t, "x", "# X")
	tmp := t.TempDir()
	r := &fakeRenderer{err: errors.New("browser crashed")}
	e := NewExporter(nil, "", time.Second, WithRenderer(r), WithTempDir(tmp))

	out := filepath.Join(t.TempDir(), "x.pdf")
	_, err := e.Export(context.Background(), src, out)

	require.Error(t, err)
	assert.Equal(t, readererrors.ErrorTypeExport, readererrors.TypeOf(err))
	assert.Contains(t, err.Error(), "browser crashed")
	assert.NoFileExists(t, out)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp html must be removed on failure too")
}

func TestExportMissingSource(t *testing.T) {
	e := NewExporter(nil, "", time.Second, WithRenderer(&fakeRenderer{}), WithTempDir(t.TempDir()))

	_, err := e.Export(context.Background(), filepath.Join(t.TempDir(), "gone.md"), "")
	require.Error(t, err)
	assert.Equal(t, readererrors.ErrorTypeExport, readererrors.TypeOf(err))
}

func TestFindBrowser(t *testing.T) {
	installed := map[string]bool{"/usr/bin/chromium": true, "/usr/bin/microsoft-edge": true}
	exists := func(p string) bool { return installed[p] }

	got, err := FindBrowser(Candidates, exists)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/chromium", got)

	_, err = FindBrowser(Candidates, func(string) bool { return false })
	assert.ErrorIs(t, err, readererrors.ErrBrowserNotFound)
}

func TestFindBrowserOnDisk(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "chrome")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	got, err := FindBrowser([]string{filepath.Join(dir, "missing"), dir, bin}, nil)
	require.NoError(t, err)
	assert.Equal(t, bin, got)
}

func TestResolveBrowser(t *testing.T) {
	exists := func(p string) bool { return p == "/opt/chrome" || p == "/usr/bin/chromium" }

	got, err := ResolveBrowser("/opt/chrome", Candidates, exists)
	require.NoError(t, err)
	assert.Equal(t, "/opt/chrome", got)

	_, err = ResolveBrowser("/nope/chrome", Candidates, exists)
	assert.ErrorIs(t, err, readererrors.ErrBrowserNotFound)

	got, err = ResolveBrowser("", Candidates, exists)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/chromium", got)

	got, err = ResolveBrowser("", Candidates, func(string) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, got, "falls back to the managed browser")
}

func TestRodRendererHonoursCancelledContext(t *testing.T) {
	r := NewRodRenderer("", time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RenderFromFile(ctx, "/tmp/none.html")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, r.Close())
}
