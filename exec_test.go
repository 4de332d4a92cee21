package seamcarving

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, os.WriteFile(name, data, 0644))
}

func assertWidth(t *testing.T, fname string, width int) {
	t.Helper()
	img, err := imaging.Open(fname)
	if assert.NoError(t, err, fname) {
		assert.Equal(t, width, img.Bounds().Dx(), fname)
	}
}

func TestExec_ShouldResizeSingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.bmp")
	writeFile(t, src, noisePNG(t, 30, 20))

	p := &Processor{NewWidth: 24, Logger: quietLogger()}
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-"}))
	assertWidth(t, dst, 24)

	// An existing destination is overwritten.
	p = &Processor{NewWidth: 10, Logger: quietLogger()}
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-"}))
	assertWidth(t, dst, 10)
}

func TestExec_ShouldRejectUnsupportedDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writeFile(t, src, noisePNG(t, 30, 20))

	p := &Processor{NewWidth: 24, Logger: quietLogger()}
	assert.Error(t, p.Execute(&Ops{Src: src, Dst: filepath.Join(dir, "out.webp"), PipeName: "-"}))
	assert.Error(t, p.Execute(&Ops{Src: filepath.Join(dir, "missing.png"), Dst: filepath.Join(dir, "out.png"), PipeName: "-"}))
}

func TestExec_ShouldRemoveFailedOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.png")
	writeFile(t, src, noisePNG(t, 30, 20))

	p := &Processor{NewWidth: 40, Logger: quietLogger()}
	assert.ErrorIs(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-"}), ErrInvalidTargetSize)
	assert.NoFileExists(t, dst)
}

func TestExec_ShouldResizeDirectory(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "resized")

	writeFile(t, filepath.Join(src, "a.png"), noisePNG(t, 30, 20))
	writeFile(t, filepath.Join(src, "b.PNG"), noisePNG(t, 32, 20))
	writeFile(t, filepath.Join(src, "nested", "c.png"), noisePNG(t, 28, 22))
	writeFile(t, filepath.Join(src, "notes.txt"), []byte("not an image"))

	p := &Processor{NewWidth: 20, Logger: quietLogger()}
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Workers: 2}))

	assertWidth(t, filepath.Join(dst, "a.png"), 20)
	assertWidth(t, filepath.Join(dst, "b.PNG"), 20)
	assertWidth(t, filepath.Join(dst, "nested", "c.png"), 20)
	assert.NoFileExists(t, filepath.Join(dst, "notes.txt"))
}

func TestExec_DirectoryShouldReportFailures(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(src, "out")

	writeFile(t, filepath.Join(src, "a.png"), noisePNG(t, 30, 20))
	writeFile(t, filepath.Join(src, "broken.png"), []byte("not an image"))

	p := &Processor{NewWidth: 20, Logger: quietLogger()}
	err := p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-"})
	assert.Error(t, err)

	assertWidth(t, filepath.Join(dst, "a.png"), 20)
	assert.NoFileExists(t, filepath.Join(dst, "broken.png"))

	// The destination inside the source directory is not walked again.
	assert.NoDirExists(t, filepath.Join(dst, "out"))
}

func TestExec_DirectoryShouldRejectSeamMap(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "resized")
	writeFile(t, filepath.Join(src, "a.png"), noisePNG(t, 30, 20))

	var seams bytes.Buffer
	p := &Processor{NewWidth: 20, SeamMap: &seams, Logger: quietLogger()}
	err := p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-"})
	assert.ErrorIs(t, err, ErrSeamMapDirectory)

	assert.NoDirExists(t, dst)
	assert.Zero(t, seams.Len())
}

func TestExec_ShouldDownloadSource(t *testing.T) {
	data := noisePNG(t, 30, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "remote.jpg")
	p := &Processor{NewHeight: 15, Logger: quietLogger()}
	require.NoError(t, p.Execute(&Ops{Src: srv.URL + "/remote.png", Dst: dst, PipeName: "-"}))

	img, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, 15, img.Bounds().Dy())
}

func TestExec_WalkDirShouldFilterExtensions(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"a.jpg", "b.JPEG", "c.webp", "d.txt", "skip/e.png"} {
		writeFile(t, filepath.Join(src, name), nil)
	}

	done := make(chan struct{})
	defer close(done)
	paths, errc := walkDir(done, src, filepath.Join(src, "skip"), srcExtensions)

	var found []string
	for path := range paths {
		rel, err := filepath.Rel(src, path)
		require.NoError(t, err)
		found = append(found, rel)
	}
	require.NoError(t, <-errc)
	assert.ElementsMatch(t, []string{"a.jpg", "b.JPEG", "c.webp"}, found)
}
