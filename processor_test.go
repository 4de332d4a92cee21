package seamcarving

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func noisePNG(t testing.TB, width, height int) []byte {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, width, height))
	rnd := rand.New(rand.NewSource(int64(width*height)))
	rnd.Read(src.Pix)
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	return buf.Bytes()
}

func TestProcessor_ShouldResizeImage(t *testing.T) {
	tests := []struct {
		name         string
		p            *Processor
		wantW, wantH int
	}{
		{"width", &Processor{NewWidth: 30}, 30, 30},
		{"height", &Processor{NewHeight: 20}, 40, 20},
		{"both", &Processor{NewWidth: 25, NewHeight: 22, Energy: RecomputedEnergy}, 25, 22},
		{"percentage", &Processor{NewWidth: 50, Percentage: true}, 20, 30},
		{"square", &Processor{NewWidth: 35, NewHeight: 26, Square: true}, 26, 26},
		{"scale", &Processor{NewWidth: 10, NewHeight: 12, Scale: true, Kernel: Sobel5}, 10, 12},
		{"blur", &Processor{NewWidth: 36, BlurSigma: 1, Kernel: Sobel3Interior}, 36, 30},
	}

	data := noisePNG(t, 40, 30)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.p.Logger = quietLogger()

			var out bytes.Buffer
			require.NoError(t, tt.p.Process(bytes.NewReader(data), &out))

			img, err := imaging.Decode(&out)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}

func TestProcessor_ShouldRejectInvalidOptions(t *testing.T) {
	data := noisePNG(t, 40, 30)
	tests := []struct {
		name string
		p    *Processor
	}{
		{"enlarge", &Processor{NewWidth: 50}},
		{"percentage overflow", &Processor{NewWidth: 100, Percentage: true}},
		{"negative percentage", &Processor{NewHeight: -5, Percentage: true}},
		{"square without height", &Processor{NewWidth: 20, Square: true}},
		{"face without classifier", &Processor{NewWidth: 20, FaceDetect: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.p.Logger = quietLogger()
			assert.Error(t, tt.p.Process(bytes.NewReader(data), io.Discard))
		})
	}

	p := &Processor{NewWidth: 50, Logger: quietLogger()}
	err := p.Process(bytes.NewReader(data), io.Discard)
	assert.ErrorIs(t, err, ErrInvalidTargetSize)

	err = p.Process(bytes.NewReader([]byte("not an image")), io.Discard)
	assert.Error(t, err)
}

func TestProcessor_GrayStaysGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 16))
	rand.New(rand.NewSource(1)).Read(src.Pix)

	for _, scale := range []bool{false, true} {
		p := &Processor{NewWidth: 12, NewHeight: 10, Scale: scale, Logger: quietLogger()}
		res, err := p.Resize(src)
		require.NoError(t, err)

		_, ok := res.(*image.Gray)
		assert.True(t, ok)
		assert.Equal(t, image.Rect(0, 0, 12, 10), res.Bounds())
	}
}

func TestProcessor_ShouldEncodeByExtension(t *testing.T) {
	data := noisePNG(t, 24, 18)
	dir := t.TempDir()

	for _, ext := range []string{".png", ".bmp", ".jpg"} {
		fname := filepath.Join(dir, "out"+ext)
		f, err := os.Create(fname)
		require.NoError(t, err)

		p := &Processor{NewWidth: 20, NewHeight: 15, Logger: quietLogger()}
		require.NoError(t, p.Process(bytes.NewReader(data), f))
		require.NoError(t, f.Close())

		img, err := imaging.Open(fname)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 20, 15), img.Bounds())
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out.bmp"))
	require.NoError(t, err)
	assert.Equal(t, "BM", string(raw[:2]))
}

func TestProcessor_ShouldProtectFaces(t *testing.T) {
	// A single tree cascade classifying every window as a face.
	cascade := make([]byte, 8)
	cascade = binary.LittleEndian.AppendUint32(cascade, 1)
	cascade = binary.LittleEndian.AppendUint32(cascade, 1)
	cascade = append(cascade, 0, 0, 0, 0)
	cascade = binary.LittleEndian.AppendUint32(cascade, math.Float32bits(10))
	cascade = binary.LittleEndian.AppendUint32(cascade, math.Float32bits(10))
	cascade = binary.LittleEndian.AppendUint32(cascade, math.Float32bits(0))

	classifier := filepath.Join(t.TempDir(), "facefinder")
	require.NoError(t, os.WriteFile(classifier, cascade, 0644))

	src := image.NewGray(image.Rect(0, 0, 120, 120))
	p := &Processor{
		NewWidth:   60,
		FaceDetect: true,
		Classifier: classifier,
		Logger:     quietLogger(),
	}
	_, err := p.Resize(src)
	assert.ErrorIs(t, err, ErrFaceDistortion)

	p = &Processor{
		NewWidth:   115,
		FaceDetect: true,
		Classifier: classifier,
		Logger:     quietLogger(),
	}
	res, err := p.Resize(src)
	require.NoError(t, err)
	assert.Equal(t, 115, res.Bounds().Dx())
}

func TestProcessor_TargetSize(t *testing.T) {
	p := &Processor{NewWidth: 25, NewHeight: 10, Percentage: true}
	w, h, err := p.targetSize(200, 100)
	require.NoError(t, err)
	assert.Equal(t, 150, w)
	assert.Equal(t, 90, h)

	p = &Processor{NewWidth: 300, NewHeight: 80, Square: true}
	w, h, err = p.targetSize(400, 100)
	require.NoError(t, err)
	assert.Equal(t, 80, w)
	assert.Equal(t, 80, h)

	p = &Processor{}
	w, h, err = p.targetSize(40, 30)
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestProcessor_CalculateFitness(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 500, 250))
	img := calculateFitness(src, 192, 108)
	assert.Equal(t, 216, img.Bounds().Dx())
	assert.Equal(t, 108, img.Bounds().Dy())
}

func TestProcessor_ShouldWriteSeamMap(t *testing.T) {
	data := noisePNG(t, 30, 20)

	var out, seams bytes.Buffer
	p := &Processor{NewWidth: 25, NewHeight: 18, SeamMap: &seams, SeamColor: "#00ff00", Logger: quietLogger()}
	require.NoError(t, p.Process(bytes.NewReader(data), &out))

	img, err := imaging.Decode(&seams)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds())

	p = &Processor{NewWidth: 25, SeamMap: io.Discard, SeamColor: "green", Logger: quietLogger()}
	assert.Error(t, p.Process(bytes.NewReader(data), io.Discard))
}
