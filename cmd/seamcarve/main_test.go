package main

import (
	"image"
	"image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	seamcarving "github.com/neor164/seam-carving"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain_DefaultDestination(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "photos")
	require.NoError(t, os.Mkdir(sub, 0755))

	assert.Equal(t, pipeName, defaultDestination(pipeName))
	assert.Equal(t, filepath.Join(dir, "beach_seamed.png"), defaultDestination(filepath.Join(dir, "beach.jpg")))
	assert.Equal(t, sub+"_seamed", defaultDestination(sub+"/"))
	assert.Equal(t, "lake_seamed.png", defaultDestination("https://example.com/img/lake.jpeg"))
	assert.Equal(t, "seamed.png", defaultDestination("https://example.com/"))
}

func writeNoisePNG(t *testing.T, name string, width, height int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rand.New(rand.NewSource(7)).Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	f, err := os.Create(name)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestMain_ExecuteShouldWriteSeamMap(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writeNoisePNG(t, src, 30, 20)

	log := logrus.New()
	log.SetOutput(io.Discard)

	seams := filepath.Join(dir, "seams.png")
	proc := &seamcarving.Processor{NewWidth: 20, Logger: log}
	op := &seamcarving.Ops{Src: src, Dst: filepath.Join(dir, "out.png"), PipeName: pipeName}
	require.NoError(t, execute(proc, op, seams))

	fi, err := os.Stat(seams)
	require.NoError(t, err)
	assert.NotZero(t, fi.Size())
}

func TestMain_ExecuteShouldRemoveSeamMapOnFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writeNoisePNG(t, src, 30, 20)

	log := logrus.New()
	log.SetOutput(io.Discard)

	seams := filepath.Join(dir, "seams.png")
	proc := &seamcarving.Processor{NewWidth: 40, Logger: log}
	op := &seamcarving.Ops{Src: src, Dst: filepath.Join(dir, "out.png"), PipeName: pipeName}
	assert.ErrorIs(t, execute(proc, op, seams), seamcarving.ErrInvalidTargetSize)
	assert.NoFileExists(t, seams)

	op.Src = filepath.Join(dir, "missing.png")
	proc.NewWidth = 20
	assert.Error(t, execute(proc, op, seams))
	assert.NoFileExists(t, seams)
}
