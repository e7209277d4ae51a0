// SPDX-License-Identifier: MIT

package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{}

func (failingSource) NextFrame() (image.Image, error) {
	return nil, errors.New("camera dropped")
}

func streamFor(t *testing.T, src FrameSource, cfg StreamConfig, d time.Duration) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	req := httptest.NewRequest("GET", "/video_feed", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	Stream(rec, req, src, cfg)
	return rec
}

func TestStreamFramesAndFraming(t *testing.T) {
	src := NewSyntheticSource(160, 120)
	rec := streamFor(t, src, StreamConfig{FPS: 100, Width: 160, Height: 120}, 300*time.Millisecond)

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", rec.Header().Get("Content-Type"))

	body := rec.Body.Bytes()
	count := bytes.Count(body, []byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n"))
	require.Greater(t, count, 1, "expected multiple frames")

	// the first part decodes as a JPEG of the configured dimensions
	start := bytes.Index(body, []byte("\r\n\r\n")) + 4
	end := bytes.Index(body[start:], []byte("\r\n--frame"))
	require.Greater(t, end, 0)
	img, err := jpeg.Decode(bytes.NewReader(body[start : start+end]))
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func TestStreamSurvivesSourceFailure(t *testing.T) {
	rec := streamFor(t, failingSource{}, StreamConfig{FPS: 100, Width: 160, Height: 120}, 200*time.Millisecond)

	// failures produce synthetic frames, not a dropped stream
	count := bytes.Count(rec.Body.Bytes(), []byte("--frame\r\n"))
	assert.Greater(t, count, 0)
}

func TestStreamOverlayToggle(t *testing.T) {
	src := NewSyntheticSource(160, 120)
	with := streamFor(t, src, StreamConfig{Overlays: true, FPS: 100, Width: 160, Height: 120}, 150*time.Millisecond)
	without := streamFor(t, src, StreamConfig{Overlays: false, FPS: 100, Width: 160, Height: 120}, 150*time.Millisecond)

	assert.Greater(t, with.Body.Len(), 0)
	assert.Greater(t, without.Body.Len(), 0)
}

func TestSyntheticSourceDimensions(t *testing.T) {
	src := NewSyntheticSource(0, 0)
	img, err := src.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, 1280, img.Bounds().Dx())
	assert.Equal(t, 720, img.Bounds().Dy())
}
