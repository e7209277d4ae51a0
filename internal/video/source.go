// SPDX-License-Identifier: MIT

// Package video serves frames from an opaque source as multipart MJPEG.
// It exists so the operator can see the arm; it feeds nothing back into the
// control plane.
package video

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"
)

// FrameSource yields decoded frames. Implementations may block per frame;
// the streamer paces itself and substitutes a synthetic frame on error.
type FrameSource interface {
	NextFrame() (image.Image, error)
}

// SyntheticSource renders a moving test card. It is the fallback whenever
// no camera is reachable and the default in mock deployments.
type SyntheticSource struct {
	width  int
	height int
	start  time.Time
}

// NewSyntheticSource returns a test-card source of the given dimensions.
func NewSyntheticSource(width, height int) *SyntheticSource {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	return &SyntheticSource{width: width, height: height, start: time.Now()}
}

// NextFrame renders the next test-card frame: black background, caption,
// and a wandering box standing in for the arm.
func (s *SyntheticSource) NextFrame() (image.Image, error) {
	t := time.Since(s.start).Seconds()
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	caption := fmt.Sprintf("lepetpal - synthetic (%.1fs)", t)
	drawLabel(img, caption, 20, 40, color.RGBA{R: 255, G: 200, B: 0, A: 255})

	x := int((math.Sin(t)*0.4 + 0.5) * float64(s.width-120))
	y := int((math.Cos(t*0.7)*0.3 + 0.5) * float64(s.height-80))
	drawBox(img, x, y, 120, 80, color.RGBA{G: 255, A: 255})
	return img, nil
}

// errorFrame renders the frame substituted when the source fails, so the
// stream degrades visibly instead of disconnecting.
func errorFrame(width, height int, cause error) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	drawLabel(img, "camera unavailable", 20, 40, color.RGBA{R: 255, A: 255})
	if cause != nil {
		msg := cause.Error()
		if len(msg) > 80 {
			msg = msg[:80]
		}
		drawLabel(img, msg, 20, 60, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return img
}

func drawBox(img *image.RGBA, x, y, w, h int, col color.Color) {
	for i := 0; i <= w; i++ {
		img.Set(x+i, y, col)
		img.Set(x+i, y+h, col)
	}
	for i := 0; i <= h; i++ {
		img.Set(x, y+i, col)
		img.Set(x+w, y+i, col)
	}
}
