// SPDX-License-Identifier: MIT

package video

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawLabel renders text at (x, y) using the built-in bitmap face. The dot
// is the text baseline.
func drawLabel(img *image.RGBA, text string, x, y int, col color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// applyTimestampOverlay stamps the wall-clock time at the bottom-left.
func applyTimestampOverlay(img *image.RGBA, now time.Time) {
	drawLabel(img, now.Format("15:04:05"), 10, img.Bounds().Dy()-10, color.White)
}

// ensureRGBA returns img as a mutable RGBA, copying only when necessary.
func ensureRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
