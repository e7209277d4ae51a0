// SPDX-License-Identifier: MIT

package video

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/metrics"
)

const boundary = "frame"

// StreamConfig shapes one MJPEG client stream.
type StreamConfig struct {
	Overlays bool
	FPS      int
	Width    int // error-frame dimensions
	Height   int
}

// Stream writes multipart MJPEG to the client until the request context is
// cancelled. Each frame is framed exactly as
// "--frame\r\nContent-Type: image/jpeg\r\n\r\n<bytes>\r\n" and flushed.
// A frame-source failure substitutes a synthetic error frame rather than
// dropping the connection.
func Stream(w http.ResponseWriter, r *http.Request, src FrameSource, cfg StreamConfig) {
	logger := log.WithComponentFromContext(r.Context(), "video")

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error().Str("event", "video.no_flusher").Msg("response writer does not support streaming")
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	if cfg.FPS < 1 {
		cfg.FPS = 15
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 720
	}
	interval := time.Second / time.Duration(cfg.FPS)

	w.Header().Set("Content-Type", fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", boundary))
	w.Header().Set("Cache-Control", "no-store")

	metrics.VideoClients.Inc()
	defer metrics.VideoClients.Dec()
	logger.Info().Str("event", "video.client_connected").Bool("overlays", cfg.Overlays).Msg("video client connected")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var buf bytes.Buffer
	for {
		select {
		case <-r.Context().Done():
			logger.Info().Str("event", "video.client_disconnected").Msg("video client disconnected")
			return
		case <-ticker.C:
		}

		frame, err := src.NextFrame()
		var rgba *image.RGBA
		if err != nil {
			rgba = errorFrame(cfg.Width, cfg.Height, err)
		} else {
			rgba = ensureRGBA(frame)
		}
		if cfg.Overlays {
			applyTimestampOverlay(rgba, time.Now())
		}

		buf.Reset()
		if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: 80}); err != nil {
			logger.Error().Err(err).Str("event", "video.encode_failed").Msg("jpeg encode failed")
			continue
		}

		if err := writePart(w, buf.Bytes()); err != nil {
			// client went away mid-write
			logger.Info().Str("event", "video.client_disconnected").Msg("video client disconnected")
			return
		}
		flusher.Flush()
		metrics.VideoFramesServed.Inc()
	}
}

// writePart emits one literal MJPEG part.
func writePart(w http.ResponseWriter, jpg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", boundary); err != nil {
		return err
	}
	if _, err := w.Write(jpg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
