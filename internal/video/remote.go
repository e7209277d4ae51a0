// SPDX-License-Identifier: MIT

package video

import (
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/lepetpal/lepetpal/internal/log"
)

// RemoteSource pulls frames from an upstream MJPEG camera server. The
// connection is established lazily and re-established after failures; a
// failed read surfaces as an error so the streamer substitutes a synthetic
// frame instead of dropping the client.
type RemoteSource struct {
	url    string
	client *http.Client

	mu     sync.Mutex
	reader *multipart.Reader
	body   interface{ Close() error }
}

// NewRemoteSource returns a source reading from the given MJPEG URL.
func NewRemoteSource(url string) *RemoteSource {
	return &RemoteSource{
		url:    url,
		client: &http.Client{Timeout: 0}, // streaming: no overall deadline
	}
}

// NextFrame reads and decodes the next JPEG part from the upstream stream.
func (r *RemoteSource) NextFrame() (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reader == nil {
		if err := r.connectLocked(); err != nil {
			return nil, err
		}
	}

	part, err := r.reader.NextPart()
	if err != nil {
		r.disconnectLocked()
		return nil, fmt.Errorf("remote camera: read part: %w", err)
	}
	defer func() { _ = part.Close() }()

	img, err := jpeg.Decode(part)
	if err != nil {
		return nil, fmt.Errorf("remote camera: decode frame: %w", err)
	}
	return img, nil
}

// Close tears down the upstream connection.
func (r *RemoteSource) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnectLocked()
}

func (r *RemoteSource) connectLocked() error {
	req, err := http.NewRequest(http.MethodGet, r.url, nil)
	if err != nil {
		return fmt.Errorf("remote camera: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote camera: connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return fmt.Errorf("remote camera: upstream returned %s", resp.Status)
	}
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || params["boundary"] == "" {
		_ = resp.Body.Close()
		return fmt.Errorf("remote camera: unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	logger := log.WithComponent("video")
	logger.Info().
		Str("event", "video.upstream_connected").
		Str("url", r.url).
		Str("media_type", mediaType).
		Msg("connected to remote camera")

	r.body = resp.Body
	r.reader = multipart.NewReader(resp.Body, params["boundary"])
	return nil
}

func (r *RemoteSource) disconnectLocked() {
	if r.body != nil {
		_ = r.body.Close()
	}
	r.body = nil
	r.reader = nil
	// brief backoff so a flapping upstream doesn't spin the reconnect loop
	time.Sleep(50 * time.Millisecond)
}
